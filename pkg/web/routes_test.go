package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

type fakeHistory struct {
	history *moderation.History
	err     error
	asked   []string
}

func (f *fakeHistory) History(_ context.Context, guildID, userID string) (*moderation.History, error) {
	f.asked = append(f.asked, guildID+"/"+userID)
	return f.history, f.err
}

type fakeStatus struct{}

func (fakeStatus) GetStatus(context.Context) (string, bool) { return "Conectado", true }

func newTestServer(t *testing.T, allowed string, deps API) *Server {
	t.Helper()
	s, err := NewServer("", allowed)
	require.NoError(t, err)
	SetupAPIRoutes(s, deps)
	return s
}

func get(s *Server, host, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func TestCasesEndpoint(t *testing.T) {
	history := &fakeHistory{history: &moderation.History{
		Record: &models.UserRecord{GuildID: "g", UserID: "u", WarnPoints: 300},
		Cases: []*models.Case{
			{GuildID: "g", TargetUserID: "u", ID: 1, Type: models.CaseWarn, Punishment: models.Points(200)},
			{GuildID: "g", TargetUserID: "u", ID: 2, Type: models.CaseWarn, Punishment: models.Points(100)},
		},
	}}
	s := newTestServer(t, "", API{History: history})

	rec := get(s, "api.local", "/api/guilds/g/users/u/cases")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		GuildID string         `json:"guildId"`
		Cases   []*models.Case `json:"cases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "g", body.GuildID)
	require.Len(t, body.Cases, 2)
	assert.Equal(t, int64(2), body.Cases[1].ID)
	assert.Equal(t, []string{"g/u"}, history.asked)
}

func TestUserEndpoint(t *testing.T) {
	history := &fakeHistory{history: &moderation.History{
		Record: &models.UserRecord{GuildID: "g", UserID: "u", WarnPoints: 300, IsMuted: true},
	}}
	s := newTestServer(t, "", API{History: history})

	rec := get(s, "api.local", "/api/guilds/g/users/u")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"user":{"guildId":"g","userId":"u","warnPoints":300,"wasWarnKicked":false,"isMuted":true},"cases":0}`,
		rec.Body.String())
}

func TestHistoryFailures(t *testing.T) {
	s := newTestServer(t, "", API{History: &fakeHistory{err: errors.New("mongo down")}})
	assert.Equal(t, http.StatusInternalServerError, get(s, "x", "/api/guilds/g/users/u/cases").Code)

	s = newTestServer(t, "", API{})
	assert.Equal(t, http.StatusServiceUnavailable, get(s, "x", "/api/guilds/g/users/u").Code)
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t, "", API{Database: fakeStatus{}, BotReady: func() bool { return true }})

	rec := get(s, "x", "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"status":"ok","database":{"status":"Conectado","isOnline":true},"bot":{"isOnline":true}}`,
		rec.Body.String())

	s = newTestServer(t, "", API{})
	assert.Contains(t, get(s, "x", "/api/status").Body.String(), `"isOnline":false`)
}

func TestAllowedHosts(t *testing.T) {
	s := newTestServer(t, `^(.+\.)?pancy\.dev$`, API{})

	assert.Equal(t, http.StatusOK, get(s, "api.pancy.dev", "/api/health").Code)
	assert.Equal(t, http.StatusForbidden, get(s, "evil.example", "/api/health").Code)
}

func TestInvalidHostPattern(t *testing.T) {
	_, err := NewServer("", "([")
	assert.Error(t, err)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, "", API{})
	rec := get(s, "x", "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}
