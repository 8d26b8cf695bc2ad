package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/moderation/memstore"
)

func TestHistoryRequest(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	svc := moderation.NewService(moderation.Deps{Ledger: mem, Accumulator: mem, Settings: mem})

	require.NoError(t, mem.Append(ctx, "g", "u", &models.Case{ID: 1, Type: models.CaseWarn, Punishment: models.Points(50)}))
	_, err := mem.ApplyDelta(ctx, "g", "u", 50)
	require.NoError(t, err)

	handle := historyRequest(svc)

	_, err = handle(ctx, map[string]interface{}{"guildId": "g"})
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))

	data, err := handle(ctx, map[string]interface{}{"guildId": "g", "userId": "u"})
	require.NoError(t, err)
	body := data.(map[string]interface{})
	assert.Equal(t, 50, body["user"].(*models.UserRecord).WarnPoints)
	assert.Len(t, body["cases"], 1)
}

func TestDBStatusKeepsNilInterface(t *testing.T) {
	assert.Nil(t, dbStatus(nil))
}
