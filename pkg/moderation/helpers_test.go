package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"10m", 10 * time.Minute},
		{"90", 90 * time.Minute},
		{"1d3h", 27 * time.Hour},
		{"2 weeks", 14 * 24 * time.Hour},
		{"1mo", 30 * 24 * time.Hour},
		{"30s", 30 * time.Second},
		{"1H30M", 90 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "forever", "0m", "10x", "m10", "600y", "9999999999999m", "290y290y"} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestSanitizeReason(t *testing.T) {
	assert.Equal(t, "No reason provided.", SanitizeReason("   "))
	assert.Equal(t, `\*\*bold\*\* \_x\_`, SanitizeReason("**bold** _x_"))
	assert.Equal(t, "@\u200beveryone hi", SanitizeReason("@everyone hi"))
	assert.Equal(t, "<@\u200b123456789012345678>", SanitizeReason("<@123456789012345678>"))
	assert.Equal(t, `\> quoted`, SanitizeReason("> quoted"))
	assert.Len(t, []rune(SanitizeReason(string(make([]rune, 1500)))), maxReasonLen)
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := keyedMutex{locks: make(map[string]*refMutex)}
	unlock := k.lock("g", "u")
	assert.Len(t, k.locks, 1)
	unlock()
	assert.Empty(t, k.locks)
}
