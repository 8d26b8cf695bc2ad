package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

func TestSettingsNotice(t *testing.T) {
	n := settingsNotice(&models.GuildConfig{
		GuildID:        "g",
		MuteRoleID:     "m",
		KickThreshold:  300,
		LockedChannels: []string{"a", "b"},
	})

	require.Len(t, n.Fields, 7)
	assert.Equal(t, "<@&m>", n.Fields[0].Value)
	assert.Equal(t, "not set", n.Fields[1].Value)
	assert.Equal(t, "300 / default", n.Fields[5].Value)
	assert.Equal(t, "<#a> <#b>", n.Fields[6].Value)
}

func TestSettingsNoticeWithoutFreezeList(t *testing.T) {
	n := settingsNotice(&models.GuildConfig{GuildID: "g"})
	assert.Equal(t, "none", n.Fields[6].Value)
}
