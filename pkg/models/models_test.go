package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPunishmentString(t *testing.T) {
	assert.Equal(t, "150", Points(150).String())
	assert.Equal(t, "PERMANENT", Permanent().String())
	assert.Equal(t, "10 minutes", Lasting(10*time.Minute).String())
	assert.Equal(t, "", Punishment{}.String())
}

func TestThresholds(t *testing.T) {
	var nilCfg *GuildConfig
	kick, ban := nilCfg.Thresholds(400, 800)
	assert.Equal(t, 400, kick)
	assert.Equal(t, 800, ban)

	cfg := &GuildConfig{BanThreshold: 600}
	kick, ban = cfg.Thresholds(400, 800)
	assert.Equal(t, 400, kick)
	assert.Equal(t, 600, ban)
}

func TestCaseClone(t *testing.T) {
	until := time.Now()
	c := &Case{ID: 3, Until: &until}
	cp := c.Clone()
	cp.ID = 4
	*cp.Until = until.Add(time.Hour)

	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, until, *c.Until)
}
