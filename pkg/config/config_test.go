package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("botToken", "test-token")
	t.Setenv("PORT", "3001")
	t.Setenv("enviroment", "test")
	t.Setenv("warnKickThreshold", "300")
	t.Setenv("callTimeout", "2s")

	resetForTesting()

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", config.BotToken)
	assert.Equal(t, "3001", config.Port)
	assert.Equal(t, "test", config.Environment)
	assert.Equal(t, 300, config.WarnKickThreshold)
	assert.Equal(t, 2*time.Second, config.CallTimeout)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	assert.Equal(t, "test-value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT_VAR", "default"))
}

func TestGetEnvNumbersFallBack(t *testing.T) {
	t.Setenv("BAD_INT", "lots")
	t.Setenv("BAD_DURATION", "-5s")

	assert.Equal(t, 7, getEnvInt("BAD_INT", 7))
	assert.Equal(t, time.Minute, getEnvDuration("BAD_DURATION", time.Minute))
}

func TestIsProd(t *testing.T) {
	resetForTesting()
	t.Setenv("enviroment", "prod")
	config, _ := Load()
	assert.True(t, config.IsProd())

	resetForTesting()
	t.Setenv("enviroment", "dev")
	config, _ = Load()
	assert.False(t, config.IsProd())
}

func TestGet(t *testing.T) {
	resetForTesting()

	config := Get()
	require.NotNil(t, config)
	assert.Same(t, config, Get())
}

func TestDefaultValues(t *testing.T) {
	for _, key := range []string{
		"botToken", "devGuildId", "mongodbUrl", "dbName", "MQTT_Host", "MQTT_Port",
		"MQTT_Prefix", "PORT", "enviroment", "redisAddr", "warnKickThreshold",
		"warnBanThreshold", "callTimeout",
	} {
		t.Setenv(key, "")
	}

	resetForTesting()
	config, _ := Load()

	assert.Equal(t, "mongodb://localhost:27017", config.MongoDBURL)
	assert.Equal(t, "PancyMod", config.DBName)
	assert.Equal(t, "tcp://localhost:1883", config.MQTTBroker())
	assert.Equal(t, "pancymod", config.MQTTPrefix)
	assert.Equal(t, "3000", config.Port)
	assert.Equal(t, "dev", config.Environment)
	assert.Empty(t, config.RedisAddr)
	assert.Equal(t, 400, config.WarnKickThreshold)
	assert.Equal(t, 800, config.WarnBanThreshold)
	assert.Equal(t, 10*time.Second, config.CallTimeout)
}
