package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ENCRYPTION_KEY", testKey)
	for _, k := range []string{"PORT", "DATABASE_URL", "APP_ENV", "WEEK_START", "STORE_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "STORY_PURGE_SCHEDULE"} {
		t.Setenv(k, "")
	}

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, time.Sunday, c.WeekStart)
	assert.Equal(t, 5*time.Second, c.StoreTimeout)
	assert.Equal(t, 10.0, c.RateLimitRPS)
	assert.Equal(t, 20, c.RateLimitBurst)
	assert.Equal(t, "@every 1h", c.StoryPurgeSchedule)
	assert.Len(t, c.Key, 32)
	assert.True(t, c.UseMemoryStore())
	assert.False(t, c.Development())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ENCRYPTION_KEY", testKey)
	t.Setenv("WEEK_START", "Monday")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://localhost/lantern")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, c.WeekStart)
	assert.Equal(t, 250*time.Millisecond, c.StoreTimeout)
	assert.True(t, c.Development())
	assert.False(t, c.UseMemoryStore())
}

func TestFromEnvRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing jwt secret": {"ENCRYPTION_KEY": testKey},
		"missing key":        {"JWT_SECRET": "x"},
		"short key":          {"JWT_SECRET": "x", "ENCRYPTION_KEY": "abcd"},
		"bad week start":     {"JWT_SECRET": "x", "ENCRYPTION_KEY": testKey, "WEEK_START": "someday"},
		"zero burst":         {"JWT_SECRET": "x", "ENCRYPTION_KEY": testKey, "RATE_LIMIT_BURST": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"JWT_SECRET", "ENCRYPTION_KEY", "WEEK_START", "RATE_LIMIT_BURST"} {
				t.Setenv(k, env[k])
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
