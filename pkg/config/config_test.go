package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Enrollment.AutoPromote)
	assert.Equal(t, 10*time.Minute, cfg.Grades.CacheTTL)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "sis.events", cfg.Events.Exchange)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperRateLimitTTLFloor(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("RATE_LIMIT_REFILL_INTERVAL", "1m")
	v.Set("RATE_LIMIT_TTL", "1m")
	v.Set("RATE_LIMIT_CAPACITY", 0)

	cfg := fromViper(v)

	assert.Equal(t, 5*time.Minute, cfg.RateLimit.TTL)
	assert.Equal(t, 1, cfg.RateLimit.Capacity)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a , ,http://b"))
	assert.Nil(t, splitAndTrim(""))
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("nope", time.Second))
	assert.Equal(t, 2*time.Minute, parseDuration("2m", time.Second))
}
