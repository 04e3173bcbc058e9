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
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 12, cfg.Pages.SubjectsPerPage)
	assert.Equal(t, 10, cfg.Pages.ReviewsPerPage)
	assert.Equal(t, "authenticated", cfg.Auth.Audience)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.StatsRefresh.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("AUTH_PROVIDER_URL", "https://auth.example.com/auth/v1/")
	v.Set("SUBJECTS_PER_PAGE", -3)
	v.Set("CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg := fromViper(v)
	assert.Equal(t, "https://auth.example.com/auth/v1", cfg.Auth.ProviderURL)
	assert.Equal(t, 12, cfg.Pages.SubjectsPerPage)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}
