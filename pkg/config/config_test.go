package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 10*time.Second, cfg.DB.TxTimeout)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "token", cfg.Cookie.Name)
	assert.False(t, cfg.Cookie.Secure)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_UpstashComoRespaldo(t *testing.T) {
	v := viper.New()
	v.Set("UPSTASH_REDIS_URL", "rediss://default:pw@eu1.upstash.io:6379")
	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "rediss://default:pw@eu1.upstash.io:6379", cfg.Redis.URL)

	v.Set("REDIS_URL", "redis://cache:6379/1")
	cfg, err = fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL, "REDIS_URL tiene prioridad")
}

func TestFromViper_OrigenesCORS(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)

	v := viper.New()
	v.Set("FRONTEND_URL", "https://planta.example.com, http://localhost:3000")
	cfg, err = fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://planta.example.com", "http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
}

func TestFromViper_TiemposComoTexto(t *testing.T) {
	v := viper.New()
	v.Set("TX_TIMEOUT_SECONDS", "5")
	v.Set("CACHE_TTL_SECONDS", "120")
	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.DB.TxTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
}

func TestFromViper_TimeoutNoPositivo(t *testing.T) {
	v := viper.New()
	v.Set("TX_TIMEOUT_SECONDS", 0)
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestFromViper_AdministradorInicial(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	assert.Empty(t, cfg.Admin.Email, "sin ADMIN_EMAIL no se crea administrador")

	v := viper.New()
	v.Set("ADMIN_EMAIL", " jefe@planta.co ")
	v.Set("ADMIN_PASSWORD", "clave-segura")
	cfg, err = fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, AdminConfig{Name: "Administrador", Email: "jefe@planta.co", Password: "clave-segura"}, cfg.Admin)

	v = viper.New()
	v.Set("ADMIN_EMAIL", "jefe@planta.co")
	_, err = fromViper(v)
	assert.Error(t, err, "ADMIN_EMAIL sin ADMIN_PASSWORD")
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "procesamiento", SSLMode: "disable"}
	dsn := c.DSN()
	assert.Contains(t, dsn, "p%40ss%3Aw%2Frd")
	assert.Equal(t, dsn, c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
