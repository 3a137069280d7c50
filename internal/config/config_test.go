package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Storage: StorageConfig{
			DataPath:   "/tmp/openshelf",
			UploadPath: "/tmp/openshelf/uploads",
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_BadEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "qa"
	require.Error(t, cfg.Validate())
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logger.Level = "verbose"
	require.Error(t, cfg.Validate())
}

func TestValidate_EmptyPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = ""
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Storage.UploadPath = ""
	require.Error(t, cfg.Validate())
}

func TestExpandStoragePaths_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.expandStoragePaths())

	assert.NotEmpty(t, cfg.Storage.DataPath)
	assert.Contains(t, cfg.Storage.UploadPath, cfg.Storage.DataPath)
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("OPENSHELF_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "OPENSHELF_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "OPENSHELF_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "OPENSHELF_TEST_MISSING", "default"))
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitOrigins("*"))
	assert.Equal(t, []string{"http://a", "http://b"}, splitOrigins("http://a, http://b"))
	assert.Empty(t, splitOrigins(" , "))
}
