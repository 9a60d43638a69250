package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "h2ready.db", cfg.DBPath)
	assert.Equal(t, "localhost:50061", cfg.GRPCAddr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Empty(t, cfg.RulesPath)
	assert.False(t, cfg.StrictInputs)
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"HRI_DB":            "/tmp/x.db",
		"HRI_RULES":         "/etc/h2ready/rules.yaml",
		"HRI_STRICT_INPUTS": "true",
		"HRI_WORKERS":       "8",
		"HRI_LOG_FORMAT":    "json",
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "/etc/h2ready/rules.yaml", cfg.RulesPath)
	assert.True(t, cfg.StrictInputs)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFromRejectsBadValues(t *testing.T) {
	_, err := LoadFrom(map[string]string{"HRI_WORKERS": "zero"})
	assert.Error(t, err)
	_, err = LoadFrom(map[string]string{"HRI_WORKERS": "0"})
	assert.Error(t, err)
	_, err = LoadFrom(map[string]string{"HRI_LOG_FORMAT": "xml"})
	assert.Error(t, err)
}
