package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "neo4j", cfg.Database.Provider)
	assert.Equal(t, "bolt://localhost:7687", cfg.Database.URI)
	assert.Equal(t, "default", cfg.Scope.ID)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 10, cfg.Retrieval.Limit)
	assert.Equal(t, 2, cfg.Retrieval.MaxDepth)
	assert.InDelta(t, 0.7, cfg.Retrieval.SimilarityThreshold, 1e-9)
	assert.True(t, cfg.Events.Enabled)
	assert.False(t, cfg.CircuitBreaker.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database.uri", "bolt://graph:7687")
	viper.Set("scope.id", "tenant-42")
	viper.Set("retrieval.limit", 25)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://graph:7687", cfg.Database.URI)
	assert.Equal(t, "tenant-42", cfg.Scope.ID)
	assert.Equal(t, 25, cfg.Retrieval.Limit)
}

func TestEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("NEO4J_URI", "bolt://env-host:7687")
	t.Setenv("NEO4J_PASSWORD", "secret")
	t.Setenv("MEMOGRAPH_SCOPE", "env-scope")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://env-host:7687", cfg.Database.URI)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "env-scope", cfg.Scope.ID)
}
