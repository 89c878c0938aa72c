package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 100, cfg.MaxPDFPages)
	assert.Equal(t, 3, cfg.NResults)
	assert.True(t, cfg.ResetHistoryOnUpload)
	assert.Equal(t, "8080", cfg.ServerPort)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "1000")
	t.Setenv("MAX_PDF_PAGES", "25")
	t.Setenv("RESET_HISTORY_ON_UPLOAD", "false")
	t.Setenv("DB_NAME", "rag_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 25, cfg.MaxPDFPages)
	assert.False(t, cfg.ResetHistoryOnUpload)
	assert.Contains(t, cfg.DatabaseURL(), "dbname=rag_test")
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.ChunkSize)
}
