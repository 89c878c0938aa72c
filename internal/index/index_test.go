package index

import (
	"context"
	"os"
	"strings"
	"testing"

	"rag-engine/internal/embedding"
	"rag-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupIndex(t *testing.T) *Index {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error)
	require.NoError(t, db.AutoMigrate(&models.Document{}, &models.Chunk{}))

	ix := New(db, embedding.NewHashingEmbedder(), 200, 20)
	require.NoError(t, ix.DeleteCollection(context.Background()))
	t.Cleanup(func() {
		_ = ix.DeleteCollection(context.Background())
	})
	return ix
}

func TestContentHashStable(t *testing.T) {
	a := ContentHash("some document text")
	b := ContentHash("some document text")
	c := ContentHash("different text")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := setupIndex(t)

	_, err := ix.Search(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestAddDocumentAndDeduplicate(t *testing.T) {
	ix := setupIndex(t)
	ctx := context.Background()

	text := strings.Repeat("Postgres stores each chunk with its embedding vector. ", 20)

	first, err := ix.AddDocument(ctx, text, "guide.txt")
	require.NoError(t, err)
	assert.False(t, first.WasProcessed)
	assert.Greater(t, first.ChunkCount, 1)
	assert.NotEmpty(t, first.DocumentID)

	// Same content under a different filename resolves to the same
	// document and does no work.
	second, err := ix.AddDocument(ctx, text, "copy-of-guide.txt")
	require.NoError(t, err)
	assert.True(t, second.WasProcessed)
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, first.ChunkCount, second.ChunkCount)

	count, err := ix.CollectionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(first.ChunkCount), count)
}

func TestAddDocumentDistinctContent(t *testing.T) {
	ix := setupIndex(t)
	ctx := context.Background()

	a, err := ix.AddDocument(ctx, "first document about databases", "a.txt")
	require.NoError(t, err)
	b, err := ix.AddDocument(ctx, "second document about networking", "b.txt")
	require.NoError(t, err)

	assert.NotEqual(t, a.DocumentID, b.DocumentID)
}

func TestAddDocumentEmptyText(t *testing.T) {
	ix := setupIndex(t)

	_, err := ix.AddDocument(context.Background(), "", "empty.txt")
	assert.Error(t, err)
}

func TestSearchReturnsMostSimilarFirst(t *testing.T) {
	ix := setupIndex(t)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx,
		"The wombat is a burrowing marsupial native to Australia.\n\n"+
			"Compilers translate source code into machine instructions.\n\n"+
			"Marsupials such as the wombat carry their young in pouches.",
		"mixed.txt")
	require.NoError(t, err)

	res, err := ix.Search(ctx, "wombat marsupial", 2)
	require.NoError(t, err)
	require.NotEmpty(t, res.Chunks)
	assert.LessOrEqual(t, len(res.Chunks), 2)

	for i := 1; i < len(res.Chunks); i++ {
		assert.GreaterOrEqual(t, res.Chunks[i-1].Score, res.Chunks[i].Score,
			"results must be ordered best first")
	}
	assert.Contains(t, strings.ToLower(res.Chunks[0].Text), "wombat")
}

func TestSearchDefaultsN(t *testing.T) {
	ix := setupIndex(t)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "one short document", "one.txt")
	require.NoError(t, err)

	res, err := ix.Search(ctx, "document", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Chunks)
}

func TestDeleteCollection(t *testing.T) {
	ix := setupIndex(t)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "content to be deleted", "gone.txt")
	require.NoError(t, err)

	require.NoError(t, ix.DeleteCollection(ctx))

	count, err := ix.CollectionCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = ix.Search(ctx, "anything", 3)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}
