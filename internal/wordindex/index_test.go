package wordindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	x, err := Open(filepath.Join(t.TempDir(), "data", "words.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func TestSeed_IsIdempotentPerDictionary(t *testing.T) {
	x := openTestIndex(t)
	ctx := context.Background()

	n, err := x.Seed(ctx, "fr", []string{"chat", "été", "a", "chat"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = x.Seed(ctx, "fr", []string{"autre"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	names, err := x.Dictionaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fr"}, names)

	counts, err := x.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"fr": 2}, counts)
}

func TestFind_OrdersByLengthThenWord(t *testing.T) {
	x := openTestIndex(t)
	ctx := context.Background()
	_, err := x.Seed(ctx, "fr", []string{"chat", "thé", "ah", "tac", "chaton", "hache", "cha"})
	require.NoError(t, err)

	got, err := x.Find(ctx, []string{"fr"}, "tahc", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "cha", "tac", "ah"}, got)

	got, err = x.Find(ctx, []string{"fr"}, "the", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"thé"}, got)
}

func TestFind_RespectsLetterCountsAndLimit(t *testing.T) {
	x := openTestIndex(t)
	ctx := context.Background()
	_, err := x.Seed(ctx, "en", []string{"tat", "at", "ta"})
	require.NoError(t, err)

	got, err := x.Find(ctx, []string{"en"}, "TAX", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"at", "ta"}, got)

	got, err = x.Find(ctx, []string{"en"}, "TATX", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"tat"}, got)
}

func TestFind_MergesSourcesWithoutDuplicates(t *testing.T) {
	x := openTestIndex(t)
	ctx := context.Background()
	_, err := x.Seed(ctx, "fr", []string{"art", "rat"})
	require.NoError(t, err)
	_, err = x.Seed(ctx, "en", []string{"art", "tar"})
	require.NoError(t, err)

	got, err := x.Find(ctx, []string{"fr", "en"}, "RAT", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"art", "rat", "tar"}, got)

	got, err = x.Find(ctx, nil, "RAT", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMigrate_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.db")
	x, err := Open(path)
	require.NoError(t, err)
	_, err = x.Seed(context.Background(), "fr", []string{"chat"})
	require.NoError(t, err)
	require.NoError(t, x.Close())

	x, err = Open(path)
	require.NoError(t, err)
	defer x.Close()
	require.NoError(t, x.Ping(context.Background()))
	names, err := x.Dictionaries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fr"}, names)
}
