package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/errors"
)

func writeLists(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "english.txt"), []byte("| english\nthe\nand\nof\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "french.txt"), []byte("le\nla | article\n"), 0o644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := newApp(&out, &errOut).Run(append([]string{"stopwords"}, args...))
	return out.String(), err
}

func TestLanguagesCommand(t *testing.T) {
	dir := writeLists(t)
	out, err := run(t, "--data-dir", dir, "languages")
	require.NoError(t, err)
	assert.Equal(t, "english\nfrench\n", out)
}

func TestWordsCommand(t *testing.T) {
	dir := writeLists(t)

	t.Run("lists sorted words", func(t *testing.T) {
		out, err := run(t, "-d", dir, "words", "English")
		require.NoError(t, err)
		assert.Equal(t, "and\nof\nthe\n", out)
	})

	t.Run("count only", func(t *testing.T) {
		out, err := run(t, "-d", dir, "words", "--count", "french")
		require.NoError(t, err)
		assert.Equal(t, "2\n", out)
	})

	t.Run("unsupported language", func(t *testing.T) {
		_, err := run(t, "-d", dir, "words", "klingon")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUnsupportedLanguage)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := run(t, "-d", dir, "words")
		assert.Error(t, err)
	})
}

func TestFilterCommand(t *testing.T) {
	dir := writeLists(t)
	out, err := run(t, "-d", dir, "filter", "english", "The", "history", "of", "cats")
	require.NoError(t, err)
	assert.Equal(t, "history cats\n", out)

	out, err = run(t, "-d", dir, "filter", "--stem", "english", "running", "and", "jumping")
	require.NoError(t, err)
	assert.Equal(t, "run jump\n", out)
}
