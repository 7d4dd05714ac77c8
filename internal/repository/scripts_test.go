package repository_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/vridge/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScripts_DropsBlankLines(t *testing.T) {
	t.Parallel()

	scripts := repository.ParseScripts("first\r\n\n   \nsecond\nthird\n")

	assert.Equal(t, 3, scripts.Count())
	assert.Equal(t, "first", scripts.Get(1))
	assert.Equal(t, "second", scripts.Get(2))
	assert.Equal(t, "third", scripts.Get(3))
}

func TestScripts_GetIsOneBased(t *testing.T) {
	t.Parallel()

	scripts := repository.DefaultScripts()
	require.Positive(t, scripts.Count())

	for i := 1; i <= scripts.Count(); i++ {
		assert.NotEmpty(t, scripts.Get(i), "prompt %d", i)
	}

	assert.Empty(t, scripts.Get(0))
	assert.Empty(t, scripts.Get(-1))
	assert.Empty(t, scripts.Get(scripts.Count()+1))
}

func TestLoadScripts(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses bundled prompts", func(t *testing.T) {
		t.Parallel()

		scripts, err := repository.LoadScripts("")
		require.NoError(t, err)
		assert.Equal(t, repository.DefaultScripts().Count(), scripts.Count())
	})

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "prompts.txt")
		require.NoError(t, os.WriteFile(path, []byte("one\n\ntwo\n"), 0o600))

		scripts, err := repository.LoadScripts(path)
		require.NoError(t, err)
		assert.Equal(t, 2, scripts.Count())
		assert.Equal(t, "two", scripts.Get(2))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := repository.LoadScripts(filepath.Join(t.TempDir(), "absent.txt"))
		require.Error(t, err)
	})
}
