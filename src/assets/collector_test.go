package assets

import (
	"os"
	"path/filepath"
	"testing"

	"smc-analysis/src/logger"
	"smc-analysis/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "css"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "app.js"), []byte("console.log(1)"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "css", "main.css"), []byte("body{}"), 0644))

	root := filepath.Join(t.TempDir(), "static")
	cfg := &models.MConfig{
		Static: models.MStaticConfig{Root: root, SourceDirs: []string{srcDir}},
	}

	collector := NewCollector(cfg, logger.NewLogger("ERROR", "test"))

	copied, bytes, err := collector.Collect()
	require.NoError(t, err)
	assert.Equal(t, 2, copied)
	assert.Equal(t, int64(len("console.log(1)")+len("body{}")), bytes)

	// Relative layout is preserved under the static root
	got, err := os.ReadFile(filepath.Join(root, "css", "main.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(got))
}

// -----------------------------------------------------------------------------

func TestCollectIsIdempotent(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("v1"), 0644))

	root := filepath.Join(t.TempDir(), "static")
	cfg := &models.MConfig{
		Static: models.MStaticConfig{Root: root, SourceDirs: []string{srcDir}},
	}
	collector := NewCollector(cfg, logger.NewLogger("ERROR", "test"))

	_, _, err := collector.Collect()
	require.NoError(t, err)

	// Source changes win on the next run
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("v2"), 0644))
	copied, _, err := collector.Collect()
	require.NoError(t, err)
	assert.Equal(t, 1, copied)

	got, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

// -----------------------------------------------------------------------------

func TestCollectSkipsMissingSource(t *testing.T) {
	root := filepath.Join(t.TempDir(), "static")
	cfg := &models.MConfig{
		Static: models.MStaticConfig{Root: root, SourceDirs: []string{"/does/not/exist"}},
	}
	collector := NewCollector(cfg, logger.NewLogger("ERROR", "test"))

	copied, bytes, err := collector.Collect()
	require.NoError(t, err)
	assert.Equal(t, 0, copied)
	assert.Equal(t, int64(0), bytes)
}
