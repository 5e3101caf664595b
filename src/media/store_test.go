package media

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smc-analysis/src/helpers"
	"smc-analysis/src/logger"
	"smc-analysis/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *models.MConfig {
	t.Helper()
	return &models.MConfig{
		Media: models.MMediaConfig{
			Root:              filepath.Join(t.TempDir(), "media"),
			URLPrefix:         "/media",
			MaxUploadMB:       1,
			AllowedExtensions: []string{".png", ".jpg"},
		},
	}
}

// fileHeader builds a real multipart.FileHeader the way gin receives one.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

// -----------------------------------------------------------------------------

func TestStoreSave(t *testing.T) {
	cfg := testConfig(t)
	store, err := NewStore(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)

	content := []byte("fake png bytes")
	upload, err := store.Save(fileHeader(t, "chart.png", content))
	require.NoError(t, err)

	assert.Equal(t, "chart.png", upload.OriginalName)
	assert.Equal(t, int64(len(content)), upload.Size)
	assert.Equal(t, "/media/"+upload.ID, upload.URL)
	assert.Equal(t, ".png", filepath.Ext(upload.ID))

	// File lands in the media root with the generated name
	stored, err := os.ReadFile(filepath.Join(cfg.Media.Root, upload.ID))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

// -----------------------------------------------------------------------------

func TestStoreSaveGeneratesUniqueNames(t *testing.T) {
	store, err := NewStore(testConfig(t), logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)

	a, err := store.Save(fileHeader(t, "chart.png", []byte("one")))
	require.NoError(t, err)
	b, err := store.Save(fileHeader(t, "chart.png", []byte("two")))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

// -----------------------------------------------------------------------------

func TestStoreSaveRejectsBadExtension(t *testing.T) {
	store, err := NewStore(testConfig(t), logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)

	_, err = store.Save(fileHeader(t, "payload.exe", []byte("nope")))
	require.Error(t, err)

	var vErr *helpers.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// -----------------------------------------------------------------------------

func TestStoreSaveRejectsOversized(t *testing.T) {
	store, err := NewStore(testConfig(t), logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)

	big := make([]byte, 2<<20) // 2MB against a 1MB limit
	_, err = store.Save(fileHeader(t, "huge.png", big))

	var vErr *helpers.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// -----------------------------------------------------------------------------

func TestStoreRemove(t *testing.T) {
	cfg := testConfig(t)
	store, err := NewStore(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)

	upload, err := store.Save(fileHeader(t, "chart.jpg", []byte("data")))
	require.NoError(t, err)

	require.NoError(t, store.Remove(upload.ID))
	_, err = os.Stat(filepath.Join(cfg.Media.Root, upload.ID))
	assert.True(t, os.IsNotExist(err))

	// Path traversal attempts are rejected before hitting the filesystem
	var vErr *helpers.ValidationError
	assert.ErrorAs(t, store.Remove("../config.yaml"), &vErr)
	assert.ErrorAs(t, store.Remove(""), &vErr)
}

// -----------------------------------------------------------------------------
// Disk usage
// -----------------------------------------------------------------------------

func TestPathUsage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), make([]byte, 100), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.bin"), make([]byte, 50), 0644))

	usage := PathUsage(dir)
	assert.Equal(t, int64(150), usage.Bytes)
	assert.Equal(t, 2, usage.FileCount)

	// Missing path reports zero
	missing := PathUsage(filepath.Join(dir, "nope"))
	assert.Equal(t, int64(0), missing.Bytes)
}

// -----------------------------------------------------------------------------

func TestUsageQuota(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.bin"), make([]byte, 2<<20), 0644))

	report := Usage(1, dir, "")
	assert.True(t, report.OverQuota)
	assert.Greater(t, report.QuotaUsed, 1.0)
	assert.Len(t, report.Paths, 1)

	// Zero quota disables enforcement
	report = Usage(0, dir)
	assert.False(t, report.OverQuota)
	assert.Equal(t, 0.0, report.QuotaUsed)
}

// -----------------------------------------------------------------------------
// Cleaner
// -----------------------------------------------------------------------------

func TestCleanerPruneCaches(t *testing.T) {
	cacheDir := t.TempDir()

	stale := filepath.Join(cacheDir, "stale.tmp")
	fresh := filepath.Join(cacheDir, "fresh.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	cfg := &models.MConfig{Media: models.MMediaConfig{CacheDirs: []string{cacheDir}}}
	cleaner := NewCleaner(cfg, logger.NewLogger("ERROR", "test"))

	removed, reclaimed := cleaner.PruneCaches(24 * time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, int64(3), reclaimed)

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

// -----------------------------------------------------------------------------

func TestCleanerTruncateLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(logPath, make([]byte, 3<<20), 0644))

	cfg := &models.MConfig{LogFile: logPath}
	cleaner := NewCleaner(cfg, logger.NewLogger("ERROR", "test"))

	// Under the limit: untouched
	require.NoError(t, cleaner.TruncateLog(10))
	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Equal(t, int64(3<<20), info.Size())

	// Over the limit: emptied
	require.NoError(t, cleaner.TruncateLog(1))
	info, err = os.Stat(logPath)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())

	// No log file configured is a no-op
	cleaner.Config.LogFile = ""
	assert.NoError(t, cleaner.TruncateLog(1))
}
