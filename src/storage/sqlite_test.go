package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"smc-analysis/src/logger"
	"smc-analysis/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A file-backed database is required here: with a connection pool every
// ":memory:" connection would see its own empty database.
func testDB(t *testing.T) *AsyncSQLiteDB {
	t.Helper()

	cfg := &models.MConfig{
		Timeframes: []string{"5m", "1h"},
		Storage: models.MStorageConfig{
			DBType:        "sqlite",
			DBPath:        filepath.Join(t.TempDir(), "test.db"),
			RetentionDays: 7,
		},
	}

	db, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })

	return db
}

// -----------------------------------------------------------------------------

func TestSaveTicksBulk(t *testing.T) {
	db := testDB(t)

	ticks := []models.MTick{
		{Symbol: "EURUSD", Timestamp: 100, Price: 1.10, Volume: 500},
		{Symbol: "EURUSD", Timestamp: 160, Price: 1.11, Volume: 600},
		{Symbol: "GBPUSD", Timestamp: 100, Price: 1.25, Volume: 700},
	}

	require.NoError(t, db.SaveTicksBulk(ticks))

	var count int
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM ticks").Scan(&count))
	assert.Equal(t, 3, count)

	// Same (symbol, timestamp) replaces the row instead of failing
	require.NoError(t, db.SaveTicksBulk([]models.MTick{
		{Symbol: "EURUSD", Timestamp: 100, Price: 1.12, Volume: 900},
	}))
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM ticks").Scan(&count))
	assert.Equal(t, 3, count)

	// Empty batch is a no-op
	assert.NoError(t, db.SaveTicksBulk(nil))
}

// -----------------------------------------------------------------------------

func TestSaveAndGetCandles(t *testing.T) {
	db := testDB(t)

	candles := map[string]map[string][]models.MCandle{
		"EURUSD": {
			"5m": {
				{Symbol: "EURUSD", Timeframe: "5m", StartTime: 300, EndTime: 600, Open: 1.10, High: 1.12, Low: 1.09, Close: 1.11, Volume: 1000, DataPoints: 4},
				{Symbol: "EURUSD", Timeframe: "5m", StartTime: 600, EndTime: 900, Open: 1.11, High: 1.13, Low: 1.10, Close: 1.12, Volume: 1100, DataPoints: 5},
			},
		},
	}

	require.NoError(t, db.SaveCandles(candles))

	got, err := db.GetCandles("EURUSD", "5m", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first
	assert.Equal(t, int64(300), got[0].StartTime)
	assert.Equal(t, int64(600), got[1].StartTime)
	assert.Equal(t, "5m", got[0].Timeframe)
	assert.Equal(t, 1.11, got[0].Close)

	// Upsert on the same window overwrites
	candles["EURUSD"]["5m"] = []models.MCandle{
		{Symbol: "EURUSD", Timeframe: "5m", StartTime: 600, EndTime: 900, Open: 1.11, High: 1.14, Low: 1.10, Close: 1.135, Volume: 1200, DataPoints: 6},
	}
	require.NoError(t, db.SaveCandles(candles))

	got, err = db.GetCandles("EURUSD", "5m", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1.135, got[1].Close)
	assert.Equal(t, 6, got[1].DataPoints)
}

// -----------------------------------------------------------------------------

func TestGetCandlesLimit(t *testing.T) {
	db := testDB(t)

	var list []models.MCandle
	for i := int64(0); i < 5; i++ {
		list = append(list, models.MCandle{
			Symbol: "EURUSD", Timeframe: "5m",
			StartTime: i * 300, EndTime: (i + 1) * 300, Close: float64(i),
		})
	}
	require.NoError(t, db.SaveCandles(map[string]map[string][]models.MCandle{
		"EURUSD": {"5m": list},
	}))

	got, err := db.GetCandles("EURUSD", "5m", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// The two newest windows, ordered oldest first
	assert.Equal(t, int64(900), got[0].StartTime)
	assert.Equal(t, int64(1200), got[1].StartTime)
}

// -----------------------------------------------------------------------------

func TestCandleTableRejectsUnknownTimeframe(t *testing.T) {
	db := testDB(t)

	_, err := db.GetCandles("EURUSD", "1m; DROP TABLE ticks", 10)
	assert.Error(t, err)

	err = db.SaveCandles(map[string]map[string][]models.MCandle{
		"EURUSD": {"3m": {{Symbol: "EURUSD", StartTime: 0, EndTime: 180}}},
	})
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestAnalysisCRUD(t *testing.T) {
	db := testDB(t)

	a := &models.MAnalysis{
		Symbol:     "EURUSD",
		Timeframe:  "5m",
		Direction:  models.DirectionBuy,
		Confidence: 0.8,
		Summary:    "Bullish order block retest",
		ChartPath:  "charts/abc.png",
	}

	require.NoError(t, db.InsertAnalysis(a))
	assert.Greater(t, a.ID, int64(0))
	assert.False(t, a.CreatedAt.IsZero())

	got, err := db.GetAnalysis(a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "EURUSD", got.Symbol)
	assert.Equal(t, models.DirectionBuy, got.Direction)
	assert.Equal(t, 0.8, got.Confidence)

	// Missing row is (nil, nil)
	got, err = db.GetAnalysis(9999)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Second record for another symbol
	b := &models.MAnalysis{Symbol: "GBPUSD", Direction: models.DirectionSell, CreatedAt: time.Now().UTC().Add(time.Second)}
	require.NoError(t, db.InsertAnalysis(b))

	all, err := db.ListAnalyses("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := db.ListAnalyses("EURUSD", 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, a.ID, filtered[0].ID)

	require.NoError(t, db.DeleteAnalysis(a.ID))
	assert.ErrorIs(t, db.DeleteAnalysis(a.ID), sql.ErrNoRows)
}

// -----------------------------------------------------------------------------

func TestUploads(t *testing.T) {
	db := testDB(t)

	u := &models.MUpload{
		ID:           "abc123.png",
		OriginalName: "chart.png",
		Size:         2048,
		ContentType:  "image/png",
		URL:          "/media/abc123.png",
	}

	require.NoError(t, db.InsertUpload(u))
	assert.False(t, u.UploadedAt.IsZero())

	list, err := db.ListUploads(10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "abc123.png", list[0].ID)
	assert.Equal(t, "/media/abc123.png", list[0].URL)

	// Duplicate stored name violates the primary key
	assert.Error(t, db.InsertUpload(u))
}

// -----------------------------------------------------------------------------

func TestCleanupOldData(t *testing.T) {
	db := testDB(t)

	old := time.Now().UTC().AddDate(0, 0, -30).Unix()
	fresh := time.Now().UTC().Unix()

	require.NoError(t, db.SaveTicksBulk([]models.MTick{
		{Symbol: "EURUSD", Timestamp: old, Price: 1.0},
		{Symbol: "EURUSD", Timestamp: fresh, Price: 1.1},
	}))
	require.NoError(t, db.SaveCandles(map[string]map[string][]models.MCandle{
		"EURUSD": {"5m": {
			{Symbol: "EURUSD", StartTime: old - 300, EndTime: old},
			{Symbol: "EURUSD", StartTime: fresh - 300, EndTime: fresh},
		}},
	}))

	require.NoError(t, db.CleanupOldData())

	var tickCount int
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM ticks").Scan(&tickCount))
	assert.Equal(t, 1, tickCount)

	candles, err := db.GetCandles("EURUSD", "5m", 10)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, fresh, candles[0].EndTime)
}

// -----------------------------------------------------------------------------

func TestAnalysesPersistAcrossInitialize(t *testing.T) {
	cfg := &models.MConfig{
		Timeframes: []string{"5m"},
		Storage: models.MStorageConfig{
			DBType:        "sqlite",
			DBPath:        filepath.Join(t.TempDir(), "persist.db"),
			RetentionDays: 7,
		},
	}

	db, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())

	a := &models.MAnalysis{Symbol: "EURUSD", Direction: models.DirectionNeutral}
	require.NoError(t, db.InsertAnalysis(a))
	require.NoError(t, db.SaveTicksBulk([]models.MTick{{Symbol: "EURUSD", Timestamp: 1, Price: 1.0}}))
	require.NoError(t, db.Close())

	// Reopen: feed tables are rebuilt, analyses survive
	db2, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	require.NoError(t, db2.Initialize())
	defer db2.Close()

	got, err := db2.GetAnalysis(a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	var tickCount int
	require.NoError(t, db2.DB.QueryRow("SELECT COUNT(*) FROM ticks").Scan(&tickCount))
	assert.Equal(t, 0, tickCount)
}

// -----------------------------------------------------------------------------

// The cleanup command connects without migrating; it must be able to prune
// rows while leaving the schema and recent data a previous run created.
func TestCleanupAfterConnectWithoutMigrate(t *testing.T) {
	cfg := &models.MConfig{
		Timeframes: []string{"5m"},
		Storage: models.MStorageConfig{
			DBType:        "sqlite",
			DBPath:        filepath.Join(t.TempDir(), "maint.db"),
			RetentionDays: 7,
		},
	}

	old := time.Now().UTC().AddDate(0, 0, -30).Unix()
	fresh := time.Now().UTC().Unix()

	db, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	require.NoError(t, db.SaveTicksBulk([]models.MTick{
		{Symbol: "EURUSD", Timestamp: old, Price: 1.0},
		{Symbol: "EURUSD", Timestamp: fresh, Price: 1.1},
	}))
	require.NoError(t, db.SaveCandles(map[string]map[string][]models.MCandle{
		"EURUSD": {"5m": {{Symbol: "EURUSD", StartTime: fresh - 300, EndTime: fresh}}},
	}))
	require.NoError(t, db.Close())

	maint, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	require.NoError(t, maint.Connect())
	defer maint.Close()

	require.NoError(t, maint.CleanupOldData())

	// Expired tick pruned, fresh rows and tables intact
	var tickCount int
	require.NoError(t, maint.DB.QueryRow("SELECT COUNT(*) FROM ticks").Scan(&tickCount))
	assert.Equal(t, 1, tickCount)

	candles, err := maint.GetCandles("EURUSD", "5m", 10)
	require.NoError(t, err)
	assert.Len(t, candles, 1)
}
