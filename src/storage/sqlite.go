package storage

import (
	"database/sql"
	"fmt"
	"time"

	"smc-analysis/src/logger"
	"smc-analysis/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

// candleTable maps a timeframe to its table name, rejecting timeframes that
// are not configured (table names are built from them).
func (d *AsyncSQLiteDB) candleTable(timeframe string) (string, error) {
	for _, tf := range d.Config.Timeframes {
		if tf == timeframe {
			return fmt.Sprintf("candles_%s", timeframe), nil
		}
	}
	return "", fmt.Errorf("unknown timeframe: %s", timeframe)
}

// -----------------------------------------------------------------------------

// Connect opens the connection and applies pragmas, leaving the schema as
// the last migration left it.
func (d *AsyncSQLiteDB) Connect() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	if err := d.Connect(); err != nil {
		return err
	}
	return d.migrateTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) migrateTables() error {
	// Feed data is rebuilt from history at startup, so ticks and candles
	// are recreated. Analyses and uploads persist across runs.
	if _, err := d.DB.Exec("DROP TABLE IF EXISTS ticks"); err != nil {
		return fmt.Errorf("failed to drop ticks: %w", err)
	}

	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE ticks (
			symbol TEXT,
			timestamp INTEGER,
			price REAL,
			volume REAL,
			price_percent_change REAL,
			volume_percent_change REAL,
			PRIMARY KEY (symbol, timestamp)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create ticks: %w", err)
	}

	for _, tf := range d.Config.Timeframes {
		table := fmt.Sprintf("candles_%s", tf)
		if _, err := d.DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}

		query = fmt.Sprintf(`
			CREATE TABLE %s (
				symbol TEXT,
				start_time INTEGER,
				end_time INTEGER,
				open REAL,
				high REAL,
				low REAL,
				close REAL,
				volume REAL,
				avg_price REAL,
				price_percent_change REAL,
				volume_percent_change REAL,
				data_points INTEGER,
				PRIMARY KEY (symbol, start_time)
			);
		`, table)
		if _, err := d.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create %s: %w", table, err)
		}
	}

	query = `
		CREATE TABLE IF NOT EXISTS analyses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			timeframe TEXT,
			direction TEXT,
			confidence REAL,
			summary TEXT,
			chart_path TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create analyses: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS uploads (
			id TEXT PRIMARY KEY,
			original_name TEXT,
			size INTEGER,
			content_type TEXT,
			url TEXT,
			uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create uploads: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveTicksBulk(ticks []models.MTick) error {
	if len(ticks) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO ticks (symbol, timestamp, price, volume, price_percent_change, volume_percent_change)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range ticks {
		_, err := stmt.Exec(t.Symbol, t.Timestamp, t.Price, t.Volume, t.PricePercentChange, t.VolumePercentChange)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveCandles(candles map[string]map[string][]models.MCandle) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, tfMap := range candles {
		for tf, items := range tfMap {
			if len(items) == 0 {
				continue
			}
			table, err := d.candleTable(tf)
			if err != nil {
				return err
			}

			query := fmt.Sprintf(`
				INSERT INTO %s (symbol, start_time, end_time, open, high, low, close, volume, avg_price, price_percent_change, volume_percent_change, data_points)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (symbol, start_time) DO UPDATE SET
					end_time = excluded.end_time,
					open = excluded.open,
					high = excluded.high,
					low = excluded.low,
					close = excluded.close,
					volume = excluded.volume,
					avg_price = excluded.avg_price,
					price_percent_change = excluded.price_percent_change,
					volume_percent_change = excluded.volume_percent_change,
					data_points = excluded.data_points
			`, table)

			stmt, err := tx.Prepare(query)
			if err != nil {
				return err
			}

			for _, c := range items {
				_, err = stmt.Exec(c.Symbol, c.StartTime, c.EndTime, c.Open, c.High, c.Low, c.Close, c.Volume, c.AvgPrice, c.PricePercentChange, c.VolumePercentChange, c.DataPoints)
				if err != nil {
					stmt.Close()
					return err
				}
			}
			stmt.Close()
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) GetCandles(symbol string, timeframe string, limit int) ([]models.MCandle, error) {
	table, err := d.candleTable(timeframe)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 200
	}

	query := fmt.Sprintf(`
		SELECT symbol, start_time, end_time, open, high, low, close, volume, avg_price, price_percent_change, volume_percent_change, data_points
		FROM %s WHERE symbol = ? ORDER BY start_time DESC LIMIT ?
	`, table)

	rows, err := d.DB.Query(query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []models.MCandle
	for rows.Next() {
		c := models.MCandle{Timeframe: timeframe}
		if err := rows.Scan(&c.Symbol, &c.StartTime, &c.EndTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.AvgPrice, &c.PricePercentChange, &c.VolumePercentChange, &c.DataPoints); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Oldest first
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return candles, nil
}

// -----------------------------------------------------------------------------
// Analyses
// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) InsertAnalysis(a *models.MAnalysis) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	res, err := d.DB.Exec(`
		INSERT INTO analyses (symbol, timeframe, direction, confidence, summary, chart_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.Symbol, a.Timeframe, a.Direction, a.Confidence, a.Summary, a.ChartPath, a.CreatedAt)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) GetAnalysis(id int64) (*models.MAnalysis, error) {
	row := d.DB.QueryRow(`
		SELECT id, symbol, timeframe, direction, confidence, summary, chart_path, created_at
		FROM analyses WHERE id = ?
	`, id)

	var a models.MAnalysis
	err := row.Scan(&a.ID, &a.Symbol, &a.Timeframe, &a.Direction, &a.Confidence, &a.Summary, &a.ChartPath, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) ListAnalyses(symbol string, limit int) ([]models.MAnalysis, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error
	if symbol == "" {
		rows, err = d.DB.Query(`
			SELECT id, symbol, timeframe, direction, confidence, summary, chart_path, created_at
			FROM analyses ORDER BY created_at DESC, id DESC LIMIT ?
		`, limit)
	} else {
		rows, err = d.DB.Query(`
			SELECT id, symbol, timeframe, direction, confidence, summary, chart_path, created_at
			FROM analyses WHERE symbol = ? ORDER BY created_at DESC, id DESC LIMIT ?
		`, symbol, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.MAnalysis
	for rows.Next() {
		var a models.MAnalysis
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Timeframe, &a.Direction, &a.Confidence, &a.Summary, &a.ChartPath, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) DeleteAnalysis(id int64) error {
	res, err := d.DB.Exec("DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// -----------------------------------------------------------------------------
// Uploads
// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) InsertUpload(u *models.MUpload) error {
	if u.UploadedAt.IsZero() {
		u.UploadedAt = time.Now().UTC()
	}

	_, err := d.DB.Exec(`
		INSERT INTO uploads (id, original_name, size, content_type, url, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.OriginalName, u.Size, u.ContentType, u.URL, u.UploadedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) ListUploads(limit int) ([]models.MUpload, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.DB.Query(`
		SELECT id, original_name, size, content_type, url, uploaded_at
		FROM uploads ORDER BY uploaded_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.MUpload
	for rows.Next() {
		var u models.MUpload
		if err := rows.Scan(&u.ID, &u.OriginalName, &u.Size, &u.ContentType, &u.URL, &u.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up data older than %d days (timestamp < %d)...", retentionDays, cutoff)

	if _, err := d.DB.Exec("DELETE FROM ticks WHERE timestamp < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup ticks error: %v", err)
	}

	for _, tf := range d.Config.Timeframes {
		table := fmt.Sprintf("candles_%s", tf)
		if _, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE end_time < ?", table), cutoff); err != nil {
			d.Logger.Error("Cleanup %s error: %v", table, err)
		}
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
