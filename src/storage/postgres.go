package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smc-analysis/src/logger"
	"smc-analysis/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema is named after the executable so several deployments can share
	// one database.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) candleTable(timeframe string) (string, error) {
	for _, tf := range d.Config.Timeframes {
		if tf == timeframe {
			return fmt.Sprintf(`"%s"."candles_%s"`, d.Schema, timeframe), nil
		}
	}
	return "", fmt.Errorf("unknown timeframe: %s", timeframe)
}

// -----------------------------------------------------------------------------

// Connect opens the connection and ensures the schema namespace exists,
// leaving tables as the last migration left them.
func (d *PostgresDB) Connect() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	if err := d.Connect(); err != nil {
		return err
	}

	if err := d.migrateTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) migrateTables() error {
	// Ticks and candles are rebuilt from history at startup; analyses and
	// uploads persist across runs.
	query := fmt.Sprintf(`DROP TABLE IF EXISTS "%s"."ticks";`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to drop ticks: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE "%s"."ticks" (
			symbol TEXT,
			timestamp BIGINT,
			price DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			price_percent_change DOUBLE PRECISION,
			volume_percent_change DOUBLE PRECISION,
			PRIMARY KEY (symbol, timestamp)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create ticks: %w", err)
	}

	for _, tf := range d.Config.Timeframes {
		table := fmt.Sprintf(`"%s"."candles_%s"`, d.Schema, tf)
		if _, err := d.DB.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}

		query = fmt.Sprintf(`
			CREATE TABLE %s (
				symbol TEXT,
				start_time BIGINT,
				end_time BIGINT,
				open DOUBLE PRECISION,
				high DOUBLE PRECISION,
				low DOUBLE PRECISION,
				close DOUBLE PRECISION,
				volume DOUBLE PRECISION,
				avg_price DOUBLE PRECISION,
				price_percent_change DOUBLE PRECISION,
				volume_percent_change DOUBLE PRECISION,
				data_points INTEGER,
				PRIMARY KEY (symbol, start_time)
			);
		`, table)
		if _, err := d.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create %s: %w", table, err)
		}
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."analyses" (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			timeframe TEXT,
			direction TEXT,
			confidence DOUBLE PRECISION,
			summary TEXT,
			chart_path TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create analyses: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."uploads" (
			id TEXT PRIMARY KEY,
			original_name TEXT,
			size BIGINT,
			content_type TEXT,
			url TEXT,
			uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create uploads: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveTicksBulk(ticks []models.MTick) error {
	if len(ticks) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."ticks" (symbol, timestamp, price, volume, price_percent_change, volume_percent_change)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, timestamp) DO NOTHING
	`, d.Schema)
	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) SaveCandles(candles map[string]map[string][]models.MCandle) error {
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
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (symbol, start_time) DO UPDATE SET
					end_time = EXCLUDED.end_time,
					open = EXCLUDED.open,
					high = EXCLUDED.high,
					low = EXCLUDED.low,
					close = EXCLUDED.close,
					volume = EXCLUDED.volume,
					avg_price = EXCLUDED.avg_price,
					price_percent_change = EXCLUDED.price_percent_change,
					volume_percent_change = EXCLUDED.volume_percent_change,
					data_points = EXCLUDED.data_points
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

func (d *PostgresDB) GetCandles(symbol string, timeframe string, limit int) ([]models.MCandle, error) {
	table, err := d.candleTable(timeframe)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 200
	}

	query := fmt.Sprintf(`
		SELECT symbol, start_time, end_time, open, high, low, close, volume, avg_price, price_percent_change, volume_percent_change, data_points
		FROM %s WHERE symbol = $1 ORDER BY start_time DESC LIMIT $2
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

	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return candles, nil
}

// -----------------------------------------------------------------------------
// Analyses
// -----------------------------------------------------------------------------

func (d *PostgresDB) InsertAnalysis(a *models.MAnalysis) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO "%s"."analyses" (symbol, timeframe, direction, confidence, summary, chart_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, d.Schema)

	return d.DB.QueryRow(query, a.Symbol, a.Timeframe, a.Direction, a.Confidence, a.Summary, a.ChartPath, a.CreatedAt).Scan(&a.ID)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetAnalysis(id int64) (*models.MAnalysis, error) {
	query := fmt.Sprintf(`
		SELECT id, symbol, timeframe, direction, confidence, summary, chart_path, created_at
		FROM "%s"."analyses" WHERE id = $1
	`, d.Schema)

	var a models.MAnalysis
	err := d.DB.QueryRow(query, id).Scan(&a.ID, &a.Symbol, &a.Timeframe, &a.Direction, &a.Confidence, &a.Summary, &a.ChartPath, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ListAnalyses(symbol string, limit int) ([]models.MAnalysis, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error
	if symbol == "" {
		query := fmt.Sprintf(`
			SELECT id, symbol, timeframe, direction, confidence, summary, chart_path, created_at
			FROM "%s"."analyses" ORDER BY created_at DESC, id DESC LIMIT $1
		`, d.Schema)
		rows, err = d.DB.Query(query, limit)
	} else {
		query := fmt.Sprintf(`
			SELECT id, symbol, timeframe, direction, confidence, summary, chart_path, created_at
			FROM "%s"."analyses" WHERE symbol = $1 ORDER BY created_at DESC, id DESC LIMIT $2
		`, d.Schema)
		rows, err = d.DB.Query(query, symbol, limit)
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

func (d *PostgresDB) DeleteAnalysis(id int64) error {
	query := fmt.Sprintf(`DELETE FROM "%s"."analyses" WHERE id = $1`, d.Schema)
	res, err := d.DB.Exec(query, id)
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

func (d *PostgresDB) InsertUpload(u *models.MUpload) error {
	if u.UploadedAt.IsZero() {
		u.UploadedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO "%s"."uploads" (id, original_name, size, content_type, url, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.Schema)
	_, err := d.DB.Exec(query, u.ID, u.OriginalName, u.Size, u.ContentType, u.URL, u.UploadedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ListUploads(limit int) ([]models.MUpload, error) {
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT id, original_name, size, content_type, url, uploaded_at
		FROM "%s"."uploads" ORDER BY uploaded_at DESC LIMIT $1
	`, d.Schema)

	rows, err := d.DB.Query(query, limit)
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

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up data older than %d days (timestamp < %d)...", retentionDays, cutoff)

	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."ticks" WHERE timestamp < $1`, d.Schema), cutoff); err != nil {
		d.Logger.Error("Cleanup ticks error: %v", err)
	}

	for _, tf := range d.Config.Timeframes {
		table := fmt.Sprintf(`"%s"."candles_%s"`, d.Schema, tf)
		if _, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE end_time < $1", table), cutoff); err != nil {
			d.Logger.Error("Cleanup %s error: %v", table, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
