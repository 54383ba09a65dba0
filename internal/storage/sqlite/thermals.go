package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/yegors/glideplan/internal/weglide"
	"github.com/yegors/glideplan/pkg/logger"
)

// ThermalRecord is one stored thermal observation.
type ThermalRecord struct {
	ID            int64
	ObservationID int64
	Lat           float64
	Lon           float64
	BaseAltM      float64
	TopAltM       float64
	ObservedAt    time.Time
	HourUTC       int
	CreatedAt     time.Time
}

// ThermalStorage handles storage of thermal observations
type ThermalStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewThermalStorage creates a new SQLite thermal storage
func NewThermalStorage(db *sql.DB, logger *logger.Logger) (*ThermalStorage, error) {
	storage := &ThermalStorage{
		db:     db,
		logger: logger.Named("sqlite-thermals"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize thermal storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *ThermalStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS thermals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			observation_id INTEGER NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			base_alt_m REAL NOT NULL,
			top_alt_m REAL NOT NULL,
			observed_at TIMESTAMP NOT NULL,
			hour_utc INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (observation_id, observed_at)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create thermals table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_thermals_latlon ON thermals(lat, lon)`,
		`CREATE INDEX IF NOT EXISTS idx_thermals_hour ON thermals(hour_utc)`,
		`CREATE INDEX IF NOT EXISTS idx_thermals_observed_at ON thermals(observed_at)`,
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create thermal index: %w", err)
		}
	}

	return nil
}

// StoreObservations stores a batch of normalized replay observations in
// one transaction. Duplicate (observation, time) pairs are ignored so a
// replay window can be re-fetched safely.
func (s *ThermalStorage) StoreObservations(obs []weglide.ThermalObservation) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO thermals
		(observation_id, lat, lon, base_alt_m, top_alt_m, observed_at, hour_utc, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var stored int64
	for _, o := range obs {
		observedAt := time.Unix(o.StartUnix, 0).UTC()
		res, err := stmt.Exec(
			o.ID,
			o.Lat,
			o.Lon,
			o.BaseAltM,
			o.TopAltM,
			observedAt.Format(time.RFC3339),
			observedAt.Hour(),
			now.Format(time.RFC3339),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert thermal: %w", err)
		}
		n, _ := res.RowsAffected()
		stored += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("Stored thermal observations",
		logger.Int("received", len(obs)),
		logger.Int64("stored", stored),
	)

	return stored, nil
}

// GetByBBox returns observations inside a bounding box, newest first.
func (s *ThermalStorage) GetByBBox(minLat, minLon, maxLat, maxLon float64, limit int) ([]*ThermalRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, observation_id, lat, lon, base_alt_m, top_alt_m, observed_at, hour_utc, created_at
		FROM thermals
		WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?
		ORDER BY observed_at DESC
		LIMIT ?`,
		minLat, maxLat, minLon, maxLon, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query thermals by bbox: %w", err)
	}
	defer rows.Close()

	return s.scanThermalRows(rows)
}

// GetByHour returns observations whose start time falls in the given UTC
// hour of day, for building the hour-conditioned prior.
func (s *ThermalStorage) GetByHour(hourUTC, limit int) ([]*ThermalRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, observation_id, lat, lon, base_alt_m, top_alt_m, observed_at, hour_utc, created_at
		FROM thermals
		WHERE hour_utc = ?
		ORDER BY observed_at DESC
		LIMIT ?`,
		hourUTC, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query thermals by hour: %w", err)
	}
	defer rows.Close()

	return s.scanThermalRows(rows)
}

// Count returns the number of stored observations.
func (s *ThermalStorage) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM thermals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count thermals: %w", err)
	}
	return n, nil
}

// scanThermalRows scans database rows into ThermalRecord structs
func (s *ThermalStorage) scanThermalRows(rows *sql.Rows) ([]*ThermalRecord, error) {
	var records []*ThermalRecord
	for rows.Next() {
		var record ThermalRecord
		var observedAt, createdAt string

		if err := rows.Scan(
			&record.ID,
			&record.ObservationID,
			&record.Lat,
			&record.Lon,
			&record.BaseAltM,
			&record.TopAltM,
			&observedAt,
			&record.HourUTC,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan thermal: %w", err)
		}

		var err error
		record.ObservedAt, err = time.Parse(time.RFC3339, observedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse observed_at: %w", err)
		}
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
