package db

import (
	"database/sql"
	"fmt"

	"github.com/thatsimonsguy/greensat/internal/model"
)

const insertMeasurementSQL = `INSERT INTO mesures (date_time, temp, hum, gaz_pct, lux, press, air_pct) VALUES (?, ?, ?, ?, ?, ?, ?)`

func airArg(m model.Measurement) any {
	if m.AirPct == nil {
		return nil
	}
	return *m.AirPct
}

// InsertMeasurement stores one validated record and returns its row id.
func InsertMeasurement(db *sql.DB, m model.Measurement) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("start transaction: %w", err)
	}
	res, err := tx.Exec(insertMeasurementSQL, m.DateTime, m.Temp, m.Hum, m.GazPct, m.Lux, m.Press, airArg(m))
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("insert measurement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit measurement: %w", err)
	}
	return res.LastInsertId()
}

// InsertMeasurements stores a batch in one transaction. Any invalid record
// aborts the whole batch.
func InsertMeasurements(db *sql.DB, ms []model.Measurement) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertMeasurementSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range ms {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, err := stmt.Exec(m.DateTime, m.Temp, m.Hum, m.GazPct, m.Lux, m.Press, airArg(m)); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
