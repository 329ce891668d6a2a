package db

import (
	"database/sql"
	"fmt"

	"github.com/thatsimonsguy/greensat/internal/model"
)

// date_time is re-formatted in SQL because the driver would otherwise turn a
// DATETIME column into time.Time and lose the wire format.
const selectColumns = `id, strftime('%Y-%m-%d %H:%M:%S', date_time), temp, hum, gaz_pct, lux, press, air_pct`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (model.Measurement, error) {
	var m model.Measurement
	var id sql.NullInt64
	var dateTime sql.NullString
	var temp, hum, gas, lux, press, air sql.NullFloat64
	if err := row.Scan(&id, &dateTime, &temp, &hum, &gas, &lux, &press, &air); err != nil {
		return m, err
	}
	m.ID = id.Int64
	m.DateTime = dateTime.String
	m.Temp = temp.Float64
	m.Hum = hum.Float64
	m.GazPct = gas.Float64
	m.Lux = lux.Float64
	m.Press = press.Float64
	if air.Valid {
		m.AirPct = model.Float(air.Float64)
	}
	return m, nil
}

func collect(rows *sql.Rows) ([]model.Measurement, error) {
	defer rows.Close()
	out := []model.Measurement{}
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate measurements: %w", err)
	}
	return out, nil
}

// GetLatest returns the most recent measurement. An empty table yields an
// error wrapping sql.ErrNoRows.
func GetLatest(db *sql.DB) (model.Measurement, error) {
	m, err := scanMeasurement(db.QueryRow(`SELECT ` + selectColumns + ` FROM mesures ORDER BY date_time DESC LIMIT 1`))
	if err != nil {
		return m, fmt.Errorf("failed to get latest measurement: %w", err)
	}
	return m, nil
}

// GetBetween returns raw rows with start <= date_time <= end, oldest first.
func GetBetween(db *sql.DB, start, end string) ([]model.Measurement, error) {
	rows, err := db.Query(`SELECT `+selectColumns+` FROM mesures WHERE date_time BETWEEN ? AND ? ORDER BY date_time ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	return collect(rows)
}

// GetDailyAverages returns one row per calendar day in the range. date_time is
// the first sample of the day and metrics are averaged to one decimal.
func GetDailyAverages(db *sql.DB, start, end string) ([]model.Measurement, error) {
	rows, err := db.Query(`
		SELECT NULL,
			strftime('%Y-%m-%d %H:%M:%S', MIN(date_time)),
			ROUND(AVG(temp), 1), ROUND(AVG(hum), 1), ROUND(AVG(gaz_pct), 1),
			ROUND(AVG(lux), 1), ROUND(AVG(press), 1), ROUND(AVG(air_pct), 1)
		FROM mesures
		WHERE date_time BETWEEN ? AND ?
		GROUP BY substr(date_time, 1, 10)
		ORDER BY MIN(date_time) ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily averages: %w", err)
	}
	return collect(rows)
}

// GetRecent returns the newest limit rows in ascending order.
func GetRecent(db *sql.DB, limit int) ([]model.Measurement, error) {
	rows, err := db.Query(`SELECT * FROM (SELECT `+selectColumns+` FROM mesures ORDER BY date_time DESC LIMIT ?) ORDER BY 2 ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent measurements: %w", err)
	}
	return collect(rows)
}

// GetLimits returns the first and last timestamps, both nil on an empty table.
func GetLimits(db *sql.DB) (model.Limits, error) {
	var first, last sql.NullString
	err := db.QueryRow(`SELECT strftime('%Y-%m-%d %H:%M:%S', MIN(date_time)), strftime('%Y-%m-%d %H:%M:%S', MAX(date_time)) FROM mesures`).Scan(&first, &last)
	if err != nil {
		return model.Limits{}, fmt.Errorf("failed to query limits: %w", err)
	}
	var limits model.Limits
	if first.Valid {
		limits.FirstDate = &first.String
	}
	if last.Valid {
		limits.LastDate = &last.String
	}
	return limits, nil
}

func CountMeasurements(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM mesures`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count measurements: %w", err)
	}
	return n, nil
}
