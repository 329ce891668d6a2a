package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/thatsimonsguy/greensat/internal/model"
)

// MeasurementRecord is the parquet schema for exported measurements.
type MeasurementRecord struct {
	DateTime string   `parquet:"date_time"`
	Temp     float64  `parquet:"temp"`
	Hum      float64  `parquet:"hum"`
	GazPct   float64  `parquet:"gaz_pct"`
	Lux      float64  `parquet:"lux"`
	Press    float64  `parquet:"press"`
	AirPct   *float64 `parquet:"air_pct,optional"`
}

func toRecords(ms []model.Measurement) []MeasurementRecord {
	out := make([]MeasurementRecord, len(ms))
	for i, m := range ms {
		out[i] = MeasurementRecord{
			DateTime: m.DateTime,
			Temp:     m.Temp,
			Hum:      m.Hum,
			GazPct:   m.GazPct,
			Lux:      m.Lux,
			Press:    m.Press,
			AirPct:   m.AirPct,
		}
	}
	return out
}

// ExportParquet writes every row in [start, end] to path and returns the row count.
func ExportParquet(db *sql.DB, start, end, path string) (int, error) {
	ms, err := GetBetween(db, start, end)
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create export dir: %w", err)
		}
	}
	if err := parquet.WriteFile(path, toRecords(ms)); err != nil {
		return 0, fmt.Errorf("failed to write parquet: %w", err)
	}
	return len(ms), nil
}

// ReadParquet loads an export back, mainly for verification.
func ReadParquet(path string) ([]MeasurementRecord, error) {
	rows, err := parquet.ReadFile[MeasurementRecord](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet: %w", err)
	}
	return rows, nil
}
