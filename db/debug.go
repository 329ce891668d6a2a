package db

import (
	"fmt"
	"time"

	"github.com/thatsimonsguy/greensat/internal/model"
)

func InsertCLI(dbPath string, m model.Measurement) (int64, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	if m.DateTime == "" {
		m.DateTime = time.Now().Format(wireLayout)
	}
	return InsertMeasurement(conn, m)
}

func LimitsCLI(dbPath string) (model.Limits, int, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return model.Limits{}, 0, err
	}
	defer conn.Close()
	limits, err := GetLimits(conn)
	if err != nil {
		return limits, 0, err
	}
	n, err := CountMeasurements(conn)
	return limits, n, err
}

func ExportCLI(dbPath, start, end, out string) (int, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	n, err := ExportParquet(conn, start, end, out)
	if err != nil {
		return 0, fmt.Errorf("export %s..%s: %w", start, end, err)
	}
	return n, nil
}
