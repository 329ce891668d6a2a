package db

import (
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/greensat/internal/model"
)

const wireLayout = "2006-01-02 15:04:05"

// Synthesize produces hourly demo data covering the days before end: a
// seasonal and diurnal temperature cycle, daylight-shaped lux, humidity moving
// against temperature, a bounded pressure random walk and gas with rare spikes.
func Synthesize(days int, end time.Time, rng *rand.Rand) []model.Measurement {
	start := end.Truncate(time.Hour).AddDate(0, 0, -days)
	out := make([]model.Measurement, 0, days*24)
	press := 1013.0

	for t := start; !t.After(end); t = t.Add(time.Hour) {
		hour := float64(t.Hour())
		season := -math.Cos(float64(t.YearDay()-20)/365*2*math.Pi) * 10
		daily := -math.Cos((hour-4)/24*2*math.Pi) * 5
		temp := 15 + season + daily + uniform(rng, -2, 2)

		lux := 0.0
		if t.Hour() >= 6 && t.Hour() <= 21 {
			lux = math.Max(0, 1000*math.Sin((hour-6)/15*math.Pi)+uniform(rng, -100, 100))
			if season < 0 {
				lux *= 0.6
			}
		}

		hum := clamp(60-2*daily+uniform(rng, -10, 10), 20, 100)
		press = clamp(press+uniform(rng, -0.5, 0.5), 980, 1040)

		gas := uniform(rng, 2, 8)
		if rng.Float64() < 0.01 {
			gas += uniform(rng, 10, 25)
		}
		gas = round(gas, 2)

		out = append(out, model.Measurement{
			DateTime: t.Format(wireLayout),
			Temp:     round(temp, 1),
			Hum:      math.Round(hum),
			GazPct:   gas,
			Lux:      math.Round(lux),
			Press:    round(press, 1),
			AirPct:   model.Float(round(100-gas, 1)),
		})
	}
	return out
}

// SeedDatabase writes synthetic history into the database at dbPath.
func SeedDatabase(dbPath string, days int) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	n, err := seed(conn, days, time.Now(), rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return err
	}
	log.Info().Str("db", dbPath).Int("rows", n).Int("days", days).Msg("Database seeded")
	return nil
}

func seed(conn *sql.DB, days int, end time.Time, rng *rand.Rand) (int, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be positive, got %d", days)
	}
	records := Synthesize(days, end, rng)
	if err := InsertMeasurements(conn, records); err != nil {
		return 0, fmt.Errorf("failed to seed database: %w", err)
	}
	return len(records), nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
