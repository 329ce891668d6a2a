package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/thatsimonsguy/greensat/db"
	"github.com/thatsimonsguy/greensat/internal/logging"
	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/timerange"
	"github.com/thatsimonsguy/greensat/system/startup"
)

func main() {
	logging.Init(zerolog.InfoLevel, "")
	DebugCLI()
}

type options struct {
	dbPath     string
	days       int
	reading    model.Measurement
	mode       string
	date       string
	start      string
	end        string
	out        string
	unitPath   string
	user       string
	configFile string
}

var errUnknownCommand = errors.New("invalid command")

// commands maps each -cmd value to its handler.
var commands = map[string]func(o options) error{
	"seed": func(o options) error {
		return db.SeedDatabase(o.dbPath, o.days)
	},
	"insert": func(o options) error {
		id, err := db.InsertCLI(o.dbPath, o.reading)
		if err == nil {
			fmt.Printf("Inserted measurement %d\n", id)
		}
		return err
	},
	"limits": func(o options) error {
		return printLimits(o.dbPath)
	},
	"range": func(o options) error {
		return printRange(o.dbPath, o.mode, o.date)
	},
	"export": func(o options) error {
		if o.start == "" || o.end == "" {
			return errors.New("-start and -end are required")
		}
		n, err := db.ExportCLI(o.dbPath, o.start, o.end, o.out)
		if err == nil {
			fmt.Printf("Exported %d measurements to %s\n", n, o.out)
		}
		return err
	},
	"install-service": func(o options) error {
		return installService(o.unitPath, o.user, o.configFile)
	},
}

func run(command string, o options) error {
	handler, ok := commands[command]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownCommand, command)
	}
	return handler(o)
}

func DebugCLI() {
	var o options
	var command string
	flag.StringVar(&o.dbPath, "db", "greensat.db", "Path to the SQLite database file")
	flag.StringVar(&command, "cmd", "", "Command to run: seed, insert, limits, range, export, install-service")
	flag.IntVar(&o.days, "days", 730, "Days of synthetic history for seed")
	flag.Float64Var(&o.reading.Temp, "temp", 0, "Temperature for insert")
	flag.Float64Var(&o.reading.Hum, "hum", 0, "Humidity for insert")
	flag.Float64Var(&o.reading.GazPct, "gas", 0, "Gas percentage for insert")
	flag.Float64Var(&o.reading.Lux, "lux", 0, "Light level for insert")
	flag.Float64Var(&o.reading.Press, "press", 0, "Pressure for insert")
	flag.StringVar(&o.mode, "mode", "day", "View mode for range: day, week, month, year")
	flag.StringVar(&o.date, "date", "", "Reference date for range (YYYY-MM-DD, default today)")
	flag.StringVar(&o.start, "start", "", "Export start (YYYY-MM-DD HH:MM:SS)")
	flag.StringVar(&o.end, "end", "", "Export end (YYYY-MM-DD HH:MM:SS)")
	flag.StringVar(&o.out, "out", "greensat.parquet", "Output file for export")
	flag.StringVar(&o.unitPath, "unit", "/etc/systemd/system/greensat.service", "Unit file path for install-service")
	flag.StringVar(&o.user, "user", "greensat", "Service user for install-service")
	flag.StringVar(&o.configFile, "config-file", "greensat.yaml", "Config file the service is started with")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of greensat-debug:")
		fmt.Println("  -db string\tPath to the SQLite database file (default 'greensat.db')")
		fmt.Println("  -cmd string\tCommand to run: seed, insert, limits, range, export, install-service")
		fmt.Println("  -days int\tDays of synthetic history for seed (default 730)")
		fmt.Println("  -temp/-hum/-gas/-lux/-press float\tReading values for insert")
		fmt.Println("  -mode string\tView mode for range (default 'day')")
		fmt.Println("  -date string\tReference date for range (YYYY-MM-DD)")
		fmt.Println("  -start/-end string\tExport bounds (YYYY-MM-DD HH:MM:SS)")
		fmt.Println("  -out string\tOutput file for export")
		fmt.Println("  -unit/-user/-config-file string\tinstall-service options")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	if err := run(command, o); err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}

func printLimits(dbPath string) error {
	limits, n, err := db.LimitsCLI(dbPath)
	if err != nil {
		return err
	}
	fmt.Printf("measurements: %d\n", n)
	fmt.Printf("first_date:   %s\n", orNull(limits.FirstDate))
	fmt.Printf("last_date:    %s\n", orNull(limits.LastDate))
	return nil
}

// printRange shows what the console would request for mode and date, with the
// navigation hints computed against the database's first record.
func printRange(dbPath, modeArg, dateArg string) error {
	mode, err := timerange.ParseViewMode(modeArg)
	if err != nil {
		return err
	}
	now := time.Now()
	ref := now
	if dateArg != "" {
		ref, err = time.ParseInLocation("2006-01-02", dateArg, time.Local)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", dateArg, err)
		}
	}
	r := timerange.Compute(mode, ref, now)

	boundary := timerange.Boundary{}
	if limits, _, err := db.LimitsCLI(dbPath); err == nil && limits.FirstDate != nil {
		if first, err := timerange.ParseTimestamp(*limits.FirstDate, time.Local); err == nil {
			boundary = timerange.KnownBoundary(first)
		}
	}

	fmt.Printf("label:    %s\n", r.Label)
	fmt.Printf("start:    %s\n", r.StartWire())
	fmt.Printf("end:      %s\n", r.EndWire())
	fmt.Printf("backward: %t\n", timerange.CanGoBackward(r, boundary))
	fmt.Printf("forward:  %t\n", timerange.CanGoForward(r, now))
	return nil
}

func installService(unitPath, user, configFile string) error {
	bin, err := os.Executable()
	if err != nil {
		return err
	}
	dir := filepath.Dir(bin)
	u := startup.Unit{
		User:       user,
		WorkDir:    dir,
		Binary:     filepath.Join(dir, "greensat-server"),
		ConfigFile: configFile,
	}
	if err := startup.InstallService(unitPath, u); err != nil {
		return err
	}
	fmt.Printf("Wrote %s; run: systemctl daemon-reload && systemctl enable --now greensat\n", unitPath)
	return nil
}

func orNull(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}
