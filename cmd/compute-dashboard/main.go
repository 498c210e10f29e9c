// Command compute-dashboard recomputes (or shows) the sleep dashboard of one device.
//
//	compute-dashboard -device 9 -days 30
//	compute-dashboard -device 9 -view
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"wisefido-sleep-dashboard/common/database"
	logpkg "wisefido-sleep-dashboard/common/logger"
	"wisefido-sleep-dashboard/internal/config"
	"wisefido-sleep-dashboard/internal/domain"
	"wisefido-sleep-dashboard/internal/repository"
	"wisefido-sleep-dashboard/internal/service"

	"go.uber.org/zap"
)

func main() {
	deviceID := flag.Int64("device", 9, "Device ID")
	days := flag.Int("days", 0, "Lookback window in days (default: DASHBOARD_WINDOW_DAYS)")
	view := flag.Bool("view", false, "Show the stored dashboard instead of recomputing it")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// CLI output goes to stdout, keep the logger quiet unless asked
	level := cfg.Log.Level
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	log, err := logpkg.NewLogger(level, "console", "compute-dashboard")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Cannot connect to database", zap.String("dsn", cfg.Database.GetDSNForLog()), zap.Error(err))
	}
	defer database.Close(db)

	devices := repository.NewPostgresDeviceRepository(db, log)
	occupancy := repository.NewPostgresOccupancyRepository(db, log)
	dashboards := repository.NewPostgresDashboardRepository(db, log)
	svc := service.NewDashboardService(devices, occupancy, dashboards, nil, service.DashboardOptions{
		WindowDays: cfg.Dashboard.WindowDays,
		Location:   cfg.Dashboard.Location,
	}, log)

	device, err := devices.GetDevice(ctx, *deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			fmt.Printf("Device %d not found\n", *deviceID)
			os.Exit(1)
		}
		log.Fatal("Failed to load device", zap.Error(err))
	}
	fmt.Printf("Device: %s (ID: %d)\n", displayName(device), device.ID)

	if *view {
		if occupied, err := occupancy.GetCurrentOccupancy(ctx, device.ID); err != nil {
			log.Error("Failed to read current occupancy", zap.Error(err))
		} else {
			fmt.Printf("Current status: %s\n", occupancyLabel(occupied))
		}

		snapshot, err := svc.GetSnapshot(ctx, device.ID)
		if err != nil {
			if errors.Is(err, repository.ErrSnapshotNotFound) {
				fmt.Println("No dashboard computed yet for this device")
				return
			}
			log.Fatal("Failed to load dashboard", zap.Error(err))
		}
		printSnapshot(snapshot, cfg.Dashboard.Location)
		return
	}

	window := *days
	if window <= 0 {
		window = cfg.Dashboard.WindowDays
	}
	fmt.Printf("Calculating dashboard over the last %d days...\n", window)

	snapshot, err := svc.ComputeAndStore(ctx, device.ID, window)
	if err != nil {
		log.Fatal("Failed to compute dashboard", zap.Error(err))
	}
	if snapshot == nil {
		fmt.Println("No sleep sessions detected")
		fmt.Println("Raw occupancy readings need to show occupied/vacant patterns lasting at least one hour")
		return
	}

	printSnapshot(snapshot, cfg.Dashboard.Location)
	fmt.Println("Dashboard updated successfully")
}

func displayName(d *domain.Device) string {
	if d.Name == "" {
		return "unnamed"
	}
	return d.Name
}

func occupancyLabel(occupied *bool) string {
	switch {
	case occupied == nil:
		return "no readings"
	case *occupied:
		return "in bed"
	default:
		return "out of bed"
	}
}

func printSnapshot(s *domain.DashboardSnapshot, loc *time.Location) {
	rule := strings.Repeat("=", 60)

	fmt.Println(rule)
	fmt.Println("Metrics")
	fmt.Println(rule)
	fmt.Printf("  Sleep Consistency Score:   %.2f/100\n", s.SleepConsistency)
	fmt.Printf("  Bedtime Consistency Score: %.2f/100\n", s.BedtimeConsistency)
	fmt.Printf("  Bed Use:                   %.2f%%\n", s.BedUse)
	fmt.Printf("  Daily Occupancy:           %.2f hours/day\n", s.DailyOccupancy)
	fmt.Printf("  Total Interruptions:       %d\n", s.TotalIntervals)
	fmt.Printf("  Total Nights:              %d\n", s.TotalNights)
	fmt.Printf("  Average Sleep:             %.2f hours/night\n", s.AvgSleepPerNight)

	fmt.Println(rule)
	fmt.Println("Suggestions")
	fmt.Println(rule)
	fmt.Printf("  Awakening:\n     %s\n", s.SuggestionAwakening)
	fmt.Printf("  Average Sleep:\n     %s\n", s.SuggestionAvgSleep)
	fmt.Printf("  Consistency:\n     %s\n", s.SuggestionConsistency)
	fmt.Printf("  Bed Use:\n     %s\n", s.SuggestionBedUse)

	fmt.Println(rule)
	fmt.Printf("Last updated: %s\n", s.UpdatedAt.In(loc).Format(time.RFC3339))
}
