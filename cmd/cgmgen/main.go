package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"cgm-mcp/cmd/cgmgen/engine"
)

func main() {
	scenario := flag.String("scenario", "stable", "Scenario to generate: stable, variable, hypo")
	outDir := flag.String("out", "./cache", "Cache directory of the event log")
	source := flag.String("source", "", "Source ID to write (default CGMTEST_<scenario>)")
	days := flag.Int("days", 14, "Number of days to generate")
	interval := flag.Duration("interval", 5*time.Minute, "Sensor sampling interval")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Days:     *days,
		Interval: *interval,
		Seed:     *seed,
		Now:      time.Now(),
	}

	sourceID := *source
	if sourceID == "" {
		sourceID = "CGMTEST_" + cfg.Scenario
	}

	fmt.Printf("Generating scenario '%s' (%d days, every %s) to %s...\n", cfg.Scenario, cfg.Days, cfg.Interval, *outDir)

	events, err := engine.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate mock data: %v\n", err)
		os.Exit(1)
	}

	n, err := engine.Save(*outDir, sourceID, events)
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. Wrote %d events for source %s.\n", n, sourceID)
}
