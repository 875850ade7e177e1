package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/repcount/internal/config"
	"github.com/claude/repcount/internal/engine"
	"github.com/claude/repcount/internal/replay"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	input := flag.String("input", "", "path to JSONL frame log")
	report := flag.String("report", "", "write an HTML report to this path")
	configPath := flag.String("config", "", "optional config file for engine tuning")
	list := flag.Int("list", 0, "list the last N logged runs for this input and exit")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcount-replay", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *input == "" {
		fmt.Fprintf(os.Stderr, "Usage: repcount-replay -input <frames.jsonl> [-report out.html] [-config config.yaml] [-list N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Results log lives next to the user's other local state.
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	results, err := replay.OpenResultsDB(filepath.Join(homeDir, ".repcount-replay"))
	if err != nil {
		log.Error("failed to open results database", "error", err)
		os.Exit(1)
	}
	defer results.Close()

	source := filepath.Base(*input)

	if *list > 0 {
		runs, err := results.ListRuns(source, *list)
		if err != nil {
			log.Error("listing runs failed", "error", err)
			os.Exit(1)
		}
		for _, r := range runs {
			fmt.Printf("#%d  %s  frames=%d reps=%d duration=%.1fs cadence=%.1f\n",
				r.ID, r.RunAt.Format(time.RFC3339), r.Frames, r.RepCount, r.DurationSec, r.CadenceRPM)
		}
		return
	}

	tuning := engine.DefaultTuning()
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		tuning = cfg.Engine.Tuning()
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Error("failed to open frame log", "path", *input, "error", err)
		os.Exit(1)
	}
	frames, err := replay.ReadFrames(f)
	f.Close()
	if err != nil {
		log.Error("failed to read frame log", "error", err)
		os.Exit(1)
	}
	log.Info("frame log loaded", "path", *input, "frames", len(frames))

	res := replay.Run(frames, tuning, time.Now())

	runID, err := results.RecordRun(source, res)
	if err != nil {
		log.Warn("failed to record run", "error", err)
	}

	fmt.Println()
	fmt.Println("=== Replay Summary ===")
	fmt.Printf("  Frames:     %d\n", res.Frames)
	fmt.Printf("  Reps:       %d\n", res.Summary.RepCount)
	fmt.Printf("  Duration:   %.1fs\n", res.Summary.Duration.Seconds())
	fmt.Printf("  Cadence:    %.1f reps/min\n", res.Summary.CadenceRPM)
	fmt.Printf("  Interval:   %.2fs mean, %.2fs stddev\n",
		res.Summary.MeanRepIntervalSec, res.Summary.RepIntervalStddevSec)
	if runID > 0 {
		fmt.Printf("  Logged as:  run #%d\n", runID)
	}
	fmt.Println()

	if *report != "" {
		out, err := os.Create(*report)
		if err != nil {
			log.Error("failed to create report file", "path", *report, "error", err)
			os.Exit(1)
		}
		defer out.Close()
		if err := replay.WriteReport(out, source, res); err != nil {
			log.Error("failed to render report", "error", err)
			os.Exit(1)
		}
		log.Info("report written", "path", *report)
	}
}
