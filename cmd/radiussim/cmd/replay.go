package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/roomradar/internal/core/viewport"
	"github.com/samirrijal/roomradar/internal/simulator"
)

var (
	replayCmd = &cobra.Command{
		Use:   "replay [trace.jsonl]",
		Short: "Replay a viewport trace and print emitted radii",
		Long: `Reads a JSON-lines trace from the given file, or stdin when the
argument is omitted or "-". Each line is one event:

  {"at_ms": 0, "type": "ready", "center": [106.70, 10.77], "zoom": 13}
  {"at_ms": 120, "type": "move", "center": [106.71, 10.78], "ne": [106.80, 10.87], "zoom": 12}
  {"at_ms": 900, "type": "origin", "center": [106.66, 10.76]}
  {"at_ms": 5000, "type": "close"}

An origin event without a center clears the search origin. Emissions are
printed one JSON object per line, followed by a summary unless --quiet.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReplay,
	}

	// Flags
	replayDebounce  time.Duration
	replayThreshold float64
	replayQuiet     bool
)

func init() {
	replayCmd.Flags().DurationVar(&replayDebounce, "debounce", viewport.DefaultDebounce, "quiet period before a radius is computed")
	replayCmd.Flags().Float64Var(&replayThreshold, "threshold", viewport.DefaultThreshold, "minimum relative radius change to emit")
	replayCmd.Flags().BoolVar(&replayQuiet, "quiet", false, "omit the summary line")
}

func runReplay(cmd *cobra.Command, args []string) error {
	if replayDebounce <= 0 {
		return fmt.Errorf("--debounce must be positive, got %s", replayDebounce)
	}
	if replayThreshold <= 0 || replayThreshold >= 1 {
		return fmt.Errorf("--threshold must be in (0, 1), got %g", replayThreshold)
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		defer f.Close()
		in = f
	}

	events, err := simulator.ParseTrace(in)
	if err != nil {
		return fmt.Errorf("parse trace: %w", err)
	}

	res := simulator.Replay(events, simulator.Options{
		Debounce:  replayDebounce,
		Threshold: replayThreshold,
		Logger:    newLogger(),
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, e := range res.Emissions {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	if replayQuiet {
		return nil
	}
	return enc.Encode(map[string]int{
		"events":    len(events),
		"emitted":   len(res.Emissions),
		"discarded": res.Discarded,
	})
}
