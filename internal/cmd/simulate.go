package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/vlist/internal/log"
	"github.com/charmbracelet/vlist/internal/scheduler"
	"github.com/charmbracelet/vlist/internal/vscroll"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type simulateOptions struct {
	Duration  time.Duration
	Interval  time.Duration
	Producers int
	Viewport  float64
	Seed      uint64
}

type simulateStats struct {
	Frames       uint64        `json:"frames"`
	Scrolls      uint64        `json:"scrolls"`
	Measurements uint64        `json:"measurements"`
	Rejected     uint64        `json:"rejected"`
	LastRange    string        `json:"last_range"`
	TotalExtent  float64       `json:"total_extent"`
	ScrollOffset float64       `json:"scroll_offset"`
	Elapsed      time.Duration `json:"elapsed"`
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive the frame scheduler with synthetic traffic",
	Long: heredoc.Doc(`
		Run the frame scheduler against concurrent producers that scroll the
		viewport and report item heights, the way a busy UI would, and print
		how many frames were produced.
	`),
	Example: heredoc.Doc(`
		# One million items, eight producers, ten seconds
		vlist simulate --items 1000000 --producers 8 --duration 10s
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupApp(cmd)
		if err != nil {
			return err
		}
		items, _ := cmd.Flags().GetInt("items")
		duration, _ := cmd.Flags().GetDuration("duration")
		producers, _ := cmd.Flags().GetInt("producers")
		viewport, _ := cmd.Flags().GetFloat64("height")
		seed, _ := cmd.Flags().GetUint64("seed")
		asJSON, _ := cmd.Flags().GetBool("json")

		engine, err := cfg.NewEngine(items)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}

		logger := log.NewConsole(cmd.ErrOrStderr(), cfg.Options.Debug)
		logger.Debug("Starting simulation", "items", items, "producers", producers, "duration", duration)

		stats, err := simulate(cmd.Context(), engine, simulateOptions{
			Duration:  duration,
			Interval:  cfg.Scheduler.FrameInterval(),
			Producers: producers,
			Viewport:  viewport,
			Seed:      seed,
		})
		if err != nil {
			return err
		}
		logger.Info("Simulation finished", "frames", stats.Frames, "rejected", stats.Rejected)
		return printStats(cmd.OutOrStdout(), stats, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntP("items", "n", 100_000, "Number of items")
	simulateCmd.Flags().Duration("duration", 3*time.Second, "How long to run")
	simulateCmd.Flags().IntP("producers", "p", 4, "Concurrent measurement producers")
	simulateCmd.Flags().Float64P("height", "H", 800, "Viewport extent")
	simulateCmd.Flags().Uint64("seed", 1, "Random seed")
	simulateCmd.Flags().Bool("json", false, "Print statistics as JSON")
}

// simulate runs a scheduler over engine with one scrolling producer and
// opts.Producers measuring producers until opts.Duration elapses or ctx is
// done.
func simulate(ctx context.Context, engine *vscroll.Engine, opts simulateOptions) (simulateStats, error) {
	var stats simulateStats
	var frames, scrolls, measurements, rejected atomic.Uint64

	s := scheduler.New(engine,
		scheduler.WithInterval(opts.Interval),
		scheduler.WithClampOffset(),
		scheduler.WithOnFrame(func(scheduler.Frame) {
			frames.Add(1)
		}),
		scheduler.WithOnError(func(error) {
			rejected.Add(1)
		}),
	)
	s.Resize(opts.Viewport)

	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(ctx)
	})
	g.Go(func() error {
		rng := rand.New(rand.NewPCG(opts.Seed, 0))
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.ScrollBy(rng.Float64()*2*opts.Viewport - opts.Viewport/2)
				scrolls.Add(1)
			}
		}
	})
	for p := range opts.Producers {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(opts.Seed, uint64(p)+1))
			ticker := time.NewTicker(time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					frame, ok := s.Last()
					if !ok || frame.Range.Empty() {
						continue
					}
					index := frame.Range.Start + rng.IntN(frame.Range.Len())
					s.Measure(index, float64(20+rng.IntN(200)))
					measurements.Add(1)
				}
			}
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return stats, err
	}

	// Apply whatever arrived after the last tick.
	s.Flush()
	last, _ := s.Last()

	stats.Frames = frames.Load()
	stats.Scrolls = scrolls.Load()
	stats.Measurements = measurements.Load()
	stats.Rejected = rejected.Load()
	stats.LastRange = last.Range.String()
	stats.TotalExtent = last.TotalExtent
	stats.ScrollOffset = last.ScrollOffset
	stats.Elapsed = time.Since(start).Round(time.Millisecond)
	slog.Debug("Simulation done", "frames", stats.Frames, "measurements", stats.Measurements)
	return stats, nil
}

func printStats(w io.Writer, stats simulateStats, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal statistics: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	fmt.Fprintf(w, "Elapsed:      %s\n", stats.Elapsed)
	fmt.Fprintf(w, "Frames:       %d\n", stats.Frames)
	fmt.Fprintf(w, "Scrolls:      %d\n", stats.Scrolls)
	fmt.Fprintf(w, "Measurements: %d (%d rejected)\n", stats.Measurements, stats.Rejected)
	fmt.Fprintf(w, "Last range:   %s\n", stats.LastRange)
	fmt.Fprintf(w, "Total extent: %g\n", stats.TotalExtent)
	return nil
}
