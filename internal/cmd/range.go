package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/vlist/internal/vscroll"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// measurement is a parsed --measure flag.
type measurement struct {
	Index  int
	Height float64
}

type placementResult struct {
	Index  int     `json:"index" yaml:"index"`
	Top    float64 `json:"top" yaml:"top"`
	Height float64 `json:"height" yaml:"height"`
}

type rangeResult struct {
	Start        int               `json:"start" yaml:"start"`
	End          int               `json:"end" yaml:"end"`
	ItemCount    int               `json:"item_count" yaml:"item_count"`
	TotalExtent  float64           `json:"total_extent" yaml:"total_extent"`
	ScrollOffset float64           `json:"scroll_offset" yaml:"scroll_offset"`
	Viewport     float64           `json:"viewport" yaml:"viewport"`
	Placements   []placementResult `json:"placements,omitempty" yaml:"placements,omitempty"`
}

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Compute the visible range for a viewport",
	Long: heredoc.Doc(`
		Build an engine over --items items, apply any --measure updates and
		print the range of items a viewport at --offset with extent --height
		has to render, along with where each of them is placed.
	`),
	Example: heredoc.Doc(`
		# 100 items estimated at 50px, viewport of 500px scrolled to 750px
		vlist range --items 100 --offset 750 --height 500

		# Item 3 turned out to be 120px tall
		vlist range --items 100 --measure 3=120 --format yaml
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupApp(cmd)
		if err != nil {
			return err
		}

		items, _ := cmd.Flags().GetInt("items")
		offset, _ := cmd.Flags().GetFloat64("offset")
		height, _ := cmd.Flags().GetFloat64("height")
		format, _ := cmd.Flags().GetString("format")
		rawMeasures, _ := cmd.Flags().GetStringArray("measure")

		if cmd.Flags().Changed("estimate") {
			cfg.Engine.EstimatedItemHeight, _ = cmd.Flags().GetFloat64("estimate")
		}
		if cmd.Flags().Changed("padding") {
			cfg.Engine.PaddingItemCount, _ = cmd.Flags().GetInt("padding")
		}

		measures, err := parseMeasurements(rawMeasures)
		if err != nil {
			return err
		}
		engine, err := cfg.NewEngine(items)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		result, err := computeRange(engine, offset, height, measures)
		if err != nil {
			return err
		}
		return formatRange(cmd.OutOrStdout(), result, format)
	},
}

func init() {
	rootCmd.AddCommand(rangeCmd)
	rangeCmd.Flags().IntP("items", "n", 100, "Number of items")
	rangeCmd.Flags().Float64P("offset", "o", 0, "Scroll offset")
	rangeCmd.Flags().Float64P("height", "H", 500, "Viewport extent")
	rangeCmd.Flags().Float64("estimate", 0, "Estimated item height (defaults to the configured one)")
	rangeCmd.Flags().Int("padding", 0, "Padding item count (defaults to the configured one)")
	rangeCmd.Flags().StringArrayP("measure", "m", nil, "Measured item height as index=height, repeatable")
	rangeCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
}

func parseMeasurements(raw []string) ([]measurement, error) {
	measures := make([]measurement, 0, len(raw))
	for _, r := range raw {
		index, height, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("invalid measurement %q: expected index=height", r)
		}
		i, err := strconv.Atoi(strings.TrimSpace(index))
		if err != nil {
			return nil, fmt.Errorf("invalid measurement index %q: %w", index, err)
		}
		h, err := strconv.ParseFloat(strings.TrimSpace(height), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid measurement height %q: %w", height, err)
		}
		measures = append(measures, measurement{Index: i, Height: h})
	}
	return measures, nil
}

// computeRange applies measures in order and reports the visible range for
// the viewport. The first rejected measurement aborts.
func computeRange(engine *vscroll.Engine, offset, viewport float64, measures []measurement) (rangeResult, error) {
	for _, m := range measures {
		if _, err := engine.UpdateItemHeight(m.Index, m.Height); err != nil {
			return rangeResult{}, fmt.Errorf("failed to apply measurement %d=%g: %w", m.Index, m.Height, err)
		}
	}

	r, placements := engine.VisibleLayout(offset, viewport)
	result := rangeResult{
		Start:        r.Start,
		End:          r.End,
		ItemCount:    engine.Len(),
		TotalExtent:  engine.TotalExtent(),
		ScrollOffset: offset,
		Viewport:     viewport,
	}
	for _, p := range placements {
		result.Placements = append(result.Placements, placementResult{
			Index:  p.Index,
			Top:    p.Top,
			Height: p.Height,
		})
	}
	return result, nil
}

func formatRange(w io.Writer, result rangeResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal range: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal range: %w", err)
		}
		_, err = fmt.Fprint(w, string(data))
		return err
	case "text":
		fmt.Fprintf(w, "Visible range %s of %d items (total extent %g)\n", vscroll.Range{Start: result.Start, End: result.End}, result.ItemCount, result.TotalExtent)
		for _, p := range result.Placements {
			fmt.Fprintf(w, "  %6d  top %-10g height %g\n", p.Index, p.Top, p.Height)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
