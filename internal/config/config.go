package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/vlist/internal/scheduler"
	"github.com/charmbracelet/vlist/internal/tui/list"
	"github.com/charmbracelet/vlist/internal/vscroll"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	appName              = "vlist"
	defaultDataDirectory = ".vlist"
)

type EngineOptions struct {
	EstimatedItemHeight float64 `json:"estimated_item_height,omitempty" jsonschema:"description=Height assumed for items that have not been measured yet,exclusiveMinimum=0,default=50"`
	PaddingItemCount    int     `json:"padding_item_count" jsonschema:"description=Extra items rendered beyond each edge of the viewport,minimum=0,default=5"`
}

type SchedulerOptions struct {
	FrameIntervalMS int `json:"frame_interval_ms,omitempty" jsonschema:"description=How often pending scroll and measurement events are applied,minimum=1,default=16"`
}

func (s *SchedulerOptions) FrameInterval() time.Duration {
	return time.Duration(s.FrameIntervalMS) * time.Millisecond
}

type TUIOptions struct {
	EstimatedItemRows int  `json:"estimated_item_rows,omitempty" jsonschema:"description=Rows assumed for list items that have not been rendered yet,minimum=1,default=3"`
	Gap               int  `json:"gap,omitempty" jsonschema:"description=Blank lines between items,minimum=0"`
	Wrap              bool `json:"wrap,omitempty" jsonschema:"description=Wrap selection from the last item to the first"`
	EnableMouse       bool `json:"enable_mouse,omitempty" jsonschema:"description=Scroll with the mouse wheel"`
}

type Options struct {
	TUI           *TUIOptions `json:"tui,omitempty"`
	Debug         bool        `json:"debug,omitempty" jsonschema:"description=Enable debug logging"`
	DataDirectory string      `json:"data_directory,omitempty" jsonschema:"description=Directory for logs and state; relative to the working directory,default=.vlist"` // Relative to the cwd
}

// Config holds the configuration for vlist.
type Config struct {
	Engine *EngineOptions `json:"engine,omitempty" jsonschema:"description=Virtual scroll engine sizing"`

	Scheduler *SchedulerOptions `json:"scheduler,omitempty" jsonschema:"description=Frame scheduler settings"`

	Options *Options `json:"options,omitempty"`

	// Internal
	workingDir    string `json:"-"`
	dataConfigDir string `json:"-"`
}

func defaultConfig() *Config {
	return &Config{
		Engine: &EngineOptions{
			EstimatedItemHeight: vscroll.DefaultEstimatedItemHeight,
			PaddingItemCount:    vscroll.DefaultPaddingItemCount,
		},
		Scheduler: &SchedulerOptions{
			FrameIntervalMS: int(scheduler.DefaultInterval / time.Millisecond),
		},
		Options: &Options{
			TUI:           &TUIOptions{EstimatedItemRows: list.DefaultEstimatedItemRows},
			DataDirectory: defaultDataDirectory,
		},
	}
}

func (c *Config) WorkingDir() string {
	return c.workingDir
}

// LogFile is where Setup should write logs.
func (c *Config) LogFile() string {
	dir := c.Options.DataDirectory
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.workingDir, dir)
	}
	return filepath.Join(dir, "logs", appName+".log")
}

var (
	ErrInvalidEngine    = errors.New("invalid engine options")
	ErrInvalidScheduler = errors.New("invalid scheduler options")
)

func (c *Config) Validate() error {
	if c.Engine == nil || c.Scheduler == nil || c.Options == nil {
		return fmt.Errorf("config not loaded")
	}
	h := c.Engine.EstimatedItemHeight
	if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return fmt.Errorf("%w: estimated_item_height must be positive, got %v", ErrInvalidEngine, h)
	}
	if c.Engine.PaddingItemCount < 0 {
		return fmt.Errorf("%w: padding_item_count must not be negative, got %d", ErrInvalidEngine, c.Engine.PaddingItemCount)
	}
	if c.Scheduler.FrameIntervalMS <= 0 {
		return fmt.Errorf("%w: frame_interval_ms must be positive, got %d", ErrInvalidScheduler, c.Scheduler.FrameIntervalMS)
	}
	if c.Options.TUI == nil {
		c.Options.TUI = &TUIOptions{EstimatedItemRows: list.DefaultEstimatedItemRows}
	}
	if c.Options.TUI.Gap < 0 {
		return fmt.Errorf("tui.gap must not be negative, got %d", c.Options.TUI.Gap)
	}
	if c.Options.TUI.EstimatedItemRows <= 0 {
		return fmt.Errorf("tui.estimated_item_rows must be positive, got %d", c.Options.TUI.EstimatedItemRows)
	}
	return nil
}

// NewEngine builds an engine for itemCount items sized by the config.
func (c *Config) NewEngine(itemCount int) (*vscroll.Engine, error) {
	return vscroll.New(itemCount, c.Engine.EstimatedItemHeight, c.Engine.PaddingItemCount)
}

// ListOptions returns the list component options for the config.
func (c *Config) ListOptions() []list.ListOption {
	opts := []list.ListOption{
		list.WithEstimatedItemRows(float64(c.Options.TUI.EstimatedItemRows)),
		list.WithPaddingItemCount(c.Engine.PaddingItemCount),
		list.WithGap(c.Options.TUI.Gap),
	}
	if c.Options.TUI.Wrap {
		opts = append(opts, list.WithWrapNavigation())
	}
	if c.Options.TUI.EnableMouse {
		opts = append(opts, list.WithEnableMouse())
	}
	return opts
}

// Get returns the value at a dotted key path of the effective config.
func (c *Config) Get(key string) (string, bool, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal config: %w", err)
	}
	result := gjson.GetBytes(data, key)
	if !result.Exists() {
		return "", false, nil
	}
	return result.String(), true, nil
}

// SetConfigField persists a single value into the data config file.
func (c *Config) SetConfigField(key string, value any) error {
	// read the data
	data, err := os.ReadFile(c.dataConfigDir)
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte("{}")
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	newValue, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("failed to set config field %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(c.dataConfigDir), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.dataConfigDir, []byte(newValue), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DataConfigPath is the file SetConfigField writes to.
func (c *Config) DataConfigPath() string {
	return c.dataConfigDir
}
