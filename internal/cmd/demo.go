package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/vlist/internal/config"
	"github.com/charmbracelet/vlist/internal/log"
	"github.com/charmbracelet/vlist/internal/tui/list"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Browse a long generated list interactively",
	Long: heredoc.Doc(`
		Start a terminal UI over generated items of varying height. Items are
		measured as they scroll into view. Editing the project config file
		while the demo runs applies the new list settings immediately.
	`),
	Example: heredoc.Doc(`
		# One hundred thousand items
		vlist demo --items 100000

		# Only items mentioning prefix sums
		vlist demo --filter "prefix sum"
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupApp(cmd)
		if err != nil {
			return err
		}
		if !term.IsTerminal(os.Stdout.Fd()) {
			return errors.New("demo needs a terminal, use vlist render instead")
		}

		n, _ := cmd.Flags().GetInt("items")
		seed, _ := cmd.Flags().GetUint64("seed")
		filter, _ := cmd.Flags().GetString("filter")
		extra, _ := cmd.Flags().GetString("config")

		items := filterItems(generateItems(n, seed), filter)
		reload := func() (*config.Config, error) {
			return config.Load(cfg.WorkingDir(), extra, cfg.Options.Debug)
		}
		model, err := newDemoModel(cfg, items, reload)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		program := tea.NewProgram(
			model,
			tea.WithAltScreen(),
			tea.WithContext(ctx),
			tea.WithMouseCellMotion(),
		)

		watched := watchedConfig(cfg.WorkingDir(), extra)
		go func() {
			err := config.Watch(ctx, watched, func() {
				program.Send(configReloadMsg{})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("Stopped watching config", "path", watched, "error", err)
			}
		}()

		defer log.RecoverPanic("demo", cancel)
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run demo: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().IntP("items", "n", 10_000, "Number of generated items")
	demoCmd.Flags().Uint64("seed", 1, "Seed for the generated items")
	demoCmd.Flags().String("filter", "", "Fuzzy filter applied to the items")
}

// watchedConfig returns the file whose changes reload the demo: the explicit
// config file if given, else the first project config that exists, else the
// default project config path so that creating it is noticed.
func watchedConfig(workingDir, extra string) string {
	if extra != "" {
		return extra
	}
	paths := config.ProjectConfigs(workingDir)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return paths[0]
}

type configReloadMsg struct{}

type demoKeyMap struct {
	Quit key.Binding
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(charmtone.Smoke)
	errorStyle  = lipgloss.NewStyle().Foreground(charmtone.Sriracha)
)

type demoModel struct {
	items  []demoItem
	list   *list.List[demoItem]
	reload func() (*config.Config, error)

	keyMap demoKeyMap
	help   help.Model

	width, height int
	err           error
}

func newDemoModel(cfg *config.Config, items []demoItem, reload func() (*config.Config, error)) (*demoModel, error) {
	l, err := list.New(items, cfg.ListOptions()...)
	if err != nil {
		return nil, err
	}
	return &demoModel{
		items:  items,
		list:   l,
		reload: reload,
		keyMap: demoKeyMap{
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
		help: help.New(),
	}, nil
}

func (m *demoModel) Init() tea.Cmd {
	return m.list.Init()
}

func (m *demoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.width, m.listHeight())
		return m, nil
	case configReloadMsg:
		m.applyConfig()
		return m, nil
	case tea.KeyPressMsg:
		if key.Matches(msg, m.keyMap.Quit) {
			return m, tea.Quit
		}
	}
	_, cmd := m.list.Update(msg)
	return m, cmd
}

// applyConfig rebuilds the list with freshly loaded settings, keeping the
// selected item.
func (m *demoModel) applyConfig() {
	cfg, err := m.reload()
	if err != nil {
		slog.Warn("Failed to reload config", "error", err)
		m.err = err
		return
	}
	l, err := list.New(m.items, append(cfg.ListOptions(), list.WithSize(m.width, m.listHeight()))...)
	if err != nil {
		m.err = err
		return
	}
	if selected, ok := m.list.SelectedItem(); ok {
		l.SetSelected(selected.ID())
	}
	m.list = l
	m.err = nil
	slog.Info("Applied config change")
}

func (m *demoModel) listHeight() int {
	return max(m.height-1, 0)
}

func (m *demoModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), m.statusView())
}

func (m *demoModel) statusView() string {
	if m.err != nil {
		return ansi.Truncate(errorStyle.Render(m.err.Error()), m.width, "…")
	}
	position := fmt.Sprintf("%d/%d", m.list.SelectedIndex()+1, len(m.items))
	rows := fmt.Sprintf("rows %d-%d of %d", m.list.Offset(), m.list.Offset()+m.listHeight(), m.list.TotalHeight())
	bindings := append(m.list.KeyMap().KeyBindings()[:4], m.keyMap.Quit)
	status := strings.Join([]string{
		statusStyle.Render(position),
		statusStyle.Render(rows),
		statusStyle.Render(m.list.VisibleRange().String()),
		m.help.ShortHelpView(bindings),
	}, "  ")
	return ansi.Truncate(status, m.width, "…")
}
