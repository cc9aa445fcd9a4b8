package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"typeahead/internal/config"
	"typeahead/internal/logger"
	"typeahead/internal/source"
	"typeahead/internal/tui"
)

// ErrCancelled is returned when the picker was closed without a selection
var ErrCancelled = errors.New("no item selected")

type options struct {
	configPath  string
	minInput    int
	minItems    int
	selectOnTab bool
	tokenized   bool
	defaultItem string
	field       string
	theme       string
	maxVisible  int
	format      string
	watch       bool
	logFile     string
	logLevel    int8
	prompt      string
	placeholder string
}

// runProgram runs the picker; tests replace it
var runProgram = func(ctx context.Context, model tea.Model, ttyInput bool) (tea.Model, error) {
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithOutput(os.Stderr),
	}
	if ttyInput {
		opts = append(opts, tea.WithInputTTY())
	}
	return tea.NewProgram(model, opts...).Run()
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	return rootCmd(&options{})
}

func rootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "typeahead [file]",
		Short: "Pick an item from a list with an autocomplete prompt",
		Long: `typeahead reads candidate items from a file (or stdin) and opens an
autocomplete prompt. The selected item is printed to stdout.

Items are plain text (one per line), JSON lines or a YAML sequence.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	f := root.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default: typeahead.yaml, ~/.config/typeahead/config.yaml)")
	f.IntVar(&opts.minInput, "min-input", 2, "characters needed before suggestions open")
	f.IntVar(&opts.minItems, "min-items", 0, "suggestion count that must be exceeded to open")
	f.BoolVar(&opts.selectOnTab, "select-on-tab", true, "tab selects the highlighted item")
	f.BoolVar(&opts.tokenized, "tokenized", false, "match any whitespace-separated word of the query")
	f.StringVar(&opts.defaultItem, "default", "", "item preselected when the prompt opens")
	f.StringVar(&opts.field, "field", "name", "field shown for JSON and YAML items")
	f.StringVar(&opts.theme, "theme", "mocha", "catppuccin flavor: "+strings.Join(config.Themes, ", "))
	f.IntVar(&opts.maxVisible, "max-visible", 8, "maximum suggestion rows")
	f.StringVar(&opts.format, "format", "auto", "items format: auto, text, jsonl, yaml")
	f.BoolVarP(&opts.watch, "watch", "w", false, "reload items when the file changes")
	f.StringVar(&opts.logFile, "log-file", "", "write JSON logs to this file")
	f.Int8Var(&opts.logLevel, "log-level", 0, "log level (-2 most verbose, 2 errors only)")
	f.StringVar(&opts.prompt, "prompt", "> ", "prompt shown before the input")
	f.StringVar(&opts.placeholder, "placeholder", "Type to search...", "text shown while the input is empty")

	root.AddCommand(newVersionCmd())
	return root
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	config.SetGlobal(cfg)

	log, err := logger.Setup(logger.Options{Level: cfg.LogLevel, Path: cfg.LogFile, Version: Version})
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	ctx := logger.WithLogger(cmd.Context(), log)

	format, err := source.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	path := ""
	if len(args) == 1 && args[0] != "-" {
		path = args[0]
	}
	if opts.watch && path == "" {
		return errors.New("--watch needs an items file")
	}

	records, watcher, err := loadItems(ctx, path, format, opts.watch, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if watcher != nil {
		defer watcher.Stop()
	}

	def, err := findDefault(records, cfg.Field, opts.defaultItem)
	if err != nil {
		return err
	}

	app, err := tui.NewApp(tui.AppOptions{
		Records:     records,
		DefaultItem: def,
		Name:        displayName(path),
		Config:      cfg,
		Watcher:     watcher,
		Logger:      *log,
	})
	if err != nil {
		return err
	}

	final, err := runProgram(ctx, app, path == "")
	if err != nil {
		return fmt.Errorf("run picker: %w", err)
	}

	result, ok := final.(tui.App)
	if !ok {
		return fmt.Errorf("unexpected model %T", final)
	}
	rec, ok := result.Selected()
	if !ok {
		return ErrCancelled
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Text(rec))
	return err
}

// loadConfig reads the config file and applies the flags the user set
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		if _, statErr := os.Stat(opts.configPath); statErr != nil {
			return nil, fmt.Errorf("config: %w", statErr)
		}
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadFromDefaultPath()
	}
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("min-input") {
		cfg.MinInputLength = opts.minInput
	}
	if f.Changed("min-items") {
		cfg.MinItemLength = opts.minItems
	}
	if f.Changed("select-on-tab") {
		cfg.SelectOnTab = opts.selectOnTab
	}
	if f.Changed("tokenized") {
		cfg.TokenizedMatches = opts.tokenized
	}
	if f.Changed("field") {
		cfg.Field = opts.field
	}
	if f.Changed("theme") {
		cfg.Theme = opts.theme
	}
	if f.Changed("max-visible") {
		cfg.MaxVisible = opts.maxVisible
	}
	if f.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	if f.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if f.Changed("prompt") {
		cfg.Prompt = opts.prompt
	}
	if f.Changed("placeholder") {
		cfg.Placeholder = opts.placeholder
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadItems reads the records from path, or from stdin when path is empty.
// With watch set it also returns a started watcher for path.
func loadItems(ctx context.Context, path string, format source.Format, watch bool, stdin io.Reader) ([]source.Record, *source.Watcher, error) {
	log := logger.FromContext(ctx)

	if path == "" {
		records, err := source.Parse(stdin, format)
		if err != nil {
			return nil, nil, err
		}
		log.V(1).Info("items read", "source", "stdin", "count", len(records))
		return records, nil, nil
	}

	if !watch {
		records, err := source.Load(path, format)
		if err != nil {
			return nil, nil, err
		}
		log.V(1).Info("items read", "source", path, "count", len(records))
		return records, nil, nil
	}

	w, err := source.NewWatcher(path, format)
	if err != nil {
		return nil, nil, fmt.Errorf("watch %s: %w", path, err)
	}
	records, err := w.Load()
	if err != nil {
		_ = w.Stop()
		return nil, nil, fmt.Errorf("read items %s: %w", path, err)
	}
	w.Start()
	log.V(1).Info("watching items", "source", path, "count", len(records))
	return records, w, nil
}

// findDefault returns the first record whose text equals text, ignoring case
func findDefault(records []source.Record, field, text string) (*source.Record, error) {
	if text == "" {
		return nil, nil
	}
	for i := range records {
		if strings.EqualFold(records[i].Text(field), text) {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("default item %q not found", text)
}

func displayName(path string) string {
	if path == "" {
		return "stdin"
	}
	return path
}
