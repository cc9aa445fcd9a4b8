package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"

	"typeahead/internal/config"
	"typeahead/internal/source"
	"typeahead/internal/typeahead"
)

// minPreviewWidth is the terminal width below which the details panel is
// not drawn
const minPreviewWidth = 60

// AppOptions configures the standalone picker
type AppOptions struct {
	Records     []source.Record
	DefaultItem *source.Record

	// Name labels the item source in the header
	Name string

	Config  *config.Config
	Watcher *source.Watcher
	Logger  logr.Logger
}

// Message types
type (
	itemsEventMsg source.WatchEvent
	errMsg        struct{ error }
)

// App is the full-screen picker run by the CLI: a typeahead over records
// loaded from a file, optionally kept up to date by a watcher.
type App struct {
	picker  Model[source.Record]
	styles  Styles
	keys    pickerKeyMap
	watcher *source.Watcher
	log     logr.Logger

	selected  *source.Record
	cancelled bool
	preview   bool
	status    string
	err       error

	width  int
	height int
}

// NewApp builds the picker and focuses its input
func NewApp(opts AppOptions) (App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Global()
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	tcfg := typeahead.DefaultConfig(opts.Records)
	tcfg.Projection = source.Projector(cfg.Field)
	tcfg.DefaultItem = opts.DefaultItem
	tcfg.MinInputLength = cfg.MinInputLength
	tcfg.MinItemLength = cfg.MinItemLength
	tcfg.SelectOnTab = cfg.SelectOnTab
	tcfg.TokenizedMatches = cfg.TokenizedMatches
	tcfg.Logger = log.WithName("typeahead")

	styles := NewStyles(cfg.Theme)
	keys := defaultPickerKeyMap()
	header := styles.Title.Render("typeahead")
	if opts.Name != "" {
		header += styles.Muted.Render("  " + opts.Name)
	}
	help := styles.Help.Render(helpLine(defaultKeyMap(), keys))

	picker, err := NewModel(Options[source.Record]{
		Config:       tcfg,
		MaxVisible:   cfg.MaxVisible,
		Prompt:       cfg.Prompt,
		Placeholder:  cfg.Placeholder,
		Theme:        cfg.Theme,
		RenderHeader: func() string { return header },
		RenderFooter: func() string { return help },
	})
	if err != nil {
		return App{}, fmt.Errorf("create picker: %w", err)
	}

	a := App{
		picker:  picker,
		styles:  styles,
		keys:    keys,
		watcher: opts.Watcher,
		log:     log,
		status:  fmt.Sprintf("%d items", len(opts.Records)),
	}
	if opts.DefaultItem != nil {
		rec := *opts.DefaultItem
		a.selected = &rec
	}
	a.picker.FocusInput()
	return a, nil
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	return tea.Batch(a.picker.Init(), a.watchCmd())
}

// watchCmd returns a command that waits for the next items file change
func (a App) watchCmd() tea.Cmd {
	w := a.watcher
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			return itemsEventMsg(event)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return errMsg{err}
		}
	}
}

// Update handles incoming messages and updates the model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.picker.SetWidth(a.pickerWidth())
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Cancel):
			a.cancelled = true
			return a, tea.Quit
		case key.Matches(msg, a.keys.Preview):
			a.preview = !a.preview
			a.picker.SetWidth(a.pickerWidth())
			return a, nil
		}
		if !a.picker.Core().Focused() {
			// typing after Tab left the input resumes editing
			focus := a.picker.FocusInput()
			var cmd tea.Cmd
			a.picker, cmd = a.picker.Update(msg)
			return a, tea.Batch(focus, cmd)
		}

	case SelectedMsg[source.Record]:
		rec := msg.Item
		a.selected = &rec
		a.log.Info("item selected", "line", rec.Line, "text", a.picker.Value())
		return a, tea.Quit

	case itemsEventMsg:
		a.applyEvent(source.WatchEvent(msg))
		return a, a.watchCmd()

	case errMsg:
		a.err = msg.error
		a.log.Error(msg.error, "watch items")
		return a, a.watchCmd()
	}

	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	return a, cmd
}

// applyEvent hands reloaded or appended records to the picker
func (a *App) applyEvent(ev source.WatchEvent) {
	var records []source.Record
	switch ev.Type {
	case source.EventReloaded:
		records = ev.Records
	case source.EventAppended:
		current := a.picker.Items()
		records = make([]source.Record, 0, len(current)+len(ev.Records))
		records = append(records, current...)
		records = append(records, ev.Records...)
	default:
		return
	}

	a.picker.SetItems(records)
	a.err = nil
	a.status = fmt.Sprintf("%d items (%s)", len(records), ev.Type)
	a.log.V(1).Info("items updated", "event", string(ev.Type), "count", len(records))
}

// View renders the picker, the details panel when enabled and a status line
func (a App) View() string {
	body := a.picker.View()

	if a.showPreview() {
		var rec *source.Record
		if r, ok := a.picker.Highlighted(); ok {
			rec = &r
		}
		left := lipgloss.NewStyle().Width(a.pickerWidth()).Render(body)
		right := renderPreview(a.styles, rec, a.width-a.pickerWidth()-1, max(lipgloss.Height(body), 3))
		body = joinPanel(left, right)
	}

	status := a.styles.Status.Render(a.status)
	if a.err != nil {
		status = a.styles.Error.Render(fmt.Sprintf("Error: %v", a.err))
	}
	return body + "\n" + status
}

func (a App) showPreview() bool {
	return a.preview && a.width >= minPreviewWidth
}

func (a App) pickerWidth() int {
	if a.showPreview() {
		return a.width * 3 / 5
	}
	return a.width
}

// Selected returns the committed record, or the default item when nothing
// else was committed
func (a App) Selected() (source.Record, bool) {
	if a.selected == nil {
		return source.Record{}, false
	}
	return *a.selected, true
}

// Cancelled reports whether the picker was left with esc or ctrl+c
func (a App) Cancelled() bool {
	return a.cancelled
}

// Text returns the display text of a record under the picker's projection
func (a App) Text(rec source.Record) string {
	return a.picker.Core().Projection(rec)
}

func helpLine(nav keyMap, picker pickerKeyMap) string {
	bindings := []key.Binding{nav.Down, nav.Up, nav.Enter, nav.Tab, picker.Preview, picker.Cancel}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return strings.Join(parts, " | ")
}
