package selector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"catchcli/internal/logging"
	"catchcli/internal/scanner"
	"catchcli/internal/ui"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ErrCanceled is returned when the user leaves the selector with Ctrl-C or Esc.
var ErrCanceled = errors.New("selection canceled")

const (
	markOn  = "[x]"
	markOff = "[ ]"
)

// Model is the bubbletea model behind Select.
type Model struct {
	files    []scanner.CodeFile
	selected []bool
	table    table.Model
	styles   ui.Styles

	done     bool
	canceled bool
}

// keyMap is the table's default navigation minus the space bar, which
// toggles selection here.
func keyMap() table.KeyMap {
	km := table.DefaultKeyMap()
	km.PageDown = key.NewBinding(key.WithKeys("pgdown", "f"))
	return km
}

// NewModel builds the selector over files.
func NewModel(files []scanner.CodeFile, preselect bool, styles ui.Styles) Model {
	m := Model{
		files:    files,
		selected: make([]bool, len(files)),
		styles:   styles,
	}
	nameW, pathW := len("File Name"), len("File Path")
	for i, f := range files {
		m.selected[i] = preselect
		nameW = max(nameW, len(f.Name()))
		pathW = max(pathW, len(f.Path))
	}

	ts := table.DefaultStyles()
	ts.Header = styles.TableHeader
	ts.Selected = styles.TableSelected
	ts.Cell = styles.TableCell

	m.table = table.New(
		table.WithColumns([]table.Column{
			{Title: "Selected", Width: 8},
			{Title: "File Name", Width: min(nameW, 40)},
			{Title: "File Path", Width: min(pathW, 80)},
		}),
		table.WithRows(m.rows()),
		table.WithFocused(true),
		table.WithHeight(min(len(files)+1, 20)),
		table.WithKeyMap(keyMap()),
		table.WithStyles(ts),
	)
	return m
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, len(m.files))
	for i, f := range m.files {
		mark := markOff
		if m.selected[i] {
			mark = markOn
		}
		rows[i] = table.Row{mark, f.Name(), f.Path}
	}
	return rows
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(3, min(len(m.files)+1, msg.Height-6)))
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeySpace:
			if i := m.table.Cursor(); i >= 0 && i < len(m.selected) {
				m.selected[i] = !m.selected[i]
				m.table.SetRows(m.rows())
			}
			return m, nil
		}
		if msg.String() == "a" {
			m.toggleAll()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// toggleAll selects everything unless everything is already selected.
func (m *Model) toggleAll() {
	all := true
	for _, s := range m.selected {
		all = all && s
	}
	for i := range m.selected {
		m.selected[i] = !all
	}
	m.table.SetRows(m.rows())
}

func (m Model) View() string {
	if m.done || m.canceled {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(fmt.Sprintf("Select files to upload (%d/%d)", m.Count(), len(m.files))))
	sb.WriteString("\n")
	sb.WriteString(m.table.View())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Help.Render("↑/↓ move • space toggle • a toggle all • enter confirm • esc cancel"))
	sb.WriteString("\n")
	return sb.String()
}

// Count returns how many files are selected.
func (m Model) Count() int {
	n := 0
	for _, s := range m.selected {
		if s {
			n++
		}
	}
	return n
}

// SelectedPaths returns the selected paths in file order.
func (m Model) SelectedPaths() []string {
	var out []string
	for i, f := range m.files {
		if m.selected[i] {
			out = append(out, f.Path)
		}
	}
	return out
}

// Canceled reports whether the user aborted.
func (m Model) Canceled() bool { return m.canceled }

// Options configures Select.
type Options struct {
	Input     io.Reader
	Output    io.Writer
	Preselect bool
	AltScreen bool
	Styles    *ui.Styles
}

// Select runs the interactive table and returns the chosen files with
// Selected set. An empty input returns without starting a UI.
func Select(ctx context.Context, files []scanner.CodeFile, opts Options) ([]scanner.CodeFile, error) {
	if len(files) == 0 {
		return []scanner.CodeFile{}, nil
	}

	styles := ui.DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}

	popts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		popts = append(popts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		popts = append(popts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(NewModel(files, opts.Preselect, styles), popts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("selector: %w", err)
	}

	fm, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("selector: unexpected model %T", final)
	}
	if fm.canceled {
		return nil, ErrCanceled
	}

	chosen := Filter(files, fm.SelectedPaths())
	for i := range chosen {
		chosen[i].Selected = true
	}
	logging.Get(logging.CategorySelect).Info("files selected",
		zap.Int("selected", len(chosen)),
		zap.Int("offered", len(files)))
	return chosen, nil
}
