package gitinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"catchcli/internal/ui"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when the form is left with Ctrl-C.
var ErrCanceled = errors.New("repository prompt canceled")

var fieldTitles = [2]string{
	"Organization name (ex. catch-org)",
	"Repository name (ex. catch-cli)",
}

// FormModel asks for the owner, then the repository name. Enter or Esc
// accepts a field once it holds at least MinLength characters.
type FormModel struct {
	inputs [2]textinput.Model
	focus  int
	styles ui.Styles

	done     bool
	canceled bool
}

// NewFormModel pre-fills the form with defaults.
func NewFormModel(defaults RepoInfo, styles ui.Styles) FormModel {
	m := FormModel{styles: styles}
	for i, v := range []string{defaults.Owner, defaults.Name} {
		ti := textinput.New()
		ti.Prompt = "› "
		ti.CharLimit = 100
		ti.Width = 40
		ti.SetValue(v)
		m.inputs[i] = ti
	}
	m.inputs[0].Focus()
	return m
}

func (m FormModel) Init() tea.Cmd { return textinput.Blink }

func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyCtrlC:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyEnter, tea.KeyEsc:
			if !ValidPart(m.inputs[m.focus].Value()) {
				return m, nil
			}
			if m.focus == len(m.inputs)-1 {
				m.done = true
				return m, tea.Quit
			}
			m.inputs[m.focus].Blur()
			m.focus++
			return m, m.inputs[m.focus].Focus()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m FormModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Which repository is this?"))
	sb.WriteString("\n")
	for i := 0; i <= m.focus; i++ {
		title := fieldTitles[i]
		style := m.styles.Bold
		if !ValidPart(m.inputs[i].Value()) {
			title += fmt.Sprintf(" | ERROR: must be length >= %d", MinLength)
			style = m.styles.InputInvalid
		}
		sb.WriteString(style.Render(title))
		sb.WriteString("\n")
		sb.WriteString(m.inputs[i].View())
		sb.WriteString("\n\n")
	}
	sb.WriteString(m.styles.Help.Render("enter confirm • ctrl+c cancel"))
	sb.WriteString("\n")
	return sb.String()
}

// Result returns the entered values.
func (m FormModel) Result() RepoInfo {
	return RepoInfo{
		Owner: m.inputs[0].Value(),
		Name:  m.inputs[1].Value(),
	}
}

// PromptOptions configures Prompt.
type PromptOptions struct {
	Input  io.Reader
	Output io.Writer
	Styles *ui.Styles
}

// Prompt runs the confirmation form.
func Prompt(ctx context.Context, defaults RepoInfo, opts PromptOptions) (RepoInfo, error) {
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

	final, err := tea.NewProgram(NewFormModel(defaults, styles), popts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return RepoInfo{}, ctx.Err()
		}
		return RepoInfo{}, fmt.Errorf("repository prompt: %w", err)
	}
	fm, ok := final.(FormModel)
	if !ok {
		return RepoInfo{}, fmt.Errorf("repository prompt: unexpected model %T", final)
	}
	if fm.canceled {
		return RepoInfo{}, ErrCanceled
	}
	return fm.Result(), nil
}
