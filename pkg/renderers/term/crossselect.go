package term

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-paramform/pkg/binding"
	"github.com/goliatone/go-paramform/pkg/crossselect"
)

var (
	focusStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Bold(true)
	stagedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// ErrNotCrossSelect is returned for bindings without cross-select state.
var ErrNotCrossSelect = errors.New("term: binding is not a cross-select")

// CrossSelectModel is a bubbletea model driving one cross-select binding.
//
// Keys: tab switches sides, up/down move, space stages the item under the
// cursor, a stages every visible item, enter transfers the staged items, /
// edits the side's filter and q quits.
type CrossSelectModel struct {
	ctx       context.Context
	binding   *binding.Binding
	cross     *crossselect.Control
	focus     crossselect.Side
	cursor    [2]int
	filtering bool
	err       error
	done      bool
}

// NewCrossSelectModel wraps b.
func NewCrossSelectModel(ctx context.Context, b *binding.Binding) (*CrossSelectModel, error) {
	if b == nil || b.CrossSelect() == nil {
		return nil, ErrNotCrossSelect
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &CrossSelectModel{ctx: ctx, binding: b, cross: b.CrossSelect()}, nil
}

// Focus returns the side receiving keys.
func (m *CrossSelectModel) Focus() crossselect.Side {
	return m.focus
}

// Filtering reports whether keys are being typed into the filter.
func (m *CrossSelectModel) Filtering() bool {
	return m.filtering
}

// Err returns the last transfer error.
func (m *CrossSelectModel) Err() error {
	return m.err
}

// Done reports whether the user quit.
func (m *CrossSelectModel) Done() bool {
	return m.done
}

// RunCrossSelect runs the model as a full bubbletea program until the user
// quits.
func RunCrossSelect(ctx context.Context, b *binding.Binding, options ...tea.ProgramOption) error {
	model, err := NewCrossSelectModel(ctx, b)
	if err != nil {
		return err
	}
	options = append([]tea.ProgramOption{tea.WithContext(model.ctx)}, options...)
	if _, err := tea.NewProgram(model, options...).Run(); err != nil {
		return fmt.Errorf("term: cross-select: %w", err)
	}
	return model.err
}

func (m *CrossSelectModel) Init() tea.Cmd {
	return nil
}

func (m *CrossSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.filtering {
		m.updateFilter(key)
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.done = true
		return m, tea.Quit
	case "tab", "left", "right", "h", "l":
		m.focus = m.focus.Other()
	case "up", "k":
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
	case "down", "j":
		if m.cursor[m.focus] < len(m.cross.Displayed(m.focus))-1 {
			m.cursor[m.focus]++
		}
	case " ":
		m.toggle()
	case "a":
		m.cross.StageSelection(m.focus, m.cross.Visible(m.focus))
	case "enter":
		m.err = m.binding.Transfer(m.ctx, m.focus)
		m.clamp()
	case "/":
		m.filtering = true
	}
	return m, nil
}

func (m *CrossSelectModel) updateFilter(key tea.KeyMsg) {
	query := m.cross.Query(m.focus)
	switch key.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.filtering = false
		return
	case tea.KeyBackspace:
		if query == "" {
			return
		}
		runes := []rune(query)
		query = string(runes[:len(runes)-1])
	case tea.KeyRunes:
		query += string(key.Runes)
	case tea.KeySpace:
		query += " "
	default:
		return
	}
	m.cross.SetFilter(m.focus, query)
	m.cursor[m.focus] = 0
}

func (m *CrossSelectModel) toggle() {
	displayed := m.cross.Displayed(m.focus)
	if m.cursor[m.focus] >= len(displayed) {
		return
	}
	if m.cross.Empty(m.focus) {
		return
	}
	label := displayed[m.cursor[m.focus]]
	staged := m.cross.Staged(m.focus)
	kept := staged[:0]
	removed := false
	for _, existing := range staged {
		if existing == label {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		kept = append(kept, label)
	}
	m.cross.StageSelection(m.focus, kept)
}

func (m *CrossSelectModel) clamp() {
	for _, side := range []crossselect.Side{crossselect.Available, crossselect.Chosen} {
		if last := len(m.cross.Displayed(side)) - 1; m.cursor[side] > last {
			m.cursor[side] = max(last, 0)
		}
	}
}

func (m *CrossSelectModel) View() string {
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.pane(crossselect.Available),
		"  ",
		m.pane(crossselect.Chosen),
	)
	lines := []string{panes}
	if m.err != nil {
		lines = append(lines, errorLine(m.err))
	}
	if state := m.binding.State(); state.Err != nil {
		lines = append(lines, errorLine(state.Err))
	}
	lines = append(lines, footerStyle.Render("tab side  space stage  a all  enter move  / filter  q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *CrossSelectModel) pane(side crossselect.Side) string {
	staged := make(map[string]bool)
	for _, label := range m.cross.Staged(side) {
		staged[label] = true
	}
	title := side.String()
	if query := m.cross.Query(side); query != "" || (m.filtering && side == m.focus) {
		title = fmt.Sprintf("%s /%s", title, query)
	}
	lines := []string{title}
	empty := m.cross.Empty(side)
	for i, label := range m.cross.Displayed(side) {
		text := label
		if empty {
			text = "-"
		}
		prefix := "  "
		if side == m.focus && i == m.cursor[side] {
			prefix = "> "
			text = cursorStyle.Render(text)
		}
		if staged[label] {
			text = stagedStyle.Render("* " + text)
		}
		lines = append(lines, prefix+text)
	}
	body := strings.Join(lines, "\n")
	if side == m.focus {
		return focusStyle.Render(body)
	}
	return boxStyle.Render(body)
}

func errorLine(err error) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#cc0000")).Render("! " + err.Error())
}
