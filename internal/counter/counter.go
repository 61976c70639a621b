// Package counter is a click counter shown as a terminal program.
package counter

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Counter holds a non-negative count starting at zero.
type Counter struct {
	count int
}

func (c Counter) Count() int { return c.count }

// Increment adds one.
func (c *Counter) Increment() { c.count++ }

// Label is the visible text, e.g. "Count: 0".
func (c Counter) Label() string {
	return fmt.Sprintf("Count: %d", c.count)
}

var buttonStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 2).
	Bold(true)

var helpStyle = lipgloss.NewStyle().Faint(true)

// Model represents the state of the counter program. Every new Model starts at zero.
type Model struct {
	counter Counter
}

// NewModel creates a counter model.
func NewModel() Model {
	return Model{}
}

// Counter returns the current counter value.
func (m Model) Counter() Counter { return m.counter }

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and mouse clicks and updates the model's state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "enter", " ", "space", "+":
			m.counter.Increment()
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			m.counter.Increment()
		}
	}

	return m, nil
}

// View renders the counter as a button.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(buttonStyle.Render(m.counter.Label()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter/space/click: increment • q: quit"))
	b.WriteString("\n")
	return b.String()
}
