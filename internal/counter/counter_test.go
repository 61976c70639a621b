package counter

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	var c Counter
	assert.Equal(t, "Count: 0", c.Label())
	c.Increment()
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, "Count: 1", c.Label())
}

func TestModel_Update(t *testing.T) {
	testCases := []struct {
		name          string
		msgs          []tea.Msg
		expectedCount int
		expectQuit    bool
	}{
		{name: "initial", expectedCount: 0},
		{name: "enter activates", msgs: []tea.Msg{tea.KeyMsg{Type: tea.KeyEnter}}, expectedCount: 1},
		{name: "space activates", msgs: []tea.Msg{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}}, expectedCount: 1},
		{
			name: "left click activates on release",
			msgs: []tea.Msg{
				tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
				tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
			},
			expectedCount: 1,
		},
		{
			name:          "repeated activation",
			msgs:          []tea.Msg{tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEnter}},
			expectedCount: 3,
		},
		{name: "other keys are ignored", msgs: []tea.Msg{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}}, expectedCount: 0},
		{name: "q quits", msgs: []tea.Msg{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}}, expectQuit: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var model tea.Model = NewModel()
			var cmd tea.Cmd
			for _, msg := range tc.msgs {
				model, cmd = model.Update(msg)
			}
			m, ok := model.(Model)
			require.True(t, ok)
			assert.Equal(t, tc.expectedCount, m.Counter().Count())
			if tc.expectQuit {
				require.NotNil(t, cmd)
				assert.Equal(t, tea.Quit(), cmd())
			}
		})
	}
}

func TestModel_ViewAndRemount(t *testing.T) {
	var model tea.Model = NewModel()
	assert.Contains(t, model.View(), "Count: 0")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, model.View(), "Count: 1")

	// A fresh model is a remount: nothing carries over.
	assert.Contains(t, NewModel().View(), "Count: 0")
}
