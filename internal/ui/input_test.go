package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/stretchr/testify/assert"
)

func TestIsYes(t *testing.T) {
	for _, s := range []string{"y", "Y", "yes", " YES "} {
		assert.True(t, IsYes(s), s)
	}
	for _, s := range []string{"", "n", "no", "yep"} {
		assert.False(t, IsYes(s), s)
	}
}

func TestConfirmModelEnterCompletes(t *testing.T) {
	ti := textinput.New()
	ti.Focus()
	var m tea.Model = confirmModel{textInput: ti, prompt: "go?"}

	for _, r := range "yes" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	cm := m.(confirmModel)
	assert.True(t, cm.complete)
	assert.Equal(t, "yes", cm.textInput.Value())
	assert.NotNil(t, cmd)
	assert.Empty(t, cm.View())
}

func TestConfirmModelEscCancels(t *testing.T) {
	var m tea.Model = confirmModel{textInput: textinput.New(), prompt: "go?"}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	cm := m.(confirmModel)
	assert.True(t, cm.quitting)
	assert.False(t, cm.complete)
	assert.Contains(t, cm.View(), "Cancelled.")
}
