package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/keymap"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 80, bar.Width())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		want    string
	}{
		{"ready", StateReady, "", "Ready"},
		{"ready with message", StateReady, "3 documents", "3 documents"},
		{"loading", StateLoading, "", "Loading..."},
		{"error", StateError, "not found", "Error: not found"},
		{"bare error", StateError, "", "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_Hints(t *testing.T) {
	km := keymap.DefaultKeyMap()
	bar := NewBar(nil)
	bar.SetWidth(120)
	bar.SetHints(km.ReaderHelp())

	view := bar.View()

	assert.Contains(t, view, "esc: back")
	assert.Contains(t, view, "e: explain")
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
}
