package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/layermap/pkg/pipeline"
)

func press(m MappingPickerModel, keys ...string) MappingPickerModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(MappingPickerModel)
	}
	return m
}

func TestMappingPickerPairs(t *testing.T) {
	m := NewMappingPickerModel([]string{"HEADER", "FOOTER"}, []string{"BANNER", "SIDEBAR"})

	m = press(m, "enter", "down", "enter")
	m = press(m, "down", "enter", "enter")
	m = press(m, "d")

	want := []pipeline.Mapping{
		{Source: "HEADER", Target: "SIDEBAR"},
		{Source: "FOOTER", Target: "BANNER"},
	}
	if !m.Done || m.Cancelled {
		t.Fatalf("Done = %v, Cancelled = %v", m.Done, m.Cancelled)
	}
	if len(m.Mappings) != len(want) {
		t.Fatalf("got %d mappings, want %d", len(m.Mappings), len(want))
	}
	for i := range want {
		if m.Mappings[i] != want[i] {
			t.Errorf("mapping %d = %v, want %v", i, m.Mappings[i], want[i])
		}
	}
}

func TestMappingPickerKeys(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		wantStep   pickerStep
		wantCursor int
		wantCancel bool
		wantDone   bool
	}{
		{"cursor stays in range", []string{"up", "down", "down", "down"}, pickSource, 1, false, false},
		{"esc backs out of target step", []string{"enter", "esc"}, pickSource, 0, false, false},
		{"esc at source cancels", []string{"esc"}, pickSource, 0, true, false},
		{"q cancels", []string{"enter", "q"}, pickTarget, 0, true, false},
		{"d without mappings is ignored", []string{"d"}, pickSource, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(NewMappingPickerModel([]string{"A", "B"}, []string{"X"}), tt.keys...)
			if m.Step != tt.wantStep || m.Cursor != tt.wantCursor {
				t.Errorf("step/cursor = %d/%d, want %d/%d", m.Step, m.Cursor, tt.wantStep, tt.wantCursor)
			}
			if m.Cancelled != tt.wantCancel || m.Done != tt.wantDone {
				t.Errorf("cancelled/done = %v/%v, want %v/%v", m.Cancelled, m.Done, tt.wantCancel, tt.wantDone)
			}
		})
	}
}

func TestMappingPickerView(t *testing.T) {
	m := press(NewMappingPickerModel([]string{"HEADER"}, []string{"BANNER"}), "enter")
	if v := m.View(); !strings.Contains(v, "Select target for HEADER") || !strings.Contains(v, "BANNER") {
		t.Errorf("target view missing prompt or items:\n%s", v)
	}

	m = press(m, "enter")
	v := m.View()
	if !strings.Contains(v, "HEADER") || !strings.Contains(v, "1 mapping") {
		t.Errorf("view should list the chosen pair:\n%s", v)
	}
}
