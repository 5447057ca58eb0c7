package key

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestFromTcell(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want string
	}{
		{"ctrl letter", tcell.NewEventKey(tcell.KeyCtrlE, 0, tcell.ModCtrl), "Ctrl+E"},
		{"ctrl rune", tcell.NewEventKey(tcell.KeyRune, 'E', tcell.ModCtrl), "Ctrl+E"},
		{"plain rune", tcell.NewEventKey(tcell.KeyRune, 'e', tcell.ModNone), "e"},
		{"shifted rune", tcell.NewEventKey(tcell.KeyRune, 'E', tcell.ModShift), "E"},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "Enter"},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), "Escape"},
		{"backspace", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), "Backspace"},
		{"alt arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModAlt), "Alt+Left"},
		{"function", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), "F5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromTcell(tt.ev)
			if !got.Equals(MustParse(tt.want)) {
				t.Errorf("FromTcell() = %#v, want %s", got, tt.want)
			}
		})
	}
}
