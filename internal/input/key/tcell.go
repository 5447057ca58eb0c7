package key

import "github.com/gdamore/tcell/v2"

var fromTcellKeys = map[tcell.Key]Key{
	tcell.KeyDelete: KeyDelete,
	tcell.KeyInsert: KeyInsert,
	tcell.KeyHome:   KeyHome,
	tcell.KeyEnd:    KeyEnd,
	tcell.KeyPgUp:   KeyPageUp,
	tcell.KeyPgDn:   KeyPageDown,
	tcell.KeyUp:     KeyUp,
	tcell.KeyDown:   KeyDown,
	tcell.KeyLeft:   KeyLeft,
	tcell.KeyRight:  KeyRight,
	tcell.KeyF1:     KeyF1,
	tcell.KeyF2:     KeyF2,
	tcell.KeyF3:     KeyF3,
	tcell.KeyF4:     KeyF4,
	tcell.KeyF5:     KeyF5,
	tcell.KeyF6:     KeyF6,
	tcell.KeyF7:     KeyF7,
	tcell.KeyF8:     KeyF8,
	tcell.KeyF9:     KeyF9,
	tcell.KeyF10:    KeyF10,
	tcell.KeyF11:    KeyF11,
	tcell.KeyF12:    KeyF12,
}

// FromTcell converts a terminal key event. Control characters such as
// tcell.KeyCtrlE become the lowercase letter with ModCtrl.
func FromTcell(ev *tcell.EventKey) Event {
	mods := convertMod(ev.Modifiers())
	k := ev.Key()

	// Editing keys share codes with some control characters, so they are
	// matched before the control range.
	switch {
	case k == tcell.KeyRune:
		return NewRuneEvent(ev.Rune(), mods)
	case k == tcell.KeyEscape:
		return NewSpecialEvent(KeyEscape, mods)
	case k == tcell.KeyEnter:
		return NewSpecialEvent(KeyEnter, mods)
	case k == tcell.KeyTab:
		return NewSpecialEvent(KeyTab, mods)
	case k == tcell.KeyBackspace || k == tcell.KeyBackspace2:
		return NewSpecialEvent(KeyBackspace, mods)
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return NewRuneEvent(rune('a'+(k-tcell.KeyCtrlA)), mods|ModCtrl)
	case k == tcell.KeyCtrlSpace:
		return NewRuneEvent(' ', mods|ModCtrl)
	}
	if mapped, ok := fromTcellKeys[k]; ok {
		return NewSpecialEvent(mapped, mods)
	}
	return Event{Key: KeyNone, Modifiers: mods}
}

func convertMod(m tcell.ModMask) Modifier {
	var mods Modifier
	if m&tcell.ModShift != 0 {
		mods |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= ModMeta
	}
	return mods
}
