// Package key provides host-neutral key event types.
//
// Events are parsed from specifications such as "Ctrl+E", "Enter" or "a",
// and converted from terminal events delivered by tcell. Character events
// never carry Shift (it is part of the character), and Ctrl+letter events
// always carry the lowercase letter, so events from either source compare
// equal with Equals.
package key
