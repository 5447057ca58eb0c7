// Package host defines what the module needs from the application that
// activates it.
package host

import (
	"github.com/dshills/enmity/internal/input/key"
	"github.com/dshills/enmity/internal/resolver"
)

// KeyHandler receives key presses from the host's main window. It returns
// true when it consumed the event; unconsumed events continue to the host
// and to other subscribers.
type KeyHandler func(ev key.Event) bool

// Host is the activating application.
type Host interface {
	// PluginFile returns the file the host loaded plugin from.
	PluginFile(plugin any) (string, bool)

	// DataDir returns the host's per-user data directory.
	DataDir() string

	// Loader returns the host's module loader.
	Loader() resolver.HookRegistry

	// SubscribeKeys registers h for main-window key presses. The returned
	// function removes it.
	SubscribeKeys(h KeyHandler) (unsubscribe func())

	// ShowError presents a modal error to the user.
	ShowError(title, message string)

	// OnExit registers fn to run when the host process exits.
	OnExit(fn func())
}

// Surface is the host-provided area the module's panel lives in.
type Surface interface {
	SetTitle(title string)
	// Focus returns input focus to the host's main window.
	Focus()
}

// StatusLabel is the host-provided status text for the module.
type StatusLabel interface {
	SetText(text string)
}
