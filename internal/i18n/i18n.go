// Package i18n holds the user-visible strings of the module.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	KeyErrorTitle        = "error.title"
	KeyModuleLocked      = "resolver.locked"
	KeyModuleBlocked     = "resolver.blocked"
	KeyModuleFailed      = "resolver.failed"
	KeyInitFailed        = "plugin.init_failed"
	KeyStatusInitialized = "status.initialized"
	KeyStatusFinalized   = "status.finalized"
)

var supported = language.NewMatcher([]language.Tag{
	language.English,
	language.Japanese,
})

// Printer returns a message printer for the given locale name.
// Unknown or malformed locales fall back to English.
func Printer(locale string) *message.Printer {
	tag := language.English
	if parsed, err := language.Parse(locale); err == nil {
		_, idx, _ := supported.Match(parsed)
		tag = []language.Tag{language.English, language.Japanese}[idx]
	}
	return message.NewPrinter(tag)
}
