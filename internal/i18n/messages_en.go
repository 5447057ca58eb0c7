package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, KeyErrorTitle, "EnmityPlugin error")
	message.SetString(lang, KeyModuleLocked, "A required file cannot be read because it is in use by another process:\n%s")
	message.SetString(lang, KeyModuleBlocked, "A required file was blocked by a security policy. Unblock the file and restart:\n%s")
	message.SetString(lang, KeyModuleFailed, "A required file could not be loaded:\n%s")
	message.SetString(lang, KeyInitFailed, "EnmityPlugin failed to initialize:\n%s")
	message.SetString(lang, KeyStatusInitialized, "Initialized.")
	message.SetString(lang, KeyStatusFinalized, "Finalized.")
}
