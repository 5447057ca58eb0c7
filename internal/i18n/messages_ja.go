package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Japanese

	message.SetString(lang, KeyErrorTitle, "EnmityPlugin エラー")
	message.SetString(lang, KeyModuleLocked, "必要なファイルが他のプロセスで使用中のため読み込めません:\n%s")
	message.SetString(lang, KeyModuleBlocked, "必要なファイルがセキュリティ設定によりブロックされています。ブロックを解除して再起動してください:\n%s")
	message.SetString(lang, KeyModuleFailed, "必要なファイルを読み込めませんでした:\n%s")
	message.SetString(lang, KeyInitFailed, "EnmityPlugin の初期化に失敗しました:\n%s")
	message.SetString(lang, KeyStatusInitialized, "初期化完了")
	message.SetString(lang, KeyStatusFinalized, "終了しました")
}
