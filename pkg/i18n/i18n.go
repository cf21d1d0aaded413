package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle *goi18n.Bundle
	once   sync.Once
)

// Init loads the embedded message catalogs. It is safe to call more than once.
func Init() {
	once.Do(func() {
		bundle = goi18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			return
		}
		for _, e := range entries {
			_, _ = bundle.LoadMessageFileFS(localeFS, "locales/"+e.Name())
		}
	})
}

// T localizes messageID for lang, falling back to English and then to the id itself.
func T(lang, messageID string, data map[string]interface{}) string {
	Init()
	loc := goi18n.NewLocalizer(bundle, lang, language.English.String())
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// Supported reports whether lang has a loaded catalog.
func Supported(lang string) bool {
	Init()
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	for _, t := range bundle.LanguageTags() {
		if t == tag {
			return true
		}
	}
	return false
}
