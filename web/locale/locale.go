// Package locale resolves user-visible strings through go-i18n bundles
// parsed from embedded toml translation files.
package locale

import (
	"embed"
	"io/fs"
	"strings"

	"songvault/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

var (
	i18nBundle   *i18n.Bundle
	localizerWeb *i18n.Localizer
)

// InitLocalizer parses the embedded translation files and sets up the
// web localizer with en-US as the default language.
func InitLocalizer(i18nFS embed.FS) error {
	i18nBundle = i18n.NewBundle(language.MustParse("en-US"))
	i18nBundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(i18nFS, i18nBundle); err != nil {
		return err
	}

	localizerWeb = i18n.NewLocalizer(i18nBundle, "en-US")
	return nil
}

func parseTranslationFiles(i18nFS embed.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := i18nFS.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := bundle.ParseMessageFileBytes(data, path); err != nil {
			return err
		}
		return nil
	})
}

func createTemplateData(params []string, seperator ...string) map[string]any {
	var sep string = "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}

	return templateData
}

// I18n resolves a message key, with optional "name==value" template params.
func I18n(key string, params ...string) string {
	if localizerWeb == nil {
		logger.Warning("locale is not initialized, key:", key)
		return key
	}

	msg, err := localizerWeb.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Errorf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}
