// Package i18n provides message catalogs for the site UI in Russian and English.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales
var localesFS embed.FS

// Message represents a single translatable message.
type Message struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	Translation string `json:"translation"`
}

// MessageFile represents the structure of a messages JSON file.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// Catalog holds all translations for all supported languages.
type Catalog struct {
	mu           sync.RWMutex
	translations map[string]map[string]string // lang -> key -> translation
	matcher      language.Matcher
	supported    []language.Tag
	defaultLang  string
	logger       *slog.Logger
}

var catalog *Catalog

// SupportedLanguages lists the UI languages we ship.
var SupportedLanguages = []string{"ru", "en"}

// DefaultLanguage is used when no default is configured.
const DefaultLanguage = "ru"

// Init loads the embedded catalogs. defaultLang must be one of
// SupportedLanguages; an empty value selects DefaultLanguage.
func Init(logger *slog.Logger, defaultLang string) error {
	if defaultLang == "" {
		defaultLang = DefaultLanguage
	}
	if !IsSupported(defaultLang) {
		return fmt.Errorf("unsupported default language %q", defaultLang)
	}

	c := &Catalog{
		translations: make(map[string]map[string]string),
		defaultLang:  strings.ToLower(defaultLang),
		logger:       logger,
	}

	// The default goes first so the matcher prefers it on ties.
	ordered := []string{c.defaultLang}
	for _, lang := range SupportedLanguages {
		if lang != c.defaultLang {
			ordered = append(ordered, lang)
		}
	}
	for _, lang := range ordered {
		c.supported = append(c.supported, language.MustParse(lang))
	}
	c.matcher = language.NewMatcher(c.supported)

	for _, lang := range SupportedLanguages {
		if err := c.loadLanguage(lang); err != nil {
			return fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}

	catalog = c
	if logger != nil {
		logger.Info("i18n initialized", "languages", SupportedLanguages, "default", c.defaultLang)
	}
	return nil
}

func (c *Catalog) loadLanguage(lang string) error {
	path := fmt.Sprintf("locales/%s/messages.json", lang)
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var msgFile MessageFile
	if err := json.Unmarshal(data, &msgFile); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.translations[lang] = make(map[string]string, len(msgFile.Messages))
	for _, msg := range msgFile.Messages {
		c.translations[lang][msg.ID] = msg.Translation
	}
	return nil
}

// T translates key into lang, falling back to the default language and then
// to the key itself. Args are applied with fmt.Sprintf.
func T(lang, key string, args ...any) string {
	if catalog == nil {
		return key
	}

	catalog.mu.RLock()
	translation, ok := catalog.translations[lang][key]
	if !ok {
		translation, ok = catalog.translations[catalog.defaultLang][key]
	}
	catalog.mu.RUnlock()

	if !ok {
		if catalog.logger != nil {
			catalog.logger.Debug("missing translation", "key", key, "lang", lang)
		}
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(translation, args...)
	}
	return translation
}

// Default returns the configured default language.
func Default() string {
	if catalog == nil {
		return DefaultLanguage
	}
	return catalog.defaultLang
}

// MatchLanguage picks the best supported language for an Accept-Language
// header or a bare language code.
func MatchLanguage(acceptLang string) string {
	if catalog == nil {
		return DefaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		tag, err := language.Parse(acceptLang)
		if err != nil {
			return catalog.defaultLang
		}
		tags = []language.Tag{tag}
	}

	_, idx, confidence := catalog.matcher.Match(tags...)
	if confidence == language.No || idx < 0 || idx >= len(catalog.supported) {
		return catalog.defaultLang
	}
	return catalog.supported[idx].String()
}

// IsSupported checks if a language code is supported.
func IsSupported(lang string) bool {
	lang = strings.ToLower(lang)
	for _, supported := range SupportedLanguages {
		if supported == lang {
			return true
		}
	}
	return false
}

// TranslationCount returns the number of translations loaded for a language.
func TranslationCount(lang string) int {
	if catalog == nil {
		return 0
	}

	catalog.mu.RLock()
	defer catalog.mu.RUnlock()
	return len(catalog.translations[lang])
}
