// Package i18n renders localized user messages for error codes.
package i18n

import (
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale answers every request no other catalog matches.
const BaseLocale = "en-US"

// Code mirrors errors.Code as a plain string so this package stays import-free
// of its parent.
type Code = string

// Catalog holds the message templates of one locale.
type Catalog struct {
	locale string
	raw    map[Code]string
	parsed map[Code]*template.Template
}

// NewCatalog builds a catalog, parsing every template up front. Templates that
// fail to parse are kept raw and returned verbatim by Format.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	c := &Catalog{
		locale: locale,
		raw:    make(map[Code]string, len(messages)),
		parsed: make(map[Code]*template.Template, len(messages)),
	}
	for code, text := range messages {
		c.raw[code] = text
		if tmpl, err := template.New(code).Parse(text); err == nil {
			c.parsed[code] = tmpl
		}
	}
	return c
}

var (
	baseCatalog = NewCatalog(BaseLocale, enUSMessages)

	registryMu sync.RWMutex
	registry   = map[string]*Catalog{
		BaseLocale: baseCatalog,
		"pt-BR":    NewCatalog("pt-BR", ptBRMessages),
	}

	builtinTags = []language.Tag{language.AmericanEnglish, language.BrazilianPortuguese}
	matcher     = language.NewMatcher(builtinTags)
)

// RegisterCatalog makes cat available under locale, replacing any previous one.
func RegisterCatalog(locale string, cat *Catalog) {
	registryMu.Lock()
	registry[locale] = cat
	registryMu.Unlock()
}

// GetCatalog picks the catalog for locale, which may be a single tag or a full
// Accept-Language value. An exact registration wins over negotiation.
func GetCatalog(locale string) *Catalog {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return baseCatalog
	}
	for _, candidate := range []string{locale, Negotiate(locale)} {
		if c := lookup(candidate); c != nil {
			return c
		}
	}
	return baseCatalog
}

// Negotiate maps an Accept-Language value to the closest built-in locale.
func Negotiate(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	if _, i, confidence := matcher.Match(tags...); confidence != language.No {
		return builtinTags[i].String()
	}
	return BaseLocale
}

func lookup(locale string) *Catalog {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[locale]
}

// Locale names the catalog's language tag.
func (c *Catalog) Locale() string { return c.locale }

// Format renders the message for code with metadata. Unknown codes render as
// the code itself; missing metadata keys render as "<no value>".
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	raw, ok := c.raw[code]
	if !ok {
		return code
	}
	tmpl, ok := c.parsed[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, metadata); err != nil {
		return raw
	}
	return out.String()
}
