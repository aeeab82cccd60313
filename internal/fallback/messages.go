package fallback

import (
	"embed"
	"fmt"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// supportedLocales lists the bundled message sets in matcher order; the
// first entry is the fallback for unsupported locales.
var supportedLocales = []language.Tag{
	language.English,
	language.Japanese,
}

// catalog is one bundled message set.
type catalog struct {
	Titles struct {
		Critical string `yaml:"critical"`
		Error    string `yaml:"error"`
		Warning  string `yaml:"warning"`
	} `yaml:"titles"`
	Messages struct {
		DataReadFailed  string `yaml:"data_read_failed"`
		ErrorOne        string `yaml:"error_one"`
		ErrorCount      string `yaml:"error_count"`
		ErrorFlood      string `yaml:"error_flood"`
		WarningsPresent string `yaml:"warnings_present"`
	} `yaml:"messages"`
	Suggestions struct {
		Critical string `yaml:"critical"`
		Error    string `yaml:"error"`
		Warning  string `yaml:"warning"`
	} `yaml:"suggestions"`
}

// loadCatalogs parses every bundled locale file, keyed by base language.
func loadCatalogs() (map[string]catalog, error) {
	catalogs := make(map[string]catalog, len(supportedLocales))
	for _, tag := range supportedLocales {
		base, _ := tag.Base()
		data, err := localeFS.ReadFile("locales/" + base.String() + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", base, err)
		}
		var c catalog
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", base, err)
		}
		catalogs[base.String()] = c
	}
	return catalogs, nil
}

// resolveCatalog negotiates the requested locale against the bundled sets.
// Unsupported or empty locales resolve to the first supported tag.
func (h *Handler) resolveCatalog(locale string) catalog {
	tag, _ := language.MatchStrings(h.matcher, locale)
	base, _ := tag.Base()
	if c, ok := h.catalogs[base.String()]; ok {
		return c
	}
	fallbackBase, _ := supportedLocales[0].Base()
	return h.catalogs[fallbackBase.String()]
}
