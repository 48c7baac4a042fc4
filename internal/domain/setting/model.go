package setting

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Well-known setting types.
const (
	SiteName               = "site_name"
	SiteMotto              = "site_motto"
	CurrencySymbol         = "currency_symbol"
	ContactEmail           = "contact_email"
	DefaultLanguage        = "default_language"
	ProductApproval        = "product_approval"
	FlashDealBannerVisible = "flash_deal_banner_visible"
	ItemsPerPage           = "items_per_page"
)

// Value kinds
const (
	KindText = "text"
	KindBool = "bool"
	KindInt  = "int"
)

// Domain errors
var (
	ErrUnknownType   = errors.New("unknown setting")
	ErrEmptySiteName = errors.New("site name cannot be empty")
	ErrInvalidBool   = errors.New("value must be 0 or 1")
	ErrInvalidInt    = errors.New("value must be a whole number")
	ErrValueTooLong  = errors.New("value cannot exceed 500 characters")
)

// Setting is one business_setting row.
type Setting struct {
	Type      string
	Value     string
	UpdatedAt time.Time
}

// Definition describes a known setting and its default.
type Definition struct {
	Type  string `yaml:"type"`
	Label string `yaml:"label"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

//go:embed defaults.yaml
var defaultsYAML []byte

var definitions []Definition

func init() {
	defs, err := parseDefinitions(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("setting: bad defaults.yaml: %v", err))
	}
	definitions = defs
}

func parseDefinitions(data []byte) ([]Definition, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, err
	}
	for i := range defs {
		if defs[i].Type == "" {
			return nil, fmt.Errorf("entry %d has no type", i)
		}
		if defs[i].Kind == "" {
			defs[i].Kind = KindText
		}
	}
	return defs, nil
}

// Definitions returns the known settings in display order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition for a setting type.
func Lookup(settingType string) (Definition, bool) {
	for _, d := range definitions {
		if d.Type == settingType {
			return d, true
		}
	}
	return Definition{}, false
}

// Defaults returns type -> default value for every known setting.
func Defaults() map[string]string {
	out := make(map[string]string, len(definitions))
	for _, d := range definitions {
		out[d.Type] = d.Value
	}
	return out
}

// Normalize trims and validates a submitted value for a known setting.
// PRE: settingType is non-empty
// POST: Returns the value to store or a validation error
func Normalize(settingType, value string) (string, error) {
	def, ok := Lookup(settingType)
	if !ok {
		return "", ErrUnknownType
	}
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) > 500 {
		return "", ErrValueTooLong
	}
	switch def.Kind {
	case KindBool:
		switch value {
		case "1", "on", "true":
			return "1", nil
		case "", "0", "off", "false":
			return "0", nil
		}
		return "", ErrInvalidBool
	case KindInt:
		if _, err := strconv.Atoi(value); err != nil {
			return "", ErrInvalidInt
		}
	}
	if settingType == SiteName && value == "" {
		return "", ErrEmptySiteName
	}
	return value, nil
}

// Values is a snapshot of all settings keyed by type, with defaults filled in.
type Values map[string]string

// Get returns the value for a type, or its default when unset.
func (v Values) Get(settingType string) string {
	if val, ok := v[settingType]; ok {
		return val
	}
	if def, ok := Lookup(settingType); ok {
		return def.Value
	}
	return ""
}

// Bool reports whether a bool setting is enabled.
func (v Values) Bool(settingType string) bool {
	return v.Get(settingType) == "1"
}

// Int returns an int setting, or fallback when unparsable.
func (v Values) Int(settingType string, fallback int) int {
	n, err := strconv.Atoi(v.Get(settingType))
	if err != nil {
		return fallback
	}
	return n
}
