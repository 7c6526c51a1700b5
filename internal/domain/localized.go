package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lang is a content language.
type Lang string

const (
	English Lang = "en"
	Arabic  Lang = "ar"
)

// Langs lists the supported languages in display order.
var Langs = []Lang{English, Arabic}

// ParseLang parses "en" or "ar".
func ParseLang(s string) (Lang, error) {
	switch Lang(s) {
	case English, Arabic:
		return Lang(s), nil
	default:
		return "", fmt.Errorf("unknown language %q", s)
	}
}

// Localized is a bilingual text value.
type Localized struct {
	En string `json:"en" validate:"notblank"`
	Ar string `json:"ar" validate:"notblank"`
}

// Get returns the text for lang.
func (l Localized) Get(lang Lang) string {
	if lang == Arabic {
		return l.Ar
	}
	return l.En
}

// LocalizedList holds one ordered list per language. The lists are
// independent; index i in En has no relation to index i in Ar.
type LocalizedList struct {
	En []string `json:"en"`
	Ar []string `json:"ar"`
}

// Get returns the list for lang. The returned slice must not be modified.
func (l LocalizedList) Get(lang Lang) []string {
	if lang == Arabic {
		return l.Ar
	}
	return l.En
}

// Add returns a copy of l with value appended to lang's list. Blank values
// are ignored.
func (l LocalizedList) Add(lang Lang, value string) LocalizedList {
	value = strings.TrimSpace(value)
	out := l.Clone()
	if value == "" {
		return out
	}
	switch lang {
	case English:
		out.En = append(out.En, value)
	case Arabic:
		out.Ar = append(out.Ar, value)
	}
	return out
}

// Remove returns a copy of l without the item at index in lang's list.
// An out-of-range index returns an unchanged copy.
func (l LocalizedList) Remove(lang Lang, index int) LocalizedList {
	out := l.Clone()
	list := out.Get(lang)
	if index < 0 || index >= len(list) {
		return out
	}
	list = append(list[:index], list[index+1:]...)
	switch lang {
	case English:
		out.En = list
	case Arabic:
		out.Ar = list
	}
	return out
}

// Clone returns a deep copy with non-nil slices.
func (l LocalizedList) Clone() LocalizedList {
	return LocalizedList{
		En: append(make([]string, 0, len(l.En)), l.En...),
		Ar: append(make([]string, 0, len(l.Ar)), l.Ar...),
	}
}

// MarshalJSON writes empty lists as [].
func (l LocalizedList) MarshalJSON() ([]byte, error) {
	type plain LocalizedList
	return json.Marshal(plain(l.Clone()))
}
