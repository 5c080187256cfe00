// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

// Package models defines the portal's content entities: articles,
// categories, tags, authors, drafts, and comments. All entities are owned
// by the document store; nothing here survives a request in memory.
package models

// Locale identifies a supported content language.
type Locale string

const (
	LocaleFR Locale = "fr"
	LocaleEN Locale = "en"

	// DefaultLocale is the fallback for missing localized fields. The
	// portal is French-first; content is written in French and translated
	// to English when an editor gets to it.
	DefaultLocale = LocaleFR
)

// ParseLocale maps a request value onto a supported locale, falling back
// to French for anything unknown.
func ParseLocale(s string) Locale {
	switch Locale(s) {
	case LocaleFR, LocaleEN:
		return Locale(s)
	}
	return DefaultLocale
}

// LocalizedText holds one value per supported locale. A fixed struct
// rather than a string-keyed map, so a missing locale is a zero field and
// the fallback chain is checked at compile time instead of at render time.
type LocalizedText struct {
	FR string `json:"fr,omitempty"`
	EN string `json:"en,omitempty"`
}

// Resolve returns the value for the requested locale, falling back to
// French and then to English rather than failing on a missing translation.
func (l LocalizedText) Resolve(locale Locale) string {
	if locale == LocaleEN && l.EN != "" {
		return l.EN
	}
	if l.FR != "" {
		return l.FR
	}
	return l.EN
}

// Get returns the exact value for a locale with no fallback.
func (l LocalizedText) Get(locale Locale) string {
	if locale == LocaleEN {
		return l.EN
	}
	return l.FR
}

// Set assigns the value for a locale.
func (l *LocalizedText) Set(locale Locale, value string) {
	if locale == LocaleEN {
		l.EN = value
		return
	}
	l.FR = value
}

// IsEmpty reports whether no locale carries a value.
func (l LocalizedText) IsEmpty() bool {
	return l.FR == "" && l.EN == ""
}
