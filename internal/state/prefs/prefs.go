// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
Package prefs implements the preference reconciler: one consistent view of
the user's theme and visual flags, merged from three sources of truth.

Precedence is fixed: the in-memory defaults seed the store, a local cache
overrides the defaults at construction, and the remote profile field
overrides everything once a user attaches. The local cache is a bootstrap
and offline fallback, never a peer of the remote copy.

Writes flow the other way: every mutation lands in memory and the local
cache synchronously, then a debounced writer flushes the full preference
object to the remote profile. Preference sync is best-effort. Remote
failures are logged and swallowed, never surfaced.
*/
package prefs

import "github.com/billowria/teampulse/pkg/convert"

// # Theme Modes

// ThemeMode names one of the selectable visual themes.
type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"

	// Premium variants. All of them resolve to a dark base palette.
	ThemeSpace  ThemeMode = "space"
	ThemeOcean  ThemeMode = "ocean"
	ThemeForest ThemeMode = "forest"
	ThemeDiwali ThemeMode = "diwali"
)

// DefaultThemeMode is the out-of-the-box theme, also restored on sign-out.
const DefaultThemeMode = ThemeOcean

var premiumThemes = map[ThemeMode]bool{
	ThemeSpace:  true,
	ThemeOcean:  true,
	ThemeForest: true,
	ThemeDiwali: true,
}

// KnownThemeModes lists every accepted theme mode value.
var KnownThemeModes = []string{
	string(ThemeLight), string(ThemeDark), string(ThemeSystem),
	string(ThemeSpace), string(ThemeOcean), string(ThemeForest), string(ThemeDiwali),
}

// IsKnownThemeMode reports whether value names a selectable theme.
func IsKnownThemeMode(value string) bool {
	for _, known := range KnownThemeModes {
		if value == known {
			return true
		}
	}
	return false
}

// # Preference State

// Preferences is the full set of durable visual preferences.
type Preferences struct {
	ThemeMode            ThemeMode `json:"themeMode"`
	StaticBackground     bool      `json:"staticBackground"`
	NoMouseInteraction   bool      `json:"noMouseInteraction"`
	HideParticles        bool      `json:"hideParticles"`
	DisableLogoAnimation bool      `json:"disableLogoAnimation"`
}

// Flag names accepted by [Store.Set] and used as local cache keys.
const (
	FlagThemeMode            = "themeMode"
	FlagStaticBackground     = "staticBackground"
	FlagNoMouseInteraction   = "noMouseInteraction"
	FlagHideParticles        = "hideParticles"
	FlagDisableLogoAnimation = "disableLogoAnimation"
)

// Default returns the preference state used before any cache or remote
// data is available.
func Default() Preferences {
	return Preferences{ThemeMode: DefaultThemeMode}
}

// # Resolution

// Theme is the base palette a theme mode resolves to.
type Theme string

const (
	ResolvedLight Theme = "light"
	ResolvedDark  Theme = "dark"
)

/*
Resolve computes the base palette for a theme mode.

The result is never stored. "system" tracks the OS dark-mode signal at
evaluation time, premium variants always resolve dark, and plain modes
resolve to themselves.

Parameters:
  - mode: Selected theme mode
  - systemDark: OS dark-mode signal at evaluation time

Returns:
  - Theme: "light" or "dark"
*/
func Resolve(mode ThemeMode, systemDark bool) Theme {
	switch {
	case premiumThemes[mode]:
		return ResolvedDark
	case mode == ThemeSystem:
		if systemDark {
			return ResolvedDark
		}
		return ResolvedLight
	case mode == ThemeLight:
		return ResolvedLight
	default:
		return ResolvedDark
	}
}

// # Cache Codec

// encodeFlags serializes preferences to the five-key string form shared by
// the local cache and the remote profile field.
func encodeFlags(preferences Preferences) map[string]string {
	return map[string]string{
		FlagThemeMode:            string(preferences.ThemeMode),
		FlagStaticBackground:     convert.FromBool(preferences.StaticBackground),
		FlagNoMouseInteraction:   convert.FromBool(preferences.NoMouseInteraction),
		FlagHideParticles:        convert.FromBool(preferences.HideParticles),
		FlagDisableLogoAnimation: convert.FromBool(preferences.DisableLogoAnimation),
	}
}

// decodeFlags merges cached string values over a base state. Unknown keys
// and absent keys leave the base untouched.
func decodeFlags(base Preferences, flags map[string]string) Preferences {
	if mode, ok := flags[FlagThemeMode]; ok && IsKnownThemeMode(mode) {
		base.ThemeMode = ThemeMode(mode)
	}
	if raw, ok := flags[FlagStaticBackground]; ok {
		base.StaticBackground = convert.ToBool(raw)
	}
	if raw, ok := flags[FlagNoMouseInteraction]; ok {
		base.NoMouseInteraction = convert.ToBool(raw)
	}
	if raw, ok := flags[FlagHideParticles]; ok {
		base.HideParticles = convert.ToBool(raw)
	}
	if raw, ok := flags[FlagDisableLogoAnimation]; ok {
		base.DisableLogoAnimation = convert.ToBool(raw)
	}
	return base
}
