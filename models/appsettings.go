package models

import "time"

// AppTheme is the theme choice stored in the app settings
type AppTheme int

const (
	AppThemeDefault AppTheme = iota
	AppThemeLight
	AppThemeDark
)

// LanguageSetting is the display language choice stored in the app settings
type LanguageSetting int

const (
	LanguageDefault LanguageSetting = iota
	LanguageEnglish
	LanguageJapanese
)

// Model for the app_settings table
// Exactly one row exists; the store creates it lazily on first read.
type AppSettings struct {
	ID          int64           `db:"id"`
	LastUpdated time.Time       `db:"last_updated"`
	Theme       AppTheme        `db:"theme"`
	Language    LanguageSetting `db:"language"`
}
