package driving

import "github.com/custodia-labs/ragdesk/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings. Unset or unparsable
	// keys fall back to defaults.
	Get() (domain.AppSettings, error)

	// Save validates and persists application settings.
	Save(settings domain.AppSettings) error

	// Set parses value for a dotted key and persists it if the resulting
	// settings validate.
	Set(key, value string) error

	// Reset removes every stored setting.
	Reset() error

	// Keys returns the settable keys in display order.
	Keys() []string

	// Values returns the current value of every key in display order.
	Values() ([]SettingValue, error)

	// Defaults returns default settings.
	Defaults() domain.AppSettings
}

// SettingValue is the display form of one setting.
type SettingValue struct {
	Key   string
	Value string

	// Secret marks values that should be masked when shown.
	Secret bool
}
