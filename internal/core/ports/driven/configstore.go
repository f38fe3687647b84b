package driven

// ConfigStore is flat key/value configuration with dotted keys such as
// "ingest.chunk_size". Typed getters return the zero value for missing
// keys and for values of another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int

	// GetFloat also accepts integer values.
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores value and persists the file.
	Set(key string, value any) error

	// Delete removes a key. Missing keys are ignored.
	Delete(key string) error

	Save() error
	Load() error

	// Path is the backing file, or a placeholder for in-memory stores.
	Path() string
}
