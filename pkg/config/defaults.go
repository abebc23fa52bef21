package config

const (
	defaultSQLitePath = "hemicycle.db"

	defaultDocumentURL = "https://www.europarl.europa.eu/doceo/document/CRE-10-%s_EN.html"
	defaultIndexURL    = "https://www.europarl.europa.eu/plenary/en/debates-video.html"

	defaultClassifierProvider = "openai"
	defaultClassifierRPM      = 5000
	defaultClassifierBatch    = 50

	defaultEventsTopic = "hemicycle.sittings"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			SQLitePath: defaultSQLitePath,
		},
		Fetch: FetchConfig{
			DocumentURL: defaultDocumentURL,
			IndexURL:    defaultIndexURL,
		},
		Classifier: ClassifierConfig{
			Provider:  defaultClassifierProvider,
			RPM:       defaultClassifierRPM,
			BatchSize: defaultClassifierBatch,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
	}
}
