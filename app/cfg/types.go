package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ChannelsDir    string
	Port           string
	WorkerCount    int
	IdleDelay      int
	ErrorDelay     int
	IngestInterval int
	InitialSince   string
	APIAccessKey   string

	// Model configuration
	ModelBaseURL string
	ModelAPIKey  string
	Model        string
	SystemPrompt string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
