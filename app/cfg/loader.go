package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const defaultSystemPrompt = "You are an analyst distilling channel transcripts into discrete topics. " +
	"For the given content, extract every distinct topic discussed. " +
	"Each topic needs a short name, a self-contained content summary, and comma-separated keywords. " +
	"Respond only with JSON matching the provided schema."

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./topicast.db" description:"Path to the SQLite database file"`

	// Application configuration
	ChannelsDir    string `long:"channels-dir" env:"CHANNELS_DIR" default:"./channels" description:"Directory containing channel configuration files"`
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount    int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for topic extraction"`
	IdleDelay      int    `long:"idle-delay" env:"IDLE_DELAY" default:"60" description:"Worker sleep in seconds when no pending item is found"`
	ErrorDelay     int    `long:"error-delay" env:"ERROR_DELAY" default:"30" description:"Worker sleep in seconds after a failed claim or extraction"`
	IngestInterval int    `long:"ingest-interval" env:"INGEST_INTERVAL" default:"36000" description:"Ingestion cycle interval in seconds"`
	InitialSince   string `long:"initial-since" env:"INITIAL_SINCE" default:"2024-01-01" description:"Watermark date (YYYY-MM-DD) for channels with no stored items yet"`
	APIAccessKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Model configuration
	ModelBaseURL string `long:"model-base-url" env:"MODEL_BASE_URL" default:"https://api.openai.com/v1" description:"Base URL of the OpenAI-compatible completion endpoint"`
	ModelAPIKey  string `long:"model-api-key" env:"MODEL_API_KEY" description:"API key for the completion endpoint (required)" required:"true"`
	Model        string `long:"model" env:"MODEL" default:"gpt-4o-mini" description:"Model identifier used for topic extraction"`
	SystemPrompt string `long:"system-prompt" env:"SYSTEM_PROMPT" description:"System instruction for topic extraction (optional, has a built-in default)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Topicast/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:         raw.DBPath,
		ChannelsDir:    raw.ChannelsDir,
		Port:           raw.Port,
		WorkerCount:    raw.WorkerCount,
		IdleDelay:      raw.IdleDelay,
		ErrorDelay:     raw.ErrorDelay,
		IngestInterval: raw.IngestInterval,
		InitialSince:   raw.InitialSince,
		APIAccessKey:   raw.APIAccessKey,
		ModelBaseURL:   raw.ModelBaseURL,
		ModelAPIKey:    raw.ModelAPIKey,
		Model:          raw.Model,
		SystemPrompt:   cmp.Or(raw.SystemPrompt, defaultSystemPrompt),
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}

	if _, err := time.Parse("2006-01-02", cfg.InitialSince); err != nil {
		return nil, fmt.Errorf("invalid initial-since date %q: %w", cfg.InitialSince, err)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
