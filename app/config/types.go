package config

// ChannelConfig represents a complete channel configuration
type ChannelConfig struct {
	Channel  ChannelInfo     `yaml:"channel"`
	Settings ChannelSettings `yaml:"settings"`
}

// ChannelInfo identifies one account on one platform
type ChannelInfo struct {
	Source  string `yaml:"source"`
	Account string `yaml:"account"`
	// FeedURL is required for rss channels and ignored for youtube channels,
	// where the uploads feed is derived from the resolved channel id.
	FeedURL string `yaml:"feed_url"`
}

// ChannelSettings contains per-channel ingestion settings
type ChannelSettings struct {
	Enabled        bool `yaml:"enabled"`
	Timeout        int  `yaml:"timeout"` // seconds
	ExtractArticle bool `yaml:"extract_article"`
}
