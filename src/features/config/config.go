package config

import "time"

// Config holds the application configuration.
type Config struct {
	ScanPaths   []string  `yaml:"scanPaths" validate:"required,min=1"`
	LibraryPath string    `yaml:"libraryPath" validate:"required"`
	MaxWorkers  int       `yaml:"max_workers" validate:"gte=1,lte=64"`
	Write       Write     `yaml:"write"`
	Rename      Rename    `yaml:"rename"`
	Genres      Genres    `yaml:"genres"`
	Providers   Providers `yaml:"providers"`
	Abs         Abs       `yaml:"audiobookshelf"`
	Cache       Cache     `yaml:"cache"`
	Watcher     Watcher   `yaml:"watcher"`
	Telegram    Telegram  `yaml:"telegram"`
	Logger      Logger    `yaml:"logger"`
	Server      Server    `yaml:"server"`
	Jobs        Jobs      `yaml:"jobs"`
}

// Write holds options for the tag write stage.
type Write struct {
	BackupTags    bool `yaml:"backup_tags"`
	SkipUnchanged bool `yaml:"skip_unchanged"`
	EmbedCovers   bool `yaml:"embed_covers"`
	CoverSize     int  `yaml:"cover_size"`
	CoverQuality  int  `yaml:"cover_quality"`
}

// Rename holds options for filename derivation and reorganization.
type Rename struct {
	Template   string `yaml:"template"`
	Reorganize bool   `yaml:"reorganize"`
}

// Genres holds the genre normalization policy. Cap 0 means uncapped.
type Genres struct {
	Enforcement bool                `yaml:"enforcement"`
	Cap         int                 `yaml:"cap" validate:"gte=0"`
	Approved    []string            `yaml:"approved"`
	Aliases     map[string][]string `yaml:"aliases"`
}

// Providers holds per-provider metadata source configuration, keyed by
// provider name. Priority orders the field merge; lower wins first.
type Providers map[string]Provider

// Provider holds configuration for one metadata source.
type Provider struct {
	Enabled  bool    `yaml:"enabled"`
	Priority int     `yaml:"priority"`
	Secret   *string `yaml:"secret,omitempty"`
	Endpoint string  `yaml:"endpoint,omitempty"`
}

// Abs holds the AudiobookShelf server connection.
type Abs struct {
	BaseURL   string `yaml:"base_url"`
	APIToken  string `yaml:"api_token"`
	LibraryID string `yaml:"library_id"`
}

// Cache holds the provider response cache settings.
type Cache struct {
	Path string        `yaml:"path" validate:"required"`
	TTL  time.Duration `yaml:"ttl"`
}

// Watcher enables debounced auto-rescans when new files land in scan paths.
type Watcher struct {
	Enabled bool `yaml:"enabled"`
}

// Telegram holds the optional notification bot settings.
type Telegram struct {
	Enabled      bool     `yaml:"enabled"`
	Token        string   `yaml:"token"`
	AllowedUsers []string `yaml:"allowedUsers"`
}

// Logger holds the configuration for the app logging.
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// Server holds the configuration for the Fiber server.
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Jobs holds the job runner configuration.
type Jobs struct {
	Log      bool          `yaml:"log"`
	LogPath  string        `yaml:"log_path"`
	Webhooks WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig runs a shell command when jobs of the listed types finish.
type WebhookConfig struct {
	Enabled  bool     `yaml:"enabled"`
	JobTypes []string `yaml:"job_types"`
	Command  string   `yaml:"command"`
}
