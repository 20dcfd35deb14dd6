package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// setProviderSecret sets the secret for a provider from an environment variable.
func setProviderSecret(cfg *Config, providerName, envVar string) {
	if key := os.Getenv(envVar); key != "" {
		if cfg.Providers == nil {
			cfg.Providers = make(Providers)
		}
		if provider, exists := cfg.Providers[providerName]; exists {
			provider.Secret = &key
			cfg.Providers[providerName] = provider
		} else {
			cfg.Providers[providerName] = Provider{Enabled: false, Secret: &key}
		}
	}
}

// Load reads a YAML file from the given path and returns a new Manager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()

		if err := saveDefaultConfig(path, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		manager := NewManager(defaultCfg)
		if err := manager.EnsureDirectories(); err != nil {
			return nil, err
		}
		return manager, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Override with environment variables if set
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if token := os.Getenv("ABS_API_TOKEN"); token != "" {
		cfg.Abs.APIToken = token
	}
	setProviderSecret(&cfg, "audible", "AUDIBLE_API_KEY")
	setProviderSecret(&cfg, "googlebooks", "GOOGLE_BOOKS_API_KEY")

	manager := NewManager(&cfg)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}

	return manager, nil
}

// applyDefaults fills zero values that validation would otherwise reject or
// that downstream code depends on.
func applyDefaults(cfg *Config) {
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "./metadata-cache.db"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 30 * 24 * time.Hour
	}
	if cfg.Rename.Template == "" {
		cfg.Rename.Template = defaultRenameTemplate
	}
	if cfg.Write.CoverSize == 0 {
		cfg.Write.CoverSize = 1000
	}
	if cfg.Write.CoverQuality == 0 {
		cfg.Write.CoverQuality = 85
	}
	if len(cfg.Genres.Approved) == 0 {
		cfg.Genres.Approved = approvedGenres()
	}
	if cfg.Genres.Aliases == nil {
		cfg.Genres.Aliases = defaultGenreAliases()
	}
}

const defaultRenameTemplate = "%if{$series,%asciify{$series} #$sequence - }%asciify{$title}"

// createDefaultConfig creates a new Config with sensible default values.
func createDefaultConfig() *Config {
	return &Config{
		ScanPaths:   []string{"./audiobooks"},
		LibraryPath: "./library",
		MaxWorkers:  4,
		Write: Write{
			BackupTags:    true,
			SkipUnchanged: true,
			EmbedCovers:   false,
			CoverSize:     1000,
			CoverQuality:  85,
		},
		Rename: Rename{
			Template:   defaultRenameTemplate,
			Reorganize: false,
		},
		Genres: Genres{
			Enforcement: true,
			Cap:         3,
			Approved:    approvedGenres(),
			Aliases:     defaultGenreAliases(),
		},
		Providers: Providers{
			"audible": {
				Enabled:  true,
				Priority: 1,
			},
			"googlebooks": {
				Enabled:  true,
				Priority: 2,
			},
			"openlibrary": {
				Enabled:  false,
				Priority: 3,
			},
		},
		Abs: Abs{
			BaseURL:   "",
			APIToken:  "",
			LibraryID: "",
		},
		Cache: Cache{
			Path: "./metadata-cache.db",
			TTL:  30 * 24 * time.Hour,
		},
		Watcher: Watcher{Enabled: false},
		Telegram: Telegram{
			Enabled:      false,
			Token:        "", // Can be obtained with https://t.me/BotFather
			AllowedUsers: []string{},
		},
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			PrintRoutes: false,
			Port:        3636,
		},
		Jobs: Jobs{
			Log:     true,
			LogPath: "./logs/jobs",
			Webhooks: WebhookConfig{
				Enabled:  false,
				JobTypes: []string{},
				Command:  "",
			},
		},
	}
}

// approvedGenres is the default vocabulary genre enforcement folds into.
func approvedGenres() []string {
	return []string{
		"Adventure",
		"Biography",
		"Business",
		"Children",
		"Classics",
		"Fantasy",
		"Historical Fiction",
		"History",
		"Horror",
		"Humor",
		"Literary Fiction",
		"Memoir",
		"Mystery",
		"Nonfiction",
		"Philosophy",
		"Poetry",
		"Romance",
		"Science",
		"Science Fiction",
		"Self-Help",
		"Thriller",
		"True Crime",
		"Young Adult",
	}
}

// defaultGenreAliases maps raw provider genre strings onto the approved
// vocabulary. Keys are matched case-insensitively.
func defaultGenreAliases() map[string][]string {
	return map[string][]string{
		"sci-fi":                {"Science Fiction"},
		"scifi":                 {"Science Fiction"},
		"sf":                    {"Science Fiction"},
		"sci-fi & fantasy":      {"Science Fiction", "Fantasy"},
		"science fiction & fantasy": {"Science Fiction", "Fantasy"},
		"juvenile fiction":      {"Children"},
		"kids":                  {"Children"},
		"biographies & memoirs": {"Biography", "Memoir"},
		"autobiography":         {"Memoir"},
		"suspense":              {"Thriller"},
		"crime":                 {"Mystery"},
		"detective":             {"Mystery"},
		"mysteries":             {"Mystery"},
		"epic fantasy":          {"Fantasy"},
		"teen":                  {"Young Adult"},
		"ya":                    {"Young Adult"},
		"comedy":                {"Humor"},
		"non-fiction":           {"Nonfiction"},
		"general fiction":       {"Literary Fiction"},
		"fiction":               {"Literary Fiction"},
	}
}

// saveDefaultConfig saves the default configuration to the specified file path.
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	slog.Info("Default configuration saved", "path", path)
	return nil
}
