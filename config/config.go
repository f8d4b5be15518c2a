package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"channel-relay/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// defaults also registers every key with viper so AutomaticEnv can override
// keys that no config file mentions.
var defaults = map[string]any{
	"telegram.api_id":           0,
	"telegram.api_hash":         "",
	"telegram.phone":            "",
	"telegram.password":         "",
	"telegram.session_file":     "data/session.json",
	"bot.token":                 "",
	"bot.moderator_id":          0,
	"bot.target_channel":        "",
	"bot.discord_token":         "",
	"bot.admin_discord_channel": "",
	"ingest.channels":           []string{},
	"ingest.auto_mode":          false,
	"ingest.source_footer":      true,
	"ingest.group_settle":       2 * time.Second,
	"ingest.history_limit":      20,
	"ingest.workers":            8,
	"ingest.download_video":     true,
	"filters.blacklist":         []string{},
	"filters.stop_words":        []string{},
	"filters.alert_words":       []string{},
	"filters.alert_recipient":   "",
	"database.path":             "data/posts.db",
	"media.dir":                 "media",
	"media.stale_after":         24 * time.Hour,
	"scheduler.pending_digest":  "@every 6h",
	"scheduler.cleanup":         "@hourly",
	"grpc.listen":               "",
	"log.level":                 "info",
}

// LoadConfig loads configuration from several sources in dir:
// 1. .env (environment variables)
// 2. config.yaml (base configuration)
// 3. config/filters.json (word lists, merged into the base)
// Environment variables override file settings, with "." in keys replaced by "_".
// Missing files are skipped; a file that fails to parse is an error.
func LoadConfig(dir string) (*models.Config, error) {
	// .env is optional.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to parse config.yaml: %w", err)
		}
	}

	filters := viper.New()
	filters.SetConfigName("filters")
	filters.SetConfigType("json")
	filters.AddConfigPath(filepath.Join(dir, "config"))
	if err := filters.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to parse config/filters.json: %w", err)
		}
	} else if err := v.MergeConfigMap(map[string]any{"filters": filters.AllSettings()}); err != nil {
		return nil, fmt.Errorf("failed to merge config/filters.json: %w", err)
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if cfg.Filters.AlertRecipient == "" && cfg.Bot.ModeratorID != 0 {
		cfg.Filters.AlertRecipient = strconv.FormatInt(cfg.Bot.ModeratorID, 10)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing required setting at once.
func Validate(cfg *models.Config) error {
	var errs []error
	if cfg.Bot.Token == "" {
		errs = append(errs, errors.New("bot.token is required"))
	}
	if cfg.Bot.ModeratorID == 0 {
		errs = append(errs, errors.New("bot.moderator_id is required"))
	}
	if cfg.Bot.TargetChannel == "" {
		errs = append(errs, errors.New("bot.target_channel is required"))
	}
	if cfg.Telegram.APIID == 0 || cfg.Telegram.APIHash == "" {
		errs = append(errs, errors.New("telegram.api_id and telegram.api_hash are required"))
	}
	if cfg.Ingest.Workers <= 0 {
		errs = append(errs, errors.New("ingest.workers must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
