package models

import "time"

// Config is the full application configuration, unmarshalled by viper.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Bot       BotConfig       `mapstructure:"bot"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Filters   FilterConfig    `mapstructure:"filters"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Media     MediaConfig     `mapstructure:"media"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Log       LogConfig       `mapstructure:"log"`
}

// TelegramConfig holds the user-session credentials used to read source channels.
type TelegramConfig struct {
	APIID       int    `mapstructure:"api_id"`
	APIHash     string `mapstructure:"api_hash"`
	Phone       string `mapstructure:"phone"`
	Password    string `mapstructure:"password"`
	SessionFile string `mapstructure:"session_file"`
}

// BotConfig holds the moderator-side bot settings.
type BotConfig struct {
	Token         string `mapstructure:"token"`
	ModeratorID   int64  `mapstructure:"moderator_id"`
	TargetChannel string `mapstructure:"target_channel"`
	// Optional Discord admin channel that mirrors WARN and ERROR log entries.
	DiscordToken        string `mapstructure:"discord_token"`
	AdminDiscordChannel string `mapstructure:"admin_discord_channel"`
}

// IngestConfig controls the capture path.
type IngestConfig struct {
	Channels      []string      `mapstructure:"channels"`
	AutoMode      bool          `mapstructure:"auto_mode"`
	SourceFooter  bool          `mapstructure:"source_footer"`
	GroupSettle   time.Duration `mapstructure:"group_settle"`
	HistoryLimit  int           `mapstructure:"history_limit"`
	Workers       int           `mapstructure:"workers"`
	DownloadVideo bool          `mapstructure:"download_video"`
}

// FilterConfig holds the word lists, usually merged in from config/filters.json.
type FilterConfig struct {
	Blacklist      []string `mapstructure:"blacklist" json:"blacklist"`
	StopWords      []string `mapstructure:"stop_words" json:"stop_words"`
	AlertWords     []string `mapstructure:"alert_words" json:"alert_words"`
	AlertRecipient string   `mapstructure:"alert_recipient" json:"alert_recipient"`
}

// DatabaseConfig points at the sqlite file holding the posts table.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// MediaConfig controls the staging directory for downloaded attachments.
type MediaConfig struct {
	Dir        string        `mapstructure:"dir"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// SchedulerConfig holds cron specs; an empty spec disables the job.
type SchedulerConfig struct {
	PendingDigest string `mapstructure:"pending_digest"`
	Cleanup       string `mapstructure:"cleanup"`
}

// GRPCConfig enables the health endpoint when Listen is set.
type GRPCConfig struct {
	Listen string `mapstructure:"listen"`
}

// LogConfig sets the local log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}
