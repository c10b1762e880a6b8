package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Tournament TournamentConfig `mapstructure:"tournament"`
	Niches     []NicheConfig    `mapstructure:"niches"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Path            string `mapstructure:"path"`
	BusyTimeoutMS   int    `mapstructure:"busy_timeout_ms"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// DSN builds the sqlite connection string. WAL keeps periodic jobs readable
// while live submissions write; the busy timeout bounds write-wait time.
func (d *DatabaseConfig) DSN() string {
	busy := d.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on", d.Path, busy)
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`
	WriteTimeout int      `mapstructure:"write_timeout"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

type TournamentConfig struct {
	DailySnapshotCron  string `mapstructure:"daily_snapshot_cron"`
	WeeklyRotationCron string `mapstructure:"weekly_rotation_cron"`
	RefreshCron        string `mapstructure:"refresh_cron"`
	RefreshTimezone    string `mapstructure:"refresh_timezone"`
	RefreshStartHour   int    `mapstructure:"refresh_start_hour"`
	RefreshEndHour     int    `mapstructure:"refresh_end_hour"`
	GuildTimeout       int    `mapstructure:"guild_timeout_seconds"`
}

func (t *TournamentConfig) GuildTimeoutDuration() time.Duration {
	if t.GuildTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(t.GuildTimeout) * time.Second
}

type NicheConfig struct {
	Name           string             `mapstructure:"name"`
	Points         map[string]float64 `mapstructure:"points"`
	BonusThreshold float64            `mapstructure:"bonus_threshold"`
	BonusIncrement float64            `mapstructure:"bonus_increment"`
	BonusPoints    int                `mapstructure:"bonus_points"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "danny_bot.db")
	v.SetDefault("database.busy_timeout_ms", 5000)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("tournament.daily_snapshot_cron", "0 0 8 * * *")
	v.SetDefault("tournament.weekly_rotation_cron", "0 0 8 * * 1")
	v.SetDefault("tournament.refresh_cron", "0 0 */3 * * *")
	v.SetDefault("tournament.refresh_timezone", "America/Los_Angeles")
	v.SetDefault("tournament.refresh_start_hour", 6)
	v.SetDefault("tournament.refresh_end_hour", 18)
	v.SetDefault("tournament.guild_timeout_seconds", 30)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

func (c *Config) GetNicheConfig(name string) (*NicheConfig, error) {
	for _, niche := range c.Niches {
		if niche.Name == name {
			return &niche, nil
		}
	}
	return nil, fmt.Errorf("niche config not found: %s", name)
}
