// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	LedgerAPI           string        `mapstructure:"LEDGER_API"`
	LedgerTimeout       time.Duration `mapstructure:"LEDGER_TIMEOUT"`
	QueueInterval       time.Duration `mapstructure:"QUEUE_INTERVAL"`
	UserCooldown        time.Duration `mapstructure:"USER_COOLDOWN"`
	BalancePollInterval time.Duration `mapstructure:"BALANCE_POLL_INTERVAL"`

	LeaderboardTTL      time.Duration `mapstructure:"LEADERBOARD_TTL"`
	LeaderboardStagger  time.Duration `mapstructure:"LEADERBOARD_STAGGER"`
	LeaderboardPageSize int           `mapstructure:"LEADERBOARD_PAGE_SIZE"`

	ServerIdentity string  `mapstructure:"SERVER_IDENTITY"`
	ServerLedgerID string  `mapstructure:"SERVER_LEDGER_ID"`
	ServerCard     string  `mapstructure:"SERVER_CARD"`
	BuyRate        float64 `mapstructure:"BUY_RATE"`
	SellRate       float64 `mapstructure:"SELL_RATE"`

	UsersFile string `mapstructure:"USERS_FILE"`
	DBDriver  string `mapstructure:"DB_DRIVER"`
	DBSource  string `mapstructure:"DB_SOURCE"`
	RedisAddr string `mapstructure:"REDIS_ADDR"`

	ServerAddress       string        `mapstructure:"SERVER_ADDRESS"`
	TokenType           string        `mapstructure:"TOKEN_TYPE"`
	TokenSymmetricKey   string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	AccessTokenDuration time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	AdminUsername       string        `mapstructure:"ADMIN_USERNAME"`
	Environement        string        `mapstructure:"GO_ENV"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LEDGER_API", "http://127.0.0.1:26450/")
	v.SetDefault("LEDGER_TIMEOUT", 10*time.Second)
	v.SetDefault("QUEUE_INTERVAL", time.Second)
	v.SetDefault("USER_COOLDOWN", time.Second)
	v.SetDefault("BALANCE_POLL_INTERVAL", 30*time.Second)
	v.SetDefault("LEADERBOARD_TTL", time.Minute)
	v.SetDefault("LEADERBOARD_STAGGER", 50*time.Millisecond)
	v.SetDefault("LEADERBOARD_PAGE_SIZE", 10)
	v.SetDefault("USERS_FILE", "./data/users.yml")
	v.SetDefault("TOKEN_TYPE", "paseto")
	v.SetDefault("ADMIN_USERNAME", "admin")
}

// Load reads configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}
