package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort string

	// mysql | postgres | sqlite
	DBDriver   string
	DBLogLevel string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	PostgresDSN string
	SQLitePath  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdempTTLSecs int

	AuthEnabled    bool
	AdminAddresses []string
	AuthWindow     time.Duration

	ScoreOnTimeReward   uint32
	ScoreLatePenalty    uint32
	ScoreDefaultPenalty uint32

	Stablecoins []string
	NativeAsset string

	// asset=price pairs, e.g. "USDC=1,XLM=0.12"
	OraclePrices      []string
	OracleRedisPrefix string

	SweepLimit int
	LogLevel   string
}

// Load merges defaults, an optional config file, environment variables and
// flags. Environment keys are the upper-cased flag names (MYSQL_HOST, REDIS_ADDR, ...).
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("app-port", "8080")
	v.SetDefault("db-driver", "mysql")
	v.SetDefault("db-log-level", "warn")
	v.SetDefault("mysql-host", "mysql")
	v.SetDefault("mysql-port", "3306")
	v.SetDefault("mysql-db", "credlink")
	v.SetDefault("mysql-user", "credlink")
	v.SetDefault("mysql-pass", "credlink")
	v.SetDefault("sqlite-path", "credlink.db")
	v.SetDefault("redis-addr", "redis:6379")
	v.SetDefault("redis-db", 0)
	v.SetDefault("idempotency-ttl-seconds", 300)
	v.SetDefault("auth-enabled", true)
	v.SetDefault("auth-window", 5*time.Minute)
	v.SetDefault("score-on-time-reward", 10)
	v.SetDefault("score-late-penalty", 20)
	v.SetDefault("score-default-penalty", 100)
	v.SetDefault("stablecoins", "USDC,USDT,DAI,EURC,PYUSD")
	v.SetDefault("native-asset", "XLM")
	v.SetDefault("oracle-redis-prefix", "price:")
	v.SetDefault("sweep-limit", 500)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	c := &Config{
		AppPort:             v.GetString("app-port"),
		DBDriver:            strings.ToLower(v.GetString("db-driver")),
		DBLogLevel:          v.GetString("db-log-level"),
		MySQLHost:           v.GetString("mysql-host"),
		MySQLPort:           v.GetString("mysql-port"),
		MySQLDB:             v.GetString("mysql-db"),
		MySQLUser:           v.GetString("mysql-user"),
		MySQLPass:           v.GetString("mysql-pass"),
		PostgresDSN:         v.GetString("postgres-dsn"),
		SQLitePath:          v.GetString("sqlite-path"),
		RedisAddr:           v.GetString("redis-addr"),
		RedisPassword:       v.GetString("redis-password"),
		RedisDB:             v.GetInt("redis-db"),
		IdempTTLSecs:        v.GetInt("idempotency-ttl-seconds"),
		AuthEnabled:         v.GetBool("auth-enabled"),
		AdminAddresses:      getStringSlice(v, "auth-admins"),
		AuthWindow:          v.GetDuration("auth-window"),
		ScoreOnTimeReward:   v.GetUint32("score-on-time-reward"),
		ScoreLatePenalty:    v.GetUint32("score-late-penalty"),
		ScoreDefaultPenalty: v.GetUint32("score-default-penalty"),
		Stablecoins:         getStringSlice(v, "stablecoins"),
		NativeAsset:         v.GetString("native-asset"),
		OraclePrices:        getStringSlice(v, "oracle-prices"),
		OracleRedisPrefix:   v.GetString("oracle-redis-prefix"),
		SweepLimit:          v.GetInt("sweep-limit"),
		LogLevel:            v.GetString("log-level"),
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.AuthEnabled && c.AuthWindow <= 0 {
		return fmt.Errorf("invalid AUTH_WINDOW %s", c.AuthWindow)
	}
	if _, err := c.StaticPrices(); err != nil {
		return err
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return c.PostgresDSN
	case "sqlite":
		return c.SQLitePath
	}
	return c.MySQLDSN()
}

// StaticPrices parses OraclePrices into a price table keyed by upper-cased asset.
func (c *Config) StaticPrices() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(c.OraclePrices))
	for _, pair := range c.OraclePrices {
		asset, raw, ok := strings.Cut(pair, "=")
		asset = strings.ToUpper(strings.TrimSpace(asset))
		if !ok || asset == "" {
			return nil, fmt.Errorf("invalid ORACLE_PRICES entry %q", pair)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid ORACLE_PRICES price for %s: %w", asset, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("ORACLE_PRICES price for %s must be positive", asset)
		}
		out[asset] = price
	}
	return out, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	switch typed := v.Get(key).(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return cleanStrings(strings.Split(typed, ","))
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
