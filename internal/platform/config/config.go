package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix は設定を上書きする環境変数の接頭辞です。
const EnvPrefix = "ORGRECORDS_"

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server     ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Database   DatabaseConfig   `yaml:"database" envPrefix:"DATABASE_"`
	Storage    StorageConfig    `yaml:"storage" envPrefix:"STORAGE_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
	Auth       AuthConfig       `yaml:"auth" envPrefix:"AUTH_"`
	Scheduling SchedulingConfig `yaml:"scheduling" envPrefix:"SCHEDULING_"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle" envPrefix:"LIFECYCLE_"`
}

// ServerConfig は gRPC サーバーと管理用 HTTP に関する設定です。
type ServerConfig struct {
	ListenAddr     string  `yaml:"listen_addr" env:"LISTEN_ADDR"`
	AdminAddr      string  `yaml:"admin_addr" env:"ADMIN_ADDR"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host" env:"HOST"`
	Port               int           `yaml:"port" env:"PORT"`
	User               string        `yaml:"user" env:"USER"`
	Password           string        `yaml:"password" env:"PASSWORD"`
	Name               string        `yaml:"name" env:"NAME"`
	SSLMode            string        `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns       int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns       int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME"`
	TxMaxAttempts      int           `yaml:"tx_max_attempts" env:"TX_MAX_ATTEMPTS"`
}

// StorageConfig は永続化先の選択です。memory はテストやローカル検証向けです。
type StorageConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// AuthConfig はパスワードハッシュとアクセストークンの設定です。
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret" env:"TOKEN_SECRET"`
	TokenTTL    time.Duration `yaml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl" env:"TOKEN_TTL"`
	BcryptCost  int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
}

// SchedulingConfig は期間の重複判定ルールです。
type SchedulingConfig struct {
	Create OverlapRuleConfig `yaml:"create" envPrefix:"CREATE_"`
	Update OverlapRuleConfig `yaml:"update" envPrefix:"UPDATE_"`
}

// OverlapRuleConfig は重複判定の範囲と境界の扱いです。空の場合は既定のルールを使います。
type OverlapRuleConfig struct {
	Scope  string `yaml:"scope" env:"SCOPE"`
	Bounds string `yaml:"bounds" env:"BOUNDS"`
}

// LifecycleConfig は削除時の連鎖処理に関する設定です。
type LifecycleConfig struct {
	ClearDanglingLeaders bool `yaml:"clear_dangling_leaders" env:"CLEAR_DANGLING_LEADERS"`
}

// Load は指定されたパスから設定ファイルを読み込み、環境変数で上書きします。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must not be negative")
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = int(c.Server.RateLimitRPS)
		if c.Server.RateLimitBurst == 0 {
			c.Server.RateLimitBurst = 1
		}
	}

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = StorageDriverPostgres
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("config: storage.driver %q is not supported", c.Storage.Driver)
	}

	if c.Storage.Driver == StorageDriverPostgres {
		if err := c.Database.validateAndNormalize(); err != nil {
			return err
		}
	}

	if err := c.Log.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Scheduling.Create.validate("scheduling.create"); err != nil {
		return err
	}
	if err := c.Scheduling.Update.validate("scheduling.update"); err != nil {
		return err
	}

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	switch {
	case d.TxMaxAttempts < 0:
		return fmt.Errorf("config: database.tx_max_attempts must not be negative")
	case d.TxMaxAttempts == 0:
		d.TxMaxAttempts = 3
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (l *LogConfig) validateAndNormalize() error {
	if l.Level == "" {
		l.Level = "info"
	}
	switch l.Format {
	case "":
		l.Format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format must be json or text")
	}
	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	if a.TokenSecret == "" {
		return fmt.Errorf("config: auth.token_secret must be set")
	}

	ttl, err := parseDurationAllowEmpty(a.TokenTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if ttl == 0 {
		ttl = time.Hour
	}
	a.TokenTTL = ttl

	if a.BcryptCost != 0 && (a.BcryptCost < 4 || a.BcryptCost > 31) {
		return fmt.Errorf("config: auth.bcrypt_cost must be between 4 and 31")
	}
	return nil
}

func (o OverlapRuleConfig) validate(field string) error {
	switch o.Scope {
	case "", "employee", "store":
	default:
		return fmt.Errorf("config: %s.scope must be employee or store", field)
	}
	switch o.Bounds {
	case "", "inclusive", "strict":
	default:
		return fmt.Errorf("config: %s.bounds must be inclusive or strict", field)
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。認証情報は URL エスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
