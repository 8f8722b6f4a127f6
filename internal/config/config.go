// Package config loads runtime configuration from the environment, an
// optional .env file and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable holding the YAML overlay path.
const ConfigFileEnv = "WLT_CONFIG_FILE"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	CORS     CORSConfig     `yaml:"cors"`
	Cache    CacheConfig    `yaml:"cache"`
	Media    MediaConfig    `yaml:"media"`
	Seed     SeedConfig     `yaml:"seed"`
}

type ServerConfig struct {
	Host            string        `env:"HOST,default=0.0.0.0" yaml:"host"`
	Port            int           `env:"PORT,default=5000" yaml:"port"`
	BasePath        string        `env:"API_BASE_PATH,default=/api" yaml:"base_path"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,default=15s" yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT,default=10s" yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

type DatabaseConfig struct {
	Driver          string        `env:"DATABASE_DRIVER,default=postgres" yaml:"driver"`
	DSN             string        `env:"DATABASE_URL" yaml:"dsn"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS,default=20" yaml:"max_open_conns"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS,default=5" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME,default=30m" yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `env:"DATABASE_AUTO_MIGRATE,default=true" yaml:"auto_migrate"`
}

// ResolvedDSN returns the DSN with an sslmode chosen from the host when the
// DSN does not already carry one: local hosts disable TLS, remote hosts
// require it.
func (d DatabaseConfig) ResolvedDSN() string {
	dsn := strings.TrimSpace(d.DSN)
	if dsn == "" || !strings.Contains(dsn, "://") {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	q := u.Query()
	if q.Get("sslmode") != "" {
		return dsn
	}
	if isLocalHost(u.Hostname()) {
		q.Set("sslmode", "disable")
	} else {
		q.Set("sslmode", "require")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func isLocalHost(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1", "":
		return true
	}
	return false
}

type AuthConfig struct {
	JWTSecret          string        `env:"JWT_SECRET" yaml:"jwt_secret"`
	Issuer             string        `env:"JWT_ISSUER,default=wlt-team-space" yaml:"issuer"`
	TokenTTL           time.Duration `env:"JWT_TTL,default=1h" yaml:"token_ttl"`
	BcryptCost         int           `env:"BCRYPT_COST,default=10" yaml:"bcrypt_cost"`
	LoginRatePerSecond int           `env:"LOGIN_RATE_PER_SECOND,default=5" yaml:"login_rate_per_second"`
	LoginBurst         int           `env:"LOGIN_BURST,default=10" yaml:"login_burst"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info" yaml:"level"`
	Format string `env:"LOG_FORMAT,default=text" yaml:"format"`
}

type CORSConfig struct {
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*" yaml:"allowed_origins"`
}

// Origins splits the comma separated allow list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, part := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type CacheConfig struct {
	Backend       string        `env:"CACHE_BACKEND,default=memory" yaml:"backend"`
	RedisAddr     string        `env:"REDIS_ADDR" yaml:"redis_addr"`
	RedisPassword string        `env:"REDIS_PASSWORD" yaml:"redis_password"`
	RedisDB       int           `env:"REDIS_DB,default=0" yaml:"redis_db"`
	TTL           time.Duration `env:"CACHE_TTL,default=5m" yaml:"ttl"`
	Size          int           `env:"CACHE_SIZE,default=1024" yaml:"size"`
}

type MediaConfig struct {
	Backend            string `env:"MEDIA_BACKEND,default=local" yaml:"backend"`
	ImageKitPrivateKey string `env:"IMAGEKIT_PRIVATE_KEY" yaml:"imagekit_private_key"`
	ImageKitUploadURL  string `env:"IMAGEKIT_UPLOAD_URL,default=https://upload.imagekit.io/api/v1/files/upload" yaml:"imagekit_upload_url"`
	Folder             string `env:"MEDIA_FOLDER,default=/uploads" yaml:"folder"`
	LocalDir           string `env:"MEDIA_LOCAL_DIR,default=./uploads" yaml:"local_dir"`
	PublicBaseURL      string `env:"MEDIA_PUBLIC_BASE_URL,default=http://localhost:5000/uploads" yaml:"public_base_url"`
	MaxUploadBytes     int64  `env:"MEDIA_MAX_UPLOAD_BYTES,default=26214400" yaml:"max_upload_bytes"`
}

type SeedConfig struct {
	AdminEmail    string `env:"SEED_ADMIN_EMAIL,default=admin@example.com" yaml:"admin_email"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD" yaml:"admin_password"`
	AdminUserName string `env:"SEED_ADMIN_USERNAME,default=admin" yaml:"admin_username"`
}

// Load reads .env (if present), the environment and the YAML overlay named by
// WLT_CONFIG_FILE. Values in the YAML file take precedence over the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromPath(os.Getenv(ConfigFileEnv))
}

// LoadFromPath is Load without the .env step and with an explicit overlay path.
func LoadFromPath(path string) (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UsesMemoryStore reports whether no database is configured.
func (c *Config) UsesMemoryStore() bool {
	return strings.TrimSpace(c.Database.DSN) == ""
}

// Validate checks required combinations.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !c.UsesMemoryStore() && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required when DATABASE_URL is set")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost %d out of range", c.Auth.BcryptCost)
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Media.Backend {
	case "local":
	case "imagekit":
		if strings.TrimSpace(c.Media.ImageKitPrivateKey) == "" {
			return fmt.Errorf("IMAGEKIT_PRIVATE_KEY is required when MEDIA_BACKEND=imagekit")
		}
	default:
		return fmt.Errorf("unknown media backend %q", c.Media.Backend)
	}
	return nil
}
