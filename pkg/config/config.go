package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	Cart          CartConfig
	Store         StoreConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PATITAS_APP_ENV" required:"true"`
	Port         string `envconfig:"PATITAS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PATITAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PATITAS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PATITAS_DB_DSN"`
	Driver string `envconfig:"PATITAS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PATITAS_DB_HOST"`
	LegacyPort     int    `envconfig:"PATITAS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PATITAS_DB_USER"`
	LegacyPassword string `envconfig:"PATITAS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PATITAS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PATITAS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PATITAS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PATITAS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PATITAS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PATITAS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PATITAS_REDIS_URL" required:"true"`
	Password     string        `envconfig:"PATITAS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PATITAS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PATITAS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PATITAS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PATITAS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PATITAS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PATITAS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig drives the auth-session cookie and its signed payload.
type SessionConfig struct {
	Secret            string `envconfig:"PATITAS_SESSION_SECRET" required:"true"`
	Issuer            string `envconfig:"PATITAS_SESSION_ISSUER" default:"patitas"`
	ExpirationMinutes int    `envconfig:"PATITAS_SESSION_EXPIRATION_MINUTES" default:"1440"`
	CookieDomain      string `envconfig:"PATITAS_SESSION_COOKIE_DOMAIN"`
	CookieSecure      bool   `envconfig:"PATITAS_SESSION_COOKIE_SECURE" default:"true"`
}

// TTL returns the session lifetime configured in minutes.
func (s SessionConfig) TTL() time.Duration {
	if s.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(s.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PATITAS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PATITAS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PATITAS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PATITAS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PATITAS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"PATITAS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"PATITAS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"PATITAS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"PATITAS_AUTO_MIGRATE" default:"false"`
	AllowRegister bool `envconfig:"PATITAS_ALLOW_REGISTER" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PATITAS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PATITAS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PATITAS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"PATITAS_GCS_BUCKET_NAME" required:"true"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"PATITAS_MAX_UPLOAD_MB" default:"5"`
}

// CartConfig holds the shipping rule and the persistence TTL for carts.
type CartConfig struct {
	FreeShippingThreshold string        `envconfig:"PATITAS_CART_FREE_SHIPPING_THRESHOLD" default:"100000"`
	FlatShippingFee       string        `envconfig:"PATITAS_CART_FLAT_SHIPPING_FEE" default:"8000"`
	TTL                   time.Duration `envconfig:"PATITAS_CART_TTL" default:"720h"`
}

// StoreConfig identifies the shop for the WhatsApp checkout redirect.
type StoreConfig struct {
	Name          string `envconfig:"PATITAS_STORE_NAME" default:"Patitas Pet Shop"`
	WhatsAppPhone string `envconfig:"PATITAS_STORE_WHATSAPP_PHONE" required:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
