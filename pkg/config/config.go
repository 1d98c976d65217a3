package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Drivers      DriversConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"FLEETOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"FLEETOPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLEETOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLEETOPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FLEETOPS_DB_DSN"`
	Driver string `envconfig:"FLEETOPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLEETOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"FLEETOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLEETOPS_DB_USER"`
	LegacyPassword string `envconfig:"FLEETOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLEETOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLEETOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLEETOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLEETOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLEETOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLEETOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLEETOPS_REDIS_URL"`
	Address      string        `envconfig:"FLEETOPS_REDIS_ADDR"`
	Password     string        `envconfig:"FLEETOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLEETOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLEETOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLEETOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLEETOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLEETOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLEETOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// DriversConfig points at the external driver directory service that
// resolves CURPs.
type DriversConfig struct {
	BaseURL string        `envconfig:"FLEETOPS_DRIVERS_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"FLEETOPS_DRIVERS_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FLEETOPS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FLEETOPS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FLEETOPS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"FLEETOPS_GCS_BUCKET_NAME" required:"true"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"FLEETOPS_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured megabyte cap into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMB) * 1024 * 1024
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FLEETOPS_AUTO_MIGRATE" default:"false"`
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
