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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Completion   CompletionConfig
	Retry        RetryConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	Recommend    RecommendConfig
	Owner        OwnerConfig
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
	Env          string `envconfig:"MESHILOG_APP_ENV" required:"true"`
	Port         string `envconfig:"MESHILOG_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MESHILOG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MESHILOG_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MESHILOG_DB_DSN"`
	Driver string `envconfig:"MESHILOG_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MESHILOG_DB_HOST"`
	LegacyPort     int    `envconfig:"MESHILOG_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MESHILOG_DB_USER"`
	LegacyPassword string `envconfig:"MESHILOG_DB_PASSWORD"`
	LegacyName     string `envconfig:"MESHILOG_DB_NAME"`
	LegacySSLMode  string `envconfig:"MESHILOG_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"MESHILOG_DB_SQLITE_PATH" default:"meshilog.db"`

	MaxOpenConns    int           `envconfig:"MESHILOG_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MESHILOG_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MESHILOG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MESHILOG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MESHILOG_REDIS_URL"`
	Address      string        `envconfig:"MESHILOG_REDIS_ADDR"`
	Password     string        `envconfig:"MESHILOG_REDIS_PASSWORD"`
	DB           int           `envconfig:"MESHILOG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MESHILOG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MESHILOG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MESHILOG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MESHILOG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MESHILOG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MESHILOG_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MESHILOG_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MESHILOG_JWT_EXPIRATION_MINUTES" default:"10080"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MESHILOG_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MESHILOG_AUTO_MIGRATE" default:"false"`
}

// CompletionConfig points at the external text/vision completion service.
type CompletionConfig struct {
	APIKey      string        `envconfig:"MESHILOG_COMPLETION_API_KEY"`
	BaseURL     string        `envconfig:"MESHILOG_COMPLETION_BASE_URL" default:"https://api.openai.com/v1"`
	Model       string        `envconfig:"MESHILOG_COMPLETION_MODEL" default:"gpt-4o-mini"`
	VisionModel string        `envconfig:"MESHILOG_COMPLETION_VISION_MODEL" default:"gpt-4o-mini"`
	Timeout     time.Duration `envconfig:"MESHILOG_COMPLETION_TIMEOUT" default:"30s"`
}

// RetryConfig is the single retry policy applied to external-service calls.
type RetryConfig struct {
	MaxAttempts uint64        `envconfig:"MESHILOG_RETRY_MAX_ATTEMPTS" default:"3"`
	BaseDelay   time.Duration `envconfig:"MESHILOG_RETRY_BASE_DELAY" default:"500ms"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MESHILOG_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MESHILOG_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MESHILOG_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"MESHILOG_GCS_BUCKET_NAME"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"MESHILOG_MAX_UPLOAD_MB" default:"10"`
}

// RecommendConfig tunes the dinner recommendation pipeline.
type RecommendConfig struct {
	CacheTTL time.Duration `envconfig:"MESHILOG_RECOMMEND_CACHE_TTL" default:"30m"`
}

// OwnerConfig names the one external identity granted the admin role on upsert.
type OwnerConfig struct {
	ExternalID string `envconfig:"MESHILOG_OWNER_EXTERNAL_ID"`
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
