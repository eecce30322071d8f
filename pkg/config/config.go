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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	Eventing      EventingConfig
	Ordering      OrderingConfig
	Chat          ChatConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string `envconfig:"SDFOODS_APP_ENV" required:"true"`
	Port         string `envconfig:"SDFOODS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SDFOODS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SDFOODS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SDFOODS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SDFOODS_DB_DSN"`
	Driver string `envconfig:"SDFOODS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SDFOODS_DB_HOST"`
	Port     int    `envconfig:"SDFOODS_DB_PORT" default:"5432"`
	User     string `envconfig:"SDFOODS_DB_USER"`
	Password string `envconfig:"SDFOODS_DB_PASSWORD"`
	Name     string `envconfig:"SDFOODS_DB_NAME"`
	SSLMode  string `envconfig:"SDFOODS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SDFOODS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SDFOODS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SDFOODS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SDFOODS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SDFOODS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SDFOODS_REDIS_ADDR"`
	Password     string        `envconfig:"SDFOODS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SDFOODS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SDFOODS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SDFOODS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SDFOODS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SDFOODS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SDFOODS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SDFOODS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SDFOODS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SDFOODS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SDFOODS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SDFOODS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SDFOODS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SDFOODS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SDFOODS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SDFOODS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"SDFOODS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit    int           `envconfig:"SDFOODS_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"SDFOODS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"SDFOODS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIdentityLimit int           `envconfig:"SDFOODS_AUTH_RATE_LIMIT_REGISTER_IDENTITY_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"SDFOODS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SDFOODS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SDFOODS_AUTO_MIGRATE" default:"false"`
	ChatLLM     bool `envconfig:"SDFOODS_FEATURE_CHAT_LLM" default:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SDFOODS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	MaxAgeSeconds  int      `envconfig:"SDFOODS_CORS_MAX_AGE_SECONDS" default:"300"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL  time.Duration `envconfig:"SDFOODS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	RequestIdempotencyTTL time.Duration `envconfig:"SDFOODS_REQUEST_IDEMPOTENCY_TTL" default:"24h"`
}

// OrderingConfig holds the order lifecycle knobs that vary by deployment.
type OrderingConfig struct {
	DeliveryLeadTime time.Duration `envconfig:"SDFOODS_ORDER_DELIVERY_LEAD_TIME" default:"24h"`
	HistoryPageSize  int           `envconfig:"SDFOODS_ORDER_HISTORY_PAGE_SIZE" default:"25"`
}

type ChatConfig struct {
	OllamaURL string        `envconfig:"SDFOODS_CHAT_OLLAMA_URL" default:"http://localhost:11434"`
	Model     string        `envconfig:"SDFOODS_CHAT_MODEL" default:"phi"`
	Timeout   time.Duration `envconfig:"SDFOODS_CHAT_TIMEOUT" default:"20s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SDFOODS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SDFOODS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SDFOODS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"SDFOODS_PUBSUB_ORDERS_TOPIC" default:"sdf-order-events"`
	WalletTopic           string `envconfig:"SDFOODS_PUBSUB_WALLET_TOPIC" default:"sdf-wallet-events"`
	AnalyticsSubscription string `envconfig:"SDFOODS_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"sdf-order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"SDFOODS_BIGQUERY_DATASET" default:"sdfoods"`
	OrderEventsTable string `envconfig:"SDFOODS_BIGQUERY_ORDER_EVENTS_TABLE" default:"order_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SDFOODS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SDFOODS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SDFOODS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"SDFOODS_CRON_INTERVAL" default:"24h"`
	LockTTL               time.Duration `envconfig:"SDFOODS_CRON_LOCK_TTL" default:"25h"`
	NotificationRetention time.Duration `envconfig:"SDFOODS_CRON_NOTIFICATION_RETENTION" default:"720h"`
	OutboxRetention       time.Duration `envconfig:"SDFOODS_CRON_OUTBOX_RETENTION" default:"720h"`
	StaleBidAge           time.Duration `envconfig:"SDFOODS_CRON_STALE_BID_AGE" default:"48h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
