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
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Stripe       StripeConfig
	PreOrder     PreOrderConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.PreOrder.PaymentTermMonths <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvPreOrderPaymentTermMonths)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MATERIALHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"MATERIALHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MATERIALHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MATERIALHUB_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"MATERIALHUB_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MATERIALHUB_DB_DSN"`
	Driver string `envconfig:"MATERIALHUB_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MATERIALHUB_DB_HOST"`
	Port     int    `envconfig:"MATERIALHUB_DB_PORT" default:"5432"`
	User     string `envconfig:"MATERIALHUB_DB_USER"`
	Password string `envconfig:"MATERIALHUB_DB_PASSWORD"`
	Name     string `envconfig:"MATERIALHUB_DB_NAME"`
	SSLMode  string `envconfig:"MATERIALHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MATERIALHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MATERIALHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MATERIALHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MATERIALHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MATERIALHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MATERIALHUB_REDIS_ADDR"`
	Password     string        `envconfig:"MATERIALHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"MATERIALHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MATERIALHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MATERIALHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MATERIALHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MATERIALHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MATERIALHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MATERIALHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MATERIALHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MATERIALHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MATERIALHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MATERIALHUB_AUTO_MIGRATE" default:"false"`
	// AsyncNotifications routes notifications through the outbox instead of inserting rows inline.
	AsyncNotifications bool `envconfig:"MATERIALHUB_ASYNC_NOTIFICATIONS" default:"true"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"MATERIALHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MATERIALHUB_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	PreOrdersTopic           string `envconfig:"MATERIALHUB_PUBSUB_PREORDERS_TOPIC" default:"mh-preorder-events"`
	OrdersTopic              string `envconfig:"MATERIALHUB_PUBSUB_ORDERS_TOPIC" default:"mh-order-events"`
	NotificationTopic        string `envconfig:"MATERIALHUB_PUBSUB_NOTIFICATION_TOPIC" default:"mh-notification-events"`
	NotificationSubscription string `envconfig:"MATERIALHUB_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"mh-notification-events-sub"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MATERIALHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MATERIALHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MATERIALHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey   string        `envconfig:"MATERIALHUB_STRIPE_API_KEY"`
	Secret   string        `envconfig:"MATERIALHUB_STRIPE_SECRET"`
	Env      string        `envconfig:"MATERIALHUB_STRIPE_ENV" default:"test"`
	Currency string        `envconfig:"MATERIALHUB_STRIPE_CURRENCY" default:"usd"`
	Timeout  time.Duration `envconfig:"MATERIALHUB_STRIPE_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PreOrderConfig struct {
	// RequirePaidBeforeDelivery rejects deliver on unpaid requests. Disable for cash-on-delivery.
	RequirePaidBeforeDelivery bool `envconfig:"MATERIALHUB_PREORDER_REQUIRE_PAID_BEFORE_DELIVERY" default:"true"`
	PaymentTermMonths         int  `envconfig:"MATERIALHUB_PREORDER_PAYMENT_TERM_MONTHS" default:"1"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"MATERIALHUB_CRON_INTERVAL" default:"15m"`
	LockTTL               time.Duration `envconfig:"MATERIALHUB_CRON_LOCK_TTL" default:"10m"`
	NotificationRetention time.Duration `envconfig:"MATERIALHUB_NOTIFICATION_RETENTION" default:"720h"`
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
	for _, env := range dbPartEnvVars {
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
