package config

const (
	EnvPrefix = "MATERIALHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "MATERIALHUB_APP_ENV"
	EnvPort      = "MATERIALHUB_APP_PORT"
	EnvDBDSN     = "MATERIALHUB_DB_DSN"
	EnvDBHost    = "MATERIALHUB_DB_HOST"
	EnvDBUser    = "MATERIALHUB_DB_USER"
	EnvDBName    = "MATERIALHUB_DB_NAME"
	EnvRedisURL  = "MATERIALHUB_REDIS_URL"
	EnvJWTSecret = "MATERIALHUB_JWT_SECRET"
	EnvJWTIssuer = "MATERIALHUB_JWT_ISSUER"

	EnvPreOrderRequirePaid       = "MATERIALHUB_PREORDER_REQUIRE_PAID_BEFORE_DELIVERY"
	EnvPreOrderPaymentTermMonths = "MATERIALHUB_PREORDER_PAYMENT_TERM_MONTHS"
	EnvStripeTimeout             = "MATERIALHUB_STRIPE_TIMEOUT"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
