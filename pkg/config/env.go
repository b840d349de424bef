package config

// EnvPrefix is passed to envconfig; every variable also carries an explicit
// NOSTRA_-prefixed tag so the full names stay greppable.
const EnvPrefix = "nostra"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "NOSTRA_APP_ENV"
	EnvPort     = "NOSTRA_APP_PORT"
	EnvLogLevel = "NOSTRA_LOG_LEVEL"

	EnvDBDSN      = "NOSTRA_DB_DSN"
	EnvDBHost     = "NOSTRA_DB_HOST"
	EnvDBPort     = "NOSTRA_DB_PORT"
	EnvDBUser     = "NOSTRA_DB_USER"
	EnvDBPassword = "NOSTRA_DB_PASSWORD"
	EnvDBName     = "NOSTRA_DB_NAME"

	EnvRedisURL = "NOSTRA_REDIS_URL"

	EnvJWTSecret  = "NOSTRA_JWT_SECRET"
	EnvJWTIssuer  = "NOSTRA_JWT_ISSUER"
	EnvJWTExpMins = "NOSTRA_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID       = "NOSTRA_GCP_PROJECT_ID"
	EnvGoogleClientID     = "NOSTRA_GOOGLE_CLIENT_ID"
	EnvPubSubOrdersTopic  = "NOSTRA_PUBSUB_ORDERS_TOPIC"
	EnvMercadoPagoToken   = "NOSTRA_MERCADOPAGO_ACCESS_TOKEN"
	EnvDLocalAPIKey       = "NOSTRA_DLOCAL_API_KEY"
	EnvDLocalSecretKey    = "NOSTRA_DLOCAL_SECRET_KEY"
	EnvStripeSecret       = "NOSTRA_STRIPE_SECRET"
	EnvCheckoutReturnBase = "NOSTRA_CHECKOUT_RETURN_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
