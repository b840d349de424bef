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
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Google        GoogleConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	MercadoPago   MercadoPagoConfig
	DLocal        DLocalConfig
	Stripe        StripeConfig
	Checkout      CheckoutConfig
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
	Env          string `envconfig:"NOSTRA_APP_ENV" required:"true"`
	Port         string `envconfig:"NOSTRA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NOSTRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NOSTRA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NOSTRA_DB_DSN"`
	Driver string `envconfig:"NOSTRA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NOSTRA_DB_HOST"`
	LegacyPort     int    `envconfig:"NOSTRA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NOSTRA_DB_USER"`
	LegacyPassword string `envconfig:"NOSTRA_DB_PASSWORD"`
	LegacyName     string `envconfig:"NOSTRA_DB_NAME"`
	LegacySSLMode  string `envconfig:"NOSTRA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NOSTRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NOSTRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NOSTRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NOSTRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NOSTRA_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"NOSTRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NOSTRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NOSTRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NOSTRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NOSTRA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NOSTRA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NOSTRA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NOSTRA_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"NOSTRA_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NOSTRA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NOSTRA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NOSTRA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NOSTRA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NOSTRA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"NOSTRA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"NOSTRA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"NOSTRA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow    time.Duration `envconfig:"NOSTRA_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupIPLimit   int           `envconfig:"NOSTRA_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"NOSTRA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"NOSTRA_AUTO_MIGRATE" default:"false"`
}

type GoogleConfig struct {
	ClientID string `envconfig:"NOSTRA_GOOGLE_CLIENT_ID"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"NOSTRA_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"NOSTRA_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"NOSTRA_PUBSUB_ORDERS_TOPIC" default:"np-order-events"`
}

type MercadoPagoConfig struct {
	AccessToken string `envconfig:"NOSTRA_MERCADOPAGO_ACCESS_TOKEN"`
	BaseURL     string `envconfig:"NOSTRA_MERCADOPAGO_BASE_URL" default:"https://api.mercadopago.com"`
}

type DLocalConfig struct {
	APIKey    string `envconfig:"NOSTRA_DLOCAL_API_KEY"`
	SecretKey string `envconfig:"NOSTRA_DLOCAL_SECRET_KEY"`
	BaseURL   string `envconfig:"NOSTRA_DLOCAL_BASE_URL" default:"https://api.dlocalgo.com"`
}

type StripeConfig struct {
	Secret  string `envconfig:"NOSTRA_STRIPE_SECRET"`
	BaseURL string `envconfig:"NOSTRA_STRIPE_BASE_URL" default:"https://api.stripe.com"`
	Env     string `envconfig:"NOSTRA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	ReturnBaseURL string        `envconfig:"NOSTRA_CHECKOUT_RETURN_BASE_URL" default:"http://localhost:8081"`
	Currency      string        `envconfig:"NOSTRA_CHECKOUT_CURRENCY" default:"ARS"`
	CartTTL       time.Duration `envconfig:"NOSTRA_CART_TTL" default:"168h"`
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
