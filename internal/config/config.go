package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	PaymentProvider     string // "fake" or "stripe"
	StripeSecretKey     string
	WebhookSecret       string // optional HMAC secret for the provider webhook
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for reservation emails (Brevo)
	MailFrom            string // MAIL_FROM sender email
	HoldTTL             time.Duration
	ReservationPrice    int64 // flat default reservation price in cents
	Currency            string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	provider := strings.ToLower(viper.GetString("PAYMENT_PROVIDER"))
	if provider == "" {
		provider = "fake"
	}

	holdTTLMinutes := viper.GetInt("HOLD_TTL_MINUTES")
	if holdTTLMinutes <= 0 {
		holdTTLMinutes = 15
	}

	price := viper.GetInt64("RESERVATION_PRICE_CENTS")
	if price <= 0 {
		price = 2500
	}

	currency := strings.ToLower(viper.GetString("CURRENCY"))
	if currency == "" {
		currency = "usd"
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		PaymentProvider:     provider,
		StripeSecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
		WebhookSecret:       viper.GetString("PROVIDER_WEBHOOK_SECRET"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		HoldTTL:             time.Duration(holdTTLMinutes) * time.Minute,
		ReservationPrice:    price,
		Currency:            currency,
	}, nil
}
