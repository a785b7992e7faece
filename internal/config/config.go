package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	S3     S3Config
	Log    LogConfig
	CORS   CORSConfig
	Tax    TaxConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds bearer token verification settings. Tokens are issued by
// an external identity provider sharing the HMAC secret; AccessTokenExpiry
// is only used by tokens minted locally for tooling.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// S3Config holds settings for the report bucket.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TaxConfig holds the defaults applied to new filing sessions and invoices.
type TaxConfig struct {
	Currency          string
	VATRate           decimal.Decimal
	PercentageTaxRate decimal.Decimal
	WithholdingRate   decimal.Decimal
	Regime            string
}

// Load reads configuration from environment variables with the BUWIS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BUWIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_body_bytes", 10<<20)

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "buwis")
	v.SetDefault("db.password", "buwis_secret")
	v.SetDefault("db.name", "buwis_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "1h")
	v.SetDefault("jwt.issuer", "buwis-friend")

	// S3 defaults
	v.SetDefault("s3.region", "ap-southeast-1")
	v.SetDefault("s3.bucket", "buwis-reports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 900)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Tax defaults
	v.SetDefault("tax.currency", "PHP")
	v.SetDefault("tax.vat_rate", "0.12")
	v.SetDefault("tax.percentage_tax_rate", "0.03")
	v.SetDefault("tax.withholding_rate", "0")
	v.SetDefault("tax.income_tax_regime", "graduated")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "BUWIS_SERVER_PORT",
		"server.read_timeout":     "BUWIS_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "BUWIS_SERVER_WRITE_TIMEOUT",
		"server.environment":      "BUWIS_SERVER_ENVIRONMENT",
		"server.max_body_bytes":   "BUWIS_SERVER_MAX_BODY_BYTES",
		"db.host":                 "BUWIS_DB_HOST",
		"db.port":                 "BUWIS_DB_PORT",
		"db.user":                 "BUWIS_DB_USER",
		"db.password":             "BUWIS_DB_PASSWORD",
		"db.name":                 "BUWIS_DB_NAME",
		"db.sslmode":              "BUWIS_DB_SSLMODE",
		"db.max_open":             "BUWIS_DB_MAX_OPEN",
		"db.max_idle":             "BUWIS_DB_MAX_IDLE",
		"jwt.secret":              "BUWIS_JWT_SECRET",
		"jwt.access_expiry":       "BUWIS_JWT_ACCESS_EXPIRY",
		"jwt.issuer":              "BUWIS_JWT_ISSUER",
		"s3.region":               "BUWIS_S3_REGION",
		"s3.bucket":               "BUWIS_S3_BUCKET",
		"s3.endpoint":             "BUWIS_S3_ENDPOINT",
		"s3.access_key":           "BUWIS_S3_ACCESS_KEY",
		"s3.secret_key":           "BUWIS_S3_SECRET_KEY",
		"s3.presign_expiry":       "BUWIS_S3_PRESIGN_EXPIRY",
		"log.level":               "BUWIS_LOG_LEVEL",
		"log.format":              "BUWIS_LOG_FORMAT",
		"cors.allowed_origins":    "BUWIS_CORS_ALLOWED_ORIGINS",
		"tax.currency":            "BUWIS_TAX_CURRENCY",
		"tax.vat_rate":            "BUWIS_TAX_VAT_RATE",
		"tax.percentage_tax_rate": "BUWIS_TAX_PERCENTAGE_TAX_RATE",
		"tax.withholding_rate":    "BUWIS_TAX_WITHHOLDING_RATE",
		"tax.income_tax_regime":   "BUWIS_TAX_INCOME_TAX_REGIME",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if BUWIS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("BUWIS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		MaxBodyBytes: v.GetInt64("server.max_body_bytes"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Tax = TaxConfig{
		Currency: strings.ToUpper(v.GetString("tax.currency")),
		Regime:   v.GetString("tax.income_tax_regime"),
	}
	rates := map[string]*decimal.Decimal{
		"tax.vat_rate":            &cfg.Tax.VATRate,
		"tax.percentage_tax_rate": &cfg.Tax.PercentageTaxRate,
		"tax.withholding_rate":    &cfg.Tax.WithholdingRate,
	}
	for key, dst := range rates {
		d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", key, err)
		}
		*dst = d
	}

	return cfg, nil
}
