package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	sslModeDisable = "disable"
	sslModeRequire = "require"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	BlobDriverLocal = "local"
	BlobDriverS3    = "s3"

	minJWTSecretLen = 32

	// CredentialTTL is fixed, credentials are valid for one day.
	CredentialTTL = 24 * time.Hour
)

type (
	Config struct {
		Host     string `mapstructure:"HOST"`
		Port     string `mapstructure:"PORT"`
		GRPCPort string `mapstructure:"GRPC_PORT"`

		DBDriver   string `mapstructure:"DB_DRIVER"`
		DBHost     string `mapstructure:"DB_HOST"`
		DBPort     string `mapstructure:"DB_PORT"`
		DBUser     string `mapstructure:"DB_USER"`
		DBPassword string `mapstructure:"DB_PASSWORD"`
		DBName     string `mapstructure:"DB_NAME"`
		DBSSLMode  string `mapstructure:"DB_SSL_MODE"`
		SQLitePath string `mapstructure:"SQLITE_PATH"`

		JWTSecret string `mapstructure:"JWT_SECRET"`
		JWTIssuer string `mapstructure:"JWT_ISSUER"`

		GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
		GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
		PublicURL          string `mapstructure:"PUBLIC_URL"`
		FrontendURL        string `mapstructure:"FRONTEND_URL"`

		BlobDriver string `mapstructure:"BLOB_DRIVER"`
		UploadDir  string `mapstructure:"UPLOAD_DIR"`
		S3Bucket   string `mapstructure:"S3_BUCKET"`
		S3Region   string `mapstructure:"S3_REGION"`
		S3Endpoint string `mapstructure:"S3_ENDPOINT"`

		LogLevel string `mapstructure:"LOG_LEVEL"`
		Dev      bool   `mapstructure:"DEV"`
	}
)

var defaults = map[string]interface{}{
	"HOST":                 "0.0.0.0",
	"PORT":                 "1323",
	"GRPC_PORT":            "9000",
	"DB_DRIVER":            DBDriverPostgres,
	"DB_HOST":              "0.0.0.0",
	"DB_PORT":              "5432",
	"DB_USER":              "user",
	"DB_PASSWORD":          "password",
	"DB_NAME":              "db",
	"DB_SSL_MODE":          sslModeDisable,
	"SQLITE_PATH":          "notes.db",
	"JWT_SECRET":           "",
	"JWT_ISSUER":           "studynotes",
	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"PUBLIC_URL":           "http://localhost:1323",
	"FRONTEND_URL":         "http://localhost:5173",
	"BLOB_DRIVER":          BlobDriverLocal,
	"UPLOAD_DIR":           "uploads",
	"S3_BUCKET":            "",
	"S3_REGION":            "eu-central-1",
	"S3_ENDPOINT":          "",
	"LOG_LEVEL":            "info",
	"DEV":                  false,
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NOTES")

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", key)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

func (c *Config) ListenAddr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) GRPCListenAddr() string {
	return c.Host + ":" + c.GRPCPort
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func validate(cfg *Config) error {
	if !oneOf(cfg.DBSSLMode, sslModeDisable, sslModeRequire) {
		return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", cfg.DBSSLMode))
	}
	if !oneOf(cfg.DBDriver, DBDriverPostgres, DBDriverSQLite) {
		return errors.New(fmt.Sprintf("DB driver is invalid: %s", cfg.DBDriver))
	}
	if !oneOf(cfg.BlobDriver, BlobDriverLocal, BlobDriverS3) {
		return errors.New(fmt.Sprintf("blob driver is invalid: %s", cfg.BlobDriver))
	}
	if cfg.BlobDriver == BlobDriverS3 && cfg.S3Bucket == "" {
		return errors.New("S3 bucket is required for the s3 blob driver")
	}
	if len(cfg.JWTSecret) < minJWTSecretLen {
		return errors.New(fmt.Sprintf("JWT secret must be at least %d characters", minJWTSecretLen))
	}
	return nil
}

func oneOf(value string, valid ...string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}
