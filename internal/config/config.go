package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Token lifetimes are fixed by design (1 hour access,
// 1 year refresh) and therefore do not appear here.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	RefreshSecret  string // symmetric secret signing refresh tokens
	PrivateKey     string // PEM-encoded RSA private key (takes precedence over PrivateKeyFile)
	PrivateKeyFile string // path to a PEM file with the RSA private key
	JWKSPath       string // route the public key set is published under
	BcryptCost     int    // bcrypt cost for password hashing
	DashboardURL   string // allowed CORS origin for the admin dashboard (optional)
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. Exactly one of PRIVATE_KEY or
// PRIVATE_KEY_FILE must be set: the service must not start unable to sign
// access tokens.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		RefreshSecret:  must("REFRESH_TOKEN_SECRET"),
		PrivateKey:     os.Getenv("PRIVATE_KEY"),
		PrivateKeyFile: os.Getenv("PRIVATE_KEY_FILE"),
		JWKSPath:       getenv("JWKS_URI", "/.well-known/jwks.json"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		DashboardURL:   os.Getenv("FE_ADMIN_DASHBOARD_URL"),
	}
	if cfg.PrivateKey == "" && cfg.PrivateKeyFile == "" {
		log.Fatal("missing signing key: set PRIVATE_KEY or PRIVATE_KEY_FILE")
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
