package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "time"     // time is used to express token lifetimes as durations
)

// minSecretLen is the minimum length accepted for a JWT signing
// secret. Anything shorter is a deployment mistake, not a runtime
// condition, so Load() refuses to start.
const minSecretLen = 32

// Default token lifetimes in milliseconds: 15 minutes for access
// tokens and 7 days for refresh tokens.
const (
    defaultAccessTTLMs  = 900000
    defaultRefreshTTLMs = 604800000
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for token
// lifetimes, ints for hashing costs.
type Config struct {
    Env           string        // application environment (e.g. "dev", "prod")
    Port          string        // HTTP port to listen on
    DBUser        string        // database username
    DBPass        string        // database password (optional)
    DBHost        string        // database host address
    DBPort        string        // database port number
    DBName        string        // database name
    AccessSecret  string        // secret used to sign access tokens
    RefreshSecret string        // secret used to sign refresh tokens (empty -> falls back to AccessSecret)
    AccessTTL     time.Duration // access token time-to-live
    RefreshTTL    time.Duration // refresh token time-to-live
    BcryptCost    int           // bcrypt cost for password and token hashing
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Token TTLs are
// configured in milliseconds (JWT_ACCESS_EXPIRATION_MS and
// JWT_REFRESH_EXPIRATION_MS) and default to 15 minutes and 7 days.
func Load() Config {
    cfg := Config{
        Env:           must("APP_ENV"),                // environment (dev/test/prod)
        Port:          must("APP_PORT"),               // port to bind the HTTP server
        DBUser:        must("DB_USER"),                // database user
        DBPass:        os.Getenv("DB_PASS"),           // database password (empty allowed)
        DBHost:        must("DB_HOST"),                // database host
        DBPort:        must("DB_PORT"),                // database port
        DBName:        must("DB_NAME"),                // database name
        AccessSecret:  must("JWT_ACCESS_SECRET"),      // secret for signing access tokens
        RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"), // optional distinct refresh secret
        AccessTTL:     envMs("JWT_ACCESS_EXPIRATION_MS", defaultAccessTTLMs),
        RefreshTTL:    envMs("JWT_REFRESH_EXPIRATION_MS", defaultRefreshTTLMs),
        BcryptCost:    envInt("BCRYPT_COST", 10),      // bcrypt cost factor
    }
    // A short secret weakens every token signed with it.  Treat it as a
    // configuration error and refuse to start rather than degrading.
    if len(cfg.AccessSecret) < minSecretLen {
        log.Fatalf("JWT_ACCESS_SECRET must be at least %d characters", minSecretLen)
    }
    if cfg.RefreshSecret != "" && len(cfg.RefreshSecret) < minSecretLen {
        log.Fatalf("JWT_REFRESH_SECRET must be at least %d characters", minSecretLen)
    }
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// envMs reads an integer millisecond value from the environment and
// converts it to a time.Duration, falling back to def when unset.
// An unparsable value is a configuration error and aborts startup.
func envMs(key string, def int64) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return time.Duration(def) * time.Millisecond
    }
    n, err := strconv.ParseInt(v, 10, 64)
    if err != nil || n <= 0 {
        log.Fatalf("invalid millisecond value for %s: %q", key, v)
    }
    return time.Duration(n) * time.Millisecond
}
