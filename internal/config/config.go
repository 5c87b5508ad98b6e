package config // package config loads application configuration from environment variables

import (
    "os"      // os provides access to environment variables
    "strings" // strings normalizes the environment name
    "time"    // time expresses session and reset lifetimes

    "github.com/joho/godotenv" // godotenv seeds the environment from a .env file
)

// DBConfig groups the MySQL connection parameters.  Any of them may be
// missing; DB-backed endpoints then answer with a db_env error instead of
// the process refusing to start.
type DBConfig struct {
    Host     string // DB_HOST
    Port     string // DB_PORT (default 3306)
    User     string // DB_USER
    Password string // DB_PASSWORD, falls back to DB_PASS
    Name     string // DB_NAME
    TLS      string // DB_TLS, passed to the driver's tls parameter ("", "true", "preferred", "skip-verify")
}

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env             string        // application environment (development, production, test)
    Port            string        // HTTP port to listen on
    DB              DBConfig      // MySQL connection
    BcryptCost      int           // bcrypt cost for password hashing
    SessionTTL      time.Duration // absolute session lifetime
    ResetTTL        time.Duration // password reset code lifetime
    ExposeResetCode bool          // include the reset code in the /auth/forgot response
    StaticDir       string        // optional directory served at /
    PurgeInterval   time.Duration // how often expired sessions and reset codes are deleted; 0 disables
    AMQPURL         string        // RabbitMQ URL; empty disables the audit/reset queues
}

// LoadDotEnv reads a .env file into the process environment when one is
// present.  Variables already set in the environment win.
func LoadDotEnv(paths ...string) {
    if len(paths) == 0 {
        paths = []string{".env"}
    }
    for _, p := range paths {
        if _, err := os.Stat(p); err == nil {
            _ = godotenv.Load(p)
        }
    }
}

// Load reads configuration values from environment variables and returns a
// Config.  Nothing here is fatal: defaults cover every field.
func Load() Config {
    env := strings.ToLower(envStr("APP_ENV", "development"))
    cost := envInt("BCRYPT_COST", 10)
    if cost < 4 || cost > 31 {
        cost = 10
    }
    pass := os.Getenv("DB_PASSWORD")
    if pass == "" {
        pass = os.Getenv("DB_PASS")
    }
    return Config{
        Env:  env,
        Port: envStr("APP_PORT", envStr("PORT", "8080")),
        DB: DBConfig{
            Host:     os.Getenv("DB_HOST"),
            Port:     envStr("DB_PORT", "3306"),
            User:     os.Getenv("DB_USER"),
            Password: pass,
            Name:     os.Getenv("DB_NAME"),
            TLS:      os.Getenv("DB_TLS"),
        },
        BcryptCost:      cost,
        SessionTTL:      envDur("SESSION_TTL", 30*24*time.Hour),
        ResetTTL:        envDur("RESET_CODE_TTL", 15*time.Minute),
        ExposeResetCode: envBool("RESET_CODE_IN_RESPONSE", env != "production"),
        StaticDir:       os.Getenv("STATIC_DIR"),
        PurgeInterval:   envDur("PURGE_INTERVAL", time.Hour),
        AMQPURL:         envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
    }
}

// Production reports whether cookies must be Secure and the stricter CSP applies.
func (c Config) Production() bool { return c.Env == "production" || c.Env == "prod" }

// DBConfigured reports whether every required database variable is present.
func (c Config) DBConfigured() bool {
    return c.DB.Host != "" && c.DB.User != "" && c.DB.Password != "" && c.DB.Name != ""
}
