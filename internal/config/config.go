package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env          string // application environment (e.g. "development", "production")
    Port         string // HTTP port to listen on
    PublicURL    string // external base URL, used in reset links and checkout redirects
    DBUser       string // database username
    DBPass       string // database password (optional)
    DBHost       string // database host address
    DBPort       string // database port number
    DBName       string // database name
    JWTSecret    string // secret used to sign session tokens
    JWTTTLMin    int    // session token time-to-live in minutes; the cookie uses the same value
    BcryptCost   int    // bcrypt cost for password hashing
    SMTPHost     string // SMTP server host; empty disables outbound email
    SMTPPort     string // SMTP server port
    SMTPUser     string // SMTP username (optional)
    SMTPPass     string // SMTP password (optional)
    MailFrom     string // From address for outbound email
    MailFromName string // From display name for outbound email
    StripeSecret string // Stripe API secret key; empty disables checkout
    AMQPURL      string // RabbitMQ URL; empty disables booking events
    UploadDir    string // directory where resized images are written
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Collaborator
// settings (SMTP, Stripe, RabbitMQ) are optional so the API can run in
// development without the full set of external services.
func Load() Config {
    return Config{
        Env:          must("APP_ENV"),
        Port:         must("APP_PORT"),
        PublicURL:    getenvDefault("APP_PUBLIC_URL", "http://localhost:3000"),
        DBUser:       must("DB_USER"),
        DBPass:       os.Getenv("DB_PASS"), // empty allowed
        DBHost:       must("DB_HOST"),
        DBPort:       must("DB_PORT"),
        DBName:       must("DB_NAME"),
        JWTSecret:    must("JWT_SECRET"),
        JWTTTLMin:    mustInt("JWT_TTL_MIN"),
        BcryptCost:   mustInt("BCRYPT_COST"),
        SMTPHost:     os.Getenv("SMTP_HOST"),
        SMTPPort:     getenvDefault("SMTP_PORT", "587"),
        SMTPUser:     os.Getenv("SMTP_USER"),
        SMTPPass:     os.Getenv("SMTP_PASS"),
        MailFrom:     getenvDefault("MAIL_FROM", "hello@gotours.local"),
        MailFromName: getenvDefault("MAIL_FROM_NAME", "GoTours"),
        StripeSecret: os.Getenv("STRIPE_SECRET_KEY"),
        AMQPURL:      os.Getenv("RABBITMQ_URL"),
        UploadDir:    getenvDefault("UPLOAD_DIR", "public/img"),
    }
}

// IsProduction reports whether the app runs with production error formatting.
func (c Config) IsProduction() bool { return c.Env == "production" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func getenvDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}
