package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"kakeibo/internal/core"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port          string
	SecureCookies bool
	LogLevel      string

	// Backend selection
	DataBackend  string
	DataDir      string
	SQLiteDBPath string
	StoreTimeout time.Duration

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleLedgerSheet        string
	GoogleUsersSheet         string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientJSON    string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenJSON     string
	GoogleOAuthTokenFile     string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	SyncInterval time.Duration

	// Household and access
	HouseholdUsers     string
	HouseholdJoint     string
	MasterKey          string
	SessionTTL         time.Duration
	SessionMax         int
	LoginRatePerMinute int
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8081"),
		SecureCookies: getEnvBool("COOKIE_SECURE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kakeibo.db"),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 15*time.Second),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleLedgerSheet:        getEnv("GOOGLE_LEDGER_SHEET_NAME", "ledger"),
		GoogleUsersSheet:         getEnv("GOOGLE_USERS_SHEET_NAME", "user_config"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kakeibo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_mirror"),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),

		HouseholdUsers:     getEnv("HOUSEHOLD_USERS", string(core.DefaultUserA)+","+string(core.DefaultUserB)),
		HouseholdJoint:     getEnv("HOUSEHOLD_JOINT", string(core.DefaultJoint)),
		MasterKey:          os.Getenv("MASTER_KEY"),
		SessionTTL:         getEnvDuration("SESSION_TTL", 12*time.Hour),
		SessionMax:         getEnvInt("SESSION_MAX", 256),
		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
	}
}

// Household builds the owner labels from HOUSEHOLD_USERS and HOUSEHOLD_JOINT.
func (c *Config) Household() core.Household {
	return core.ParseHousehold(c.HouseholdUsers, c.HouseholdJoint)
}

// SheetsConfigured reports whether a spreadsheet and some credential are set.
func (c *Config) SheetsConfigured() bool {
	return c.GoogleSpreadsheetID != "" && (c.hasServiceAccount() || c.hasOAuth())
}

func (c *Config) hasServiceAccount() bool {
	return c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
}

func (c *Config) hasOAuth() bool {
	return (c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != "") &&
		(c.GoogleOAuthTokenJSON != "" || c.GoogleOAuthTokenFile != "")
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSheets, BackendSQLite}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.DataBackend == BackendSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if !c.hasServiceAccount() && !c.hasOAuth() {
			errors = append(errors, "sheets backend needs GOOGLE_SERVICE_ACCOUNT_JSON/_FILE or both GOOGLE_OAUTH_CLIENT_* and GOOGLE_OAUTH_TOKEN_*")
		}
		for _, f := range []string{c.GoogleServiceAccountFile, c.GoogleOAuthClientFile, c.GoogleOAuthTokenFile} {
			if f == "" {
				continue
			}
			if _, err := os.Stat(f); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credential file does not exist: %s", f))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SyncInterval != 0 && c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be 0 (disabled) or at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	h := c.Household()
	if len(h.Users) != 2 {
		errors = append(errors, fmt.Sprintf("HOUSEHOLD_USERS must name exactly two users, got %d", len(h.Users)))
	} else if h.Users[0] == h.Users[1] {
		errors = append(errors, "HOUSEHOLD_USERS must name two different users")
	}
	if h.Joint == "" {
		errors = append(errors, "HOUSEHOLD_JOINT cannot be empty")
	} else if h.IsUser(string(h.Joint)) {
		errors = append(errors, fmt.Sprintf("HOUSEHOLD_JOINT '%s' collides with a user name", h.Joint))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}
	if c.LoginRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid login rate %d: must be at least 1 per minute", c.LoginRatePerMinute))
	}
	if c.StoreTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must not be negative", c.StoreTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
