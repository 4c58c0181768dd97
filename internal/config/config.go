// Package config loads and validates querydesk configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/querydesk/internal/identity"
	"github.com/JakeFAU/querydesk/internal/logging"
	"github.com/JakeFAU/querydesk/internal/queries"
	"github.com/JakeFAU/querydesk/internal/querytext"
	"github.com/JakeFAU/querydesk/internal/rowstore/postgres"
	"github.com/JakeFAU/querydesk/internal/rowstore/sheets"
)

// Store providers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSheets   = "sheets"
	StoreCSV      = "csv"
)

// Publisher providers.
const (
	PublisherNone   = "none"
	PublisherMemory = "memory"
	PublisherPubSub = "pubsub"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server        ServerConfig          `mapstructure:"server"`
	Auth          AuthConfig            `mapstructure:"auth"`
	Identity      identity.Config       `mapstructure:"identity"`
	Store         StoreConfig           `mapstructure:"store"`
	Tables        queries.Tables        `mapstructure:"tables"`
	Columns       queries.Columns       `mapstructure:"columns"`
	RatingColumns queries.RatingColumns `mapstructure:"rating_columns"`
	Matching      queries.Matching      `mapstructure:"matching"`
	Extraction    querytext.Phrases     `mapstructure:"extraction"`
	Submission    SubmissionConfig      `mapstructure:"submission"`
	Timezone      string                `mapstructure:"timezone"`
	PubSub        PubSubConfig          `mapstructure:"pubsub"`
	Logging       logging.Config        `mapstructure:"logging"`
	Telemetry     TelemetryConfig       `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// StoreConfig selects and configures the row store.
type StoreConfig struct {
	Provider string          `mapstructure:"provider"`
	Postgres postgres.Config `mapstructure:"postgres"`
	Sheets   sheets.Config   `mapstructure:"sheets"`
	CSV      CSVConfig       `mapstructure:"csv"`
	// CreateTables creates missing tables on startup (memory and csv only).
	CreateTables bool `mapstructure:"create_tables"`
}

// CSVConfig configures CSV tables kept in a blob store.
type CSVConfig struct {
	// Backend is local, gcs or memory.
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// SubmissionConfig tunes the submission service.
type SubmissionConfig struct {
	DefaultIdentity string `mapstructure:"default_identity"`
	RatingLookup    bool   `mapstructure:"rating_lookup"`
}

// PubSubConfig holds metadata for submission event notifications.
type PubSubConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// TelemetryConfig controls tracing export.
type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	ProjectID   string `mapstructure:"project_id"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUERYDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	cols := queries.DefaultColumns()
	phrases := querytext.DefaultPhrases()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.request_timeout", "20s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("identity.provider", identity.KindStatic)
	v.SetDefault("identity.header", identity.DefaultHeader)
	v.SetDefault("identity.strip_prefix", "accounts.google.com:")
	v.SetDefault("identity.trust_proxy", false)
	v.SetDefault("identity.iap_audience", "")
	v.SetDefault("identity.jwt_secret", "")
	v.SetDefault("identity.email_claim", "email")
	v.SetDefault("identity.static_email", "")
	v.SetDefault("store.provider", StoreMemory)
	v.SetDefault("store.create_tables", true)
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.max_conns", 4)
	v.SetDefault("store.postgres.min_conns", 0)
	v.SetDefault("store.postgres.max_conn_lifetime", "30m")
	v.SetDefault("store.postgres.tables_relation", "row_tables")
	v.SetDefault("store.postgres.rows_relation", "table_rows")
	v.SetDefault("store.sheets.spreadsheet_id", "")
	v.SetDefault("store.sheets.credentials_file", "")
	v.SetDefault("store.csv.backend", "local")
	v.SetDefault("store.csv.dir", "data/tables")
	v.SetDefault("store.csv.bucket", "")
	v.SetDefault("store.csv.prefix", "")
	v.SetDefault("tables.queries", "QueryData")
	v.SetDefault("tables.ratings", "QARatings")
	v.SetDefault("columns.date", cols.Date)
	v.SetDefault("columns.time", cols.Time)
	v.SetDefault("columns.email", cols.Email)
	v.SetDefault("columns.query", cols.Query)
	v.SetDefault("columns.task_id", cols.TaskID)
	v.SetDefault("columns.flag", cols.Flag)
	v.SetDefault("columns.match_status", cols.MatchStatus)
	v.SetDefault("columns.display_name", cols.DisplayName)
	v.SetDefault("rating_columns.target", 1)
	v.SetDefault("rating_columns.rating", 4)
	v.SetDefault("rating_columns.reasoning", 5)
	v.SetDefault("matching.policy", string(queries.PolicyRelativeAge))
	v.SetDefault("matching.window", queries.DefaultWindow.String())
	v.SetDefault("matching.search_column", 0)
	v.SetDefault("extraction.start_phrase", phrases.Start)
	v.SetDefault("extraction.end_phrase", phrases.End)
	v.SetDefault("submission.default_identity", "anonymous")
	v.SetDefault("submission.rating_lookup", true)
	v.SetDefault("timezone", "America/New_York")
	v.SetDefault("pubsub.provider", PublisherNone)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "query-submissions")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("telemetry.service_name", "querydesk")
	v.SetDefault("telemetry.project_id", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Store.Provider {
	case StoreMemory:
	case StorePostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn must be set for the postgres store")
		}
	case StoreSheets:
		if c.Store.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("store.sheets.spreadsheet_id must be set for the sheets store")
		}
	case StoreCSV:
		switch c.Store.CSV.Backend {
		case "local":
			if c.Store.CSV.Dir == "" {
				return fmt.Errorf("store.csv.dir must be set for the local csv backend")
			}
		case "gcs":
			if c.Store.CSV.Bucket == "" {
				return fmt.Errorf("store.csv.bucket must be set for the gcs csv backend")
			}
		case "memory":
		default:
			return fmt.Errorf("store.csv.backend must be local, gcs or memory, got %q", c.Store.CSV.Backend)
		}
	default:
		return fmt.Errorf("store.provider %q is not supported", c.Store.Provider)
	}
	switch c.PubSub.Provider {
	case PublisherNone, PublisherMemory:
	case PublisherPubSub:
		if c.PubSub.ProjectID == "" || c.PubSub.TopicName == "" {
			return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set for the pubsub publisher")
		}
	default:
		return fmt.Errorf("pubsub.provider %q is not supported", c.PubSub.Provider)
	}
	switch c.Identity.Provider {
	case identity.KindStatic:
	case identity.KindHeader:
		if !c.Identity.TrustProxy {
			return fmt.Errorf("identity.trust_proxy must be enabled for the header identity provider; use iap to verify the signed assertion instead")
		}
	case identity.KindIAP:
		if c.Identity.IAPAudience == "" {
			return fmt.Errorf("identity.iap_audience must be set for the iap identity provider")
		}
	case identity.KindJWT:
		if c.Identity.JWTSecret == "" {
			return fmt.Errorf("identity.jwt_secret must be set for the jwt identity provider")
		}
	default:
		return fmt.Errorf("identity.provider %q is not supported", c.Identity.Provider)
	}
	qc, err := c.Queries()
	if err != nil {
		return err
	}
	if err := qc.Validate(); err != nil {
		return fmt.Errorf("queries: %w", err)
	}
	return nil
}

// Queries assembles the query service configuration.
func (c Config) Queries() (queries.Config, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return queries.Config{}, fmt.Errorf("timezone: %w", err)
	}
	return queries.Config{
		Tables:          c.Tables,
		Columns:         c.Columns,
		RatingColumns:   c.RatingColumns,
		Matching:        c.Matching,
		Phrases:         c.Extraction,
		DefaultIdentity: c.Submission.DefaultIdentity,
		RatingLookup:    c.Submission.RatingLookup,
		Location:        loc,
		Topic:           c.PubSub.TopicName,
	}, nil
}
