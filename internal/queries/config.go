package queries

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone data for hosts without a zoneinfo database

	"github.com/JakeFAU/querydesk/internal/querytext"
)

// Policy selects how the match finder filters rows by time.
type Policy string

const (
	// PolicyRelativeAge reports every match with a human-readable age.
	PolicyRelativeAge Policy = "relative_age"
	// PolicyAbsoluteWindow keeps matches whose time of day is within Window of now.
	PolicyAbsoluteWindow Policy = "absolute_window"
)

// DefaultWindow is the absolute time-of-day window.
const DefaultWindow = 40 * time.Minute

// Date and time cell formats written on submission.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Tables names the row store tables.
type Tables struct {
	Queries string `mapstructure:"queries"`
	Ratings string `mapstructure:"ratings"`
}

// Columns holds 1-based column positions in the queries table. A zero
// position means the column is not configured.
type Columns struct {
	Date   int `mapstructure:"date"`
	Time   int `mapstructure:"time"`
	Email  int `mapstructure:"email"`
	Query  int `mapstructure:"query"`
	TaskID int `mapstructure:"task_id"`
	Flag   int `mapstructure:"flag"`
	// MatchStatus is reported with each match; 0 disables it.
	MatchStatus int `mapstructure:"match_status"`
	DisplayName int `mapstructure:"display_name"`
}

// RatingColumns holds 1-based column positions in the ratings table.
type RatingColumns struct {
	Target    int `mapstructure:"target"`
	Rating    int `mapstructure:"rating"`
	Reasoning int `mapstructure:"reasoning"`
}

// Matching configures the match finder.
type Matching struct {
	Policy Policy        `mapstructure:"policy"`
	Window time.Duration `mapstructure:"window"`
	// SearchColumn is compared against the search value; defaults to Columns.Query.
	SearchColumn int `mapstructure:"search_column"`
}

// Config configures the services.
type Config struct {
	Tables          Tables
	Columns         Columns
	RatingColumns   RatingColumns
	Matching        Matching
	Phrases         querytext.Phrases
	DefaultIdentity string
	RatingLookup    bool
	Location        *time.Location
	Topic           string
}

// DefaultColumns returns the column layout of the known deployments.
func DefaultColumns() Columns {
	return Columns{
		Date:        1,
		Time:        2,
		Email:       3,
		Query:       4,
		TaskID:      5,
		Flag:        6,
		MatchStatus: 7,
		DisplayName: 8,
	}
}

// DefaultConfig returns a Config with the production defaults.
func DefaultConfig() Config {
	return Config{
		Tables:  Tables{Queries: "QueryData", Ratings: "QARatings"},
		Columns: DefaultColumns(),
		RatingColumns: RatingColumns{
			Target:    1,
			Rating:    4,
			Reasoning: 5,
		},
		Matching:        Matching{Policy: PolicyRelativeAge, Window: DefaultWindow},
		Phrases:         querytext.DefaultPhrases(),
		DefaultIdentity: "anonymous",
		RatingLookup:    true,
		Location:        mustLoadLocation("America/New_York"),
		Topic:           "query-submissions",
	}
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Tables.Queries == "" {
		return fmt.Errorf("queries table name is required")
	}
	if c.RatingLookup && c.Tables.Ratings == "" {
		return fmt.Errorf("ratings table name is required when rating lookup is enabled")
	}
	required := map[string]int{
		"columns.date":          c.Columns.Date,
		"columns.time":          c.Columns.Time,
		"columns.email":         c.Columns.Email,
		"columns.query":         c.Columns.Query,
		"columns.task_id":       c.Columns.TaskID,
		"columns.flag":          c.Columns.Flag,
		"columns.display_name":  c.Columns.DisplayName,
		"rating_columns.target": c.RatingColumns.Target,
		"rating_columns.rating": c.RatingColumns.Rating,
	}
	for name, col := range required {
		if col < 1 {
			return fmt.Errorf("%s must be a 1-based column position", name)
		}
	}
	if c.RatingColumns.Reasoning < 0 || c.Columns.MatchStatus < 0 || c.Matching.SearchColumn < 0 {
		return fmt.Errorf("column positions must not be negative")
	}
	switch c.Matching.Policy {
	case PolicyRelativeAge:
	case PolicyAbsoluteWindow:
		if c.Matching.Window <= 0 {
			return fmt.Errorf("matching.window must be positive")
		}
	default:
		return fmt.Errorf("unknown matching policy %q", c.Matching.Policy)
	}
	if c.Location == nil {
		return fmt.Errorf("time zone is required")
	}
	return nil
}

func (c Config) searchColumn() int {
	if c.Matching.SearchColumn > 0 {
		return c.Matching.SearchColumn
	}
	return c.Columns.Query
}
