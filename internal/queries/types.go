package queries

import "encoding/json"

// SubmitResult is returned by Submit.
type SubmitResult struct {
	Submitted bool          `json:"submitted"`
	Message   string        `json:"message"`
	Query     string        `json:"query,omitempty"`
	QARating  *RatingResult `json:"qaRating,omitempty"`
}

// Match is one other user's submission of the searched query.
type Match struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Timestamp   string `json:"timestamp,omitempty"`
	MatchStatus string `json:"matchStatus,omitempty"`
}

// MatchResult holds the matches found, or a structured error when the
// queries table is missing.
type MatchResult struct {
	Matches []Match
	Error   string
}

// MarshalJSON renders the match list, or {"error": ...} when Error is set.
func (r MatchResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: r.Error})
	}
	matches := r.Matches
	if matches == nil {
		matches = []Match{}
	}
	return json.Marshal(matches)
}

// FlagRequest identifies the caller's row to flag.
type FlagRequest struct {
	TargetSentence string `json:"targetSentence"`
	TaskID         string `json:"taskId"`
	Flag           string `json:"flag"`
}

// FlagResult reports the flagged row or a structured error.
type FlagResult struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Row     int    `json:"row,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Rating statuses.
const (
	RatingAwaiting = "awaiting"
	RatingRated    = "rated"
)

// RatingResult reports a QA rating or a structured error.
type RatingResult struct {
	Status    string  `json:"status,omitempty"`
	Message   string  `json:"message,omitempty"`
	Rating    any     `json:"rating,omitempty"`
	Reasoning *string `json:"reasoning,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Submission outcomes.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
)

// SubmissionEvent is published after every stored submission.
type SubmissionEvent struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Query   string `json:"query"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Outcome string `json:"outcome"`
	Row     int    `json:"row"`
}

// Attributes are attached to the published message for subscriber filtering.
func (e SubmissionEvent) Attributes() map[string]string {
	return map[string]string{"outcome": e.Outcome}
}
