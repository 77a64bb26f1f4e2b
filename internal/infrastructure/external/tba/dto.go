// Package tba implements The Blue Alliance API client.
// This package handles all communication with the TBA read API v3,
// including match data, events, and team registration metadata.
package tba

// ══════════════════════════════════════════════════════════════════════════════
// MATCH DTOs
// ══════════════════════════════════════════════════════════════════════════════

// MatchDTO represents a match as returned by the TBA API.
type MatchDTO struct {
	// Key is the match key, e.g. "2024miket_qm12"
	Key string `json:"key"`

	// CompLevel is the competition level: "qm", "qf", "sf", "f"
	CompLevel string `json:"comp_level"`

	// SetNumber is the elimination set number
	SetNumber int `json:"set_number"`

	// MatchNumber is the match number within its competition level
	MatchNumber int `json:"match_number"`

	// EventKey identifies the event the match belongs to
	EventKey string `json:"event_key"`

	// Alliances holds both alliance rosters and scores
	Alliances AlliancesDTO `json:"alliances"`

	// Time is the scheduled start as a Unix timestamp (0 if unknown)
	Time int64 `json:"time"`

	// ActualTime is when the match actually started (0 if not played)
	ActualTime int64 `json:"actual_time"`

	// PredictedTime is TBA's own start-time prediction (0 if unknown)
	PredictedTime int64 `json:"predicted_time"`
}

// AlliancesDTO holds both sides of a match.
type AlliancesDTO struct {
	Red  AllianceDTO `json:"red"`
	Blue AllianceDTO `json:"blue"`
}

// AllianceDTO is one alliance: score plus member team keys.
// Score is -1 until the match has been played.
type AllianceDTO struct {
	Score    int      `json:"score"`
	TeamKeys []string `json:"team_keys"`
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT AND TEAM DTOs
// ══════════════════════════════════════════════════════════════════════════════

// EventDTO represents an event as returned by the TBA API.
type EventDTO struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	City      string `json:"city,omitempty"`
	StateProv string `json:"state_prov,omitempty"`
	Year      int    `json:"year"`
}

// TeamDTO represents a team as returned by the TBA API.
type TeamDTO struct {
	Key        string `json:"key"`
	TeamNumber int    `json:"team_number"`
	Nickname   string `json:"nickname,omitempty"`
	City       string `json:"city,omitempty"`
	StateProv  string `json:"state_prov,omitempty"`
	Country    string `json:"country,omitempty"`
	RookieYear int    `json:"rookie_year,omitempty"`
}

// APIErrorDTO is the error body TBA returns on 4xx responses.
type APIErrorDTO struct {
	Errors []map[string]string `json:"Errors,omitempty"`
	Error_ string              `json:"Error,omitempty"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	if e.Error_ != "" {
		return "tba api error: " + e.Error_
	}
	return "tba api error"
}
