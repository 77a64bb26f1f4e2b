// Package team holds the team aggregate and key helpers.
package team

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/312Evan/frcstats/internal/domain/shared"
)

// KeyPrefix is the canonical prefix of every team key.
const KeyPrefix = "frc"

// Team describes a competition team as reported upstream.
type Team struct {
	// Key is the canonical team key, e.g. "frc254".
	Key string `json:"key"`

	// Number is the numeric part of the key.
	Number int `json:"number"`

	// Nickname is the team's short display name.
	Nickname string `json:"nickname"`

	City       string `json:"city,omitempty"`
	StateProv  string `json:"state_prov,omitempty"`
	Country    string `json:"country,omitempty"`
	RookieYear int    `json:"rookie_year,omitempty"`
}

// Insights carries third-party performance metrics for one team-season.
// All fields are best-effort; consumers degrade when the provider is down.
type Insights struct {
	// EPA is the expected points added estimate.
	EPA float64 `json:"epa"`

	// EPARank is the team's EPA rank within the season.
	EPARank int `json:"epa_rank"`

	// Wins and Losses are the provider's season totals.
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Key builds a team key from a team number.
func Key(number int) string {
	return KeyPrefix + strconv.Itoa(number)
}

// ParseKey extracts the team number from a key like "frc254".
func ParseKey(key string) (int, error) {
	rest, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok || rest == "" {
		return 0, shared.WrapError("team", "ParseKey", shared.ErrParse,
			fmt.Sprintf("malformed team key %q", key), nil)
	}
	number, err := strconv.Atoi(rest)
	if err != nil || number <= 0 {
		return 0, shared.WrapError("team", "ParseKey", shared.ErrParse,
			fmt.Sprintf("malformed team key %q", key), err)
	}
	return number, nil
}

// ValidateKey reports whether key is a well-formed team key.
func ValidateKey(key string) error {
	_, err := ParseKey(key)
	return err
}
