package scores

import (
	"strings"
	"time"
)

type Operation string

const (
	OperationLive      Operation = "live"
	OperationStandings Operation = "standings"
)

func (o Operation) Valid() bool {
	return o == OperationLive || o == OperationStandings
}

type ProviderName string

const (
	ProviderAPISports   ProviderName = "api_sports"
	ProviderFootballAPI ProviderName = "football_api"
	ProviderTheSportsDB ProviderName = "thesportsdb"
)

// DefaultPriority lists paid providers ahead of the free fallback.
var DefaultPriority = []ProviderName{
	ProviderAPISports,
	ProviderFootballAPI,
	ProviderTheSportsDB,
}

// ParseProviderName accepts the canonical names plus common spellings.
func ParseProviderName(raw string) (ProviderName, bool) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "-", "_"))) {
	case "api_sports", "apisports":
		return ProviderAPISports, true
	case "football_api", "footballapi":
		return ProviderFootballAPI, true
	case "thesportsdb", "the_sports_db", "sportsdb":
		return ProviderTheSportsDB, true
	default:
		return "", false
	}
}

// ProviderConfig is built once at startup and never mutated afterwards.
type ProviderConfig struct {
	Name              ProviderName
	BaseURL           string
	APIKey            string
	Enabled           bool
	Priority          int
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
}
