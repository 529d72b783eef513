package scores

import "strings"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
	StatusPostponed Status = "postponed"
	StatusOther     Status = "other"
)

var statusAliases = map[string]Status{
	// api-sports short codes
	"TBD":  StatusScheduled,
	"NS":   StatusScheduled,
	"1H":   StatusLive,
	"HT":   StatusLive,
	"2H":   StatusLive,
	"ET":   StatusLive,
	"BT":   StatusLive,
	"P":    StatusLive,
	"LIVE": StatusLive,
	"INT":  StatusLive,
	"FT":   StatusFinished,
	"AET":  StatusFinished,
	"PEN":  StatusFinished,
	"PST":  StatusPostponed,
	"SUSP": StatusPostponed,
	"CANC": StatusOther,
	"ABD":  StatusOther,
	"AWD":  StatusOther,
	"WO":   StatusOther,

	// football-data style
	"SCHEDULED": StatusScheduled,
	"TIMED":     StatusScheduled,
	"IN_PLAY":   StatusLive,
	"PAUSED":    StatusLive,
	"FINISHED":  StatusFinished,
	"POSTPONED": StatusPostponed,
	"SUSPENDED": StatusPostponed,
	"CANCELLED": StatusOther,

	// TheSportsDB free text
	"NOT STARTED":     StatusScheduled,
	"MATCH FINISHED":  StatusFinished,
	"HALFTIME":        StatusLive,
	"HALF TIME":       StatusLive,
	"MATCH POSTPONED": StatusPostponed,
}

// ParseStatus maps provider status text onto Status. Unknown values become StatusOther.
func ParseStatus(raw string) Status {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return StatusOther
	}
	if status, ok := statusAliases[key]; ok {
		return status
	}
	switch {
	case strings.Contains(key, "POSTPON"):
		return StatusPostponed
	case strings.Contains(key, "FINISH"), strings.HasPrefix(key, "FT"):
		return StatusFinished
	case strings.Contains(key, "LIVE"), strings.Contains(key, "PLAY"),
		strings.Contains(key, "HALF"), strings.Contains(key, "QUARTER"),
		strings.Contains(key, "SET"):
		return StatusLive
	case strings.Contains(key, "SCHEDUL"), strings.Contains(key, "NOT STARTED"):
		return StatusScheduled
	default:
		return StatusOther
	}
}
