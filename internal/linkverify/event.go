package linkverify

import (
	"time"
)

// GapEvent is published to NATS for every reference a render pass could not
// resolve, for downstream processing (e.g., opening documentation issues).
type GapEvent struct {
	PassID    string    `json:"pass_id"`
	Document  string    `json:"document"`    // Source document identifier
	Target    string    `json:"link_target"` // The reference as written
	Timestamp time.Time `json:"timestamp"`
}

// PassStatus is the last known outcome of a render pass, kept in the
// JetStream key-value bucket under the pass ID.
type PassStatus struct {
	PassID     string    `json:"pass_id"`
	Succeeded  bool      `json:"succeeded"`
	Written    int       `json:"written"`
	Gaps       int       `json:"gaps"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}
