// Package events carries render pass events from the SetRenderer to any
// interested subscriber: the event store, the NATS notifier, the CLI.
package events

// Event is a domain event published during a render pass.
type Event interface {
	Name() string
	PassID() string
}

// Event names.
const (
	NamePassStarted      = "PassStarted"
	NameDocumentRendered = "DocumentRendered"
	NameResolutionGap    = "ResolutionGap"
	NamePassCompleted    = "PassCompleted"
	NamePassFailed       = "PassFailed"
)

// Pass identifies the render pass an event belongs to.
type Pass struct {
	ID string `json:"pass_id"`
}

func (p Pass) PassID() string { return p.ID }

// PassStarted is published once the set has been validated and planned.
type PassStarted struct {
	Pass
	Format    string `json:"format"`
	Output    string `json:"output"`
	Documents int    `json:"documents"`
	Workers   int    `json:"workers"`
}

func (PassStarted) Name() string { return NamePassStarted }

// DocumentRendered is published after a document has been written.
type DocumentRendered struct {
	Pass
	Document    string `json:"document"`
	Destination string `json:"destination"`
	Bytes       int    `json:"bytes"`
	DurationMS  int64  `json:"duration_ms"`
}

func (DocumentRendered) Name() string { return NameDocumentRendered }

// ResolutionGap is published for every reference that could not be resolved.
type ResolutionGap struct {
	Pass
	Document string `json:"document"`
	Target   string `json:"link_target"`
}

func (ResolutionGap) Name() string { return NameResolutionGap }

// PassCompleted is published when every document has been written.
type PassCompleted struct {
	Pass
	Written    int   `json:"written"`
	Gaps       int   `json:"gaps"`
	DurationMS int64 `json:"duration_ms"`
}

func (PassCompleted) Name() string { return NamePassCompleted }

// PassFailed is published when a pass aborts. Written counts the documents
// that stay on disk.
type PassFailed struct {
	Pass
	Document   string `json:"document,omitempty"`
	Error      string `json:"error"`
	Written    int    `json:"written"`
	DurationMS int64  `json:"duration_ms"`
}

func (PassFailed) Name() string { return NamePassFailed }
