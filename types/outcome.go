package types

// Status is the per-item outcome of a pipeline stage
type Status string

const (
	StatusPending Status = ""
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome records a stage result for one item. Reason is set for failed and skipped.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func OK() Outcome { return Outcome{Status: StatusOK} }

func Failed(reason string) Outcome { return Outcome{Status: StatusFailed, Reason: reason} }

func Skipped(reason string) Outcome { return Outcome{Status: StatusSkipped, Reason: reason} }

func (o Outcome) OK() bool { return o.Status == StatusOK }

func (o Outcome) Failed() bool { return o.Status == StatusFailed }

func (o Outcome) Skipped() bool { return o.Status == StatusSkipped }

func (o Outcome) String() string {
	if o.Reason == "" {
		return string(o.Status)
	}
	return string(o.Status) + "(" + o.Reason + ")"
}
