package models

// FlowOutcome is the terminal state of a connect flow
type FlowOutcome string

const (
	// OutcomeSuccess - popup reported the authorization completed
	OutcomeSuccess FlowOutcome = "success"
	// OutcomeFailure - popup reported a provider-side error; the error detail
	// is passed through uninterpreted
	OutcomeFailure FlowOutcome = "failure"
	// OutcomeCancelled - popup was closed before any trusted message arrived
	OutcomeCancelled FlowOutcome = "cancelled"
)

// CompletionResult is returned to the calling workflow when a connect flow
// concludes.
type CompletionResult struct {
	Outcome  FlowOutcome            `json:"outcome"`
	Provider Provider               `json:"provider"`
	Detail   string                 `json:"detail,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}
