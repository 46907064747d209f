package common

import (
	"github.com/google/uuid"
)

// NewSessionID generates a unique browser-session ID with the "ses_" prefix
// Format: ses_<uuid>
func NewSessionID() string {
	return "ses_" + uuid.New().String()
}

// NewFlowID generates a unique connect-flow ID with the "flow_" prefix
// Format: flow_<uuid>
func NewFlowID() string {
	return "flow_" + uuid.New().String()
}

// NewWindowID generates a unique window-connection ID with the "win_" prefix
// Format: win_<uuid>
func NewWindowID() string {
	return "win_" + uuid.New().String()
}
