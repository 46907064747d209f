package models

import "time"

// NavigationState is a snapshot of where the user was in a multi-step
// workflow, saved before an involuntary redirect (billing wall, external
// authorization) and restored at most once afterwards.
type NavigationState struct {
	Path    string            `json:"path"`
	Phase   string            `json:"phase,omitempty"`
	Tool    string            `json:"tool,omitempty"`
	Context map[string]string `json:"context,omitempty"`
	SavedAt time.Time         `json:"saved_at"`
}

// IsValid reports whether the snapshot is restorable. A snapshot without a
// path or timestamp is treated as absent and discarded on read.
func (n *NavigationState) IsValid() bool {
	return n != nil && n.Path != "" && !n.SavedAt.IsZero()
}
