package model

import "time"

// Identity is the verified caller, as resolved by the identity provider.
// The service never creates identities; it only receives them after token
// verification.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Situation is one role-play scenario. Immutable from the broker's point of
// view; mutation goes through the situation handlers only.
type Situation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Theme     string    `json:"theme"`
	Prompt    string    `json:"prompt"`
	Links     []string  `json:"links"`
	Accent    string    `json:"accent"`
	Ambience  string    `json:"ambience"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateSituationRequest carries a partial update. Nil fields keep the
// current value; Links replaces the list only when non-nil.
type UpdateSituationRequest struct {
	Title    *string  `json:"title,omitempty"`
	Theme    *string  `json:"theme,omitempty"`
	Prompt   *string  `json:"prompt,omitempty"`
	Links    []string `json:"links,omitempty"`
	Accent   *string  `json:"accent,omitempty"`
	Ambience *string  `json:"ambience,omitempty"`
}

// Usage is the per-user counter for one calendar day.
type Usage struct {
	UserID      string `json:"userId"`
	UsageDate   string `json:"usageDate"` // 2006-01-02, process-local clock
	UsedSeconds int    `json:"usedSeconds"`
}

// SessionDescriptor is what the broker hands back after admission: the
// ephemeral credential plus a quota snapshot taken at issuance time.
// It lives only in process memory and in the remote service.
type SessionDescriptor struct {
	SessionID        string `json:"sessionId"`
	ClientSecret     string `json:"clientSecret"`
	Model            string `json:"model"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// EventBatch is one append to the conversation log: the protocol events a
// client observed for a session, delivered at-least-once.
type EventBatch struct {
	SessionID   string        `json:"sessionId"`
	SituationID string        `json:"situationId,omitempty"`
	Events      []interface{} `json:"events"`
}
