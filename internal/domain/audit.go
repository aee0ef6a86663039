package domain

// Attempt records a single call against one channel.
type Attempt struct {
	Channel    string `json:"channel"`
	Attempt    int    `json:"attempt"`
	Class      string `json:"class,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Skipped    bool   `json:"skipped,omitempty"`
}

// Resolution is the audit trail of one fallback-chain call.
type Resolution struct {
	Capability string    `json:"capability"`
	Channel    string    `json:"channel,omitempty"`
	Attempts   []Attempt `json:"attempts"`
}
