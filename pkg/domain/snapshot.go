package domain

// Snapshot is the observable state of a conversation at one instant.
type Snapshot struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	Streaming      any       `json:"streaming,omitempty"`
	Loading        bool      `json:"loading"`
	EditMode       bool      `json:"edit_mode"`
	Selected       string    `json:"selected,omitempty"`
}
