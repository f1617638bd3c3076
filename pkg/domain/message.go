package domain

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one conversational turn. UI holds the raw JSON tree the turn
// owns, if any; it is replaced wholesale, never mutated.
type Message struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
	UI   any    `json:"ui,omitempty"`
}

// HasUI reports whether the message owns a tree.
func (m Message) HasUI() bool { return m.UI != nil }

// LastUIIndex returns the index of the newest message owning a tree, or -1.
func LastUIIndex(msgs []Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].HasUI() {
			return i
		}
	}
	return -1
}

// UserContext is embedded in every generation prompt.
type UserContext struct {
	Role   string `json:"role" yaml:"role" mapstructure:"role"`
	Device string `json:"device" yaml:"device" mapstructure:"device"`
	Theme  string `json:"theme" yaml:"theme" mapstructure:"theme"`
}

// DefaultUserContext is the context of a fresh conversation.
func DefaultUserContext() UserContext {
	return UserContext{Role: "user", Device: "desktop", Theme: "dark"}
}

// WelcomeText opens every conversation.
const WelcomeText = "GenUI Studio is ready. Describe a UI component, dashboard, or layout to generate it instantly."
