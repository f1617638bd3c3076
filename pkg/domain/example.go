package domain

// Example is a request paired with the tree that answers it. Examples seed
// prompts as few-shot demonstrations and make up the gallery.
type Example struct {
	Name   string   `json:"name" yaml:"name"`
	Title  string   `json:"title" yaml:"title"`
	Prompt string   `json:"prompt" yaml:"prompt"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	UI     any      `json:"ui" yaml:"-"`
}
