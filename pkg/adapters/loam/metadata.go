package loam

// ExampleMetadata is the frontmatter of a gallery document. The tree lives
// under "ui" or, for markdown documents, in a JSON code block in the body.
type ExampleMetadata struct {
	Name   string   `json:"name" mapstructure:"name"`
	Title  string   `json:"title" mapstructure:"title"`
	Prompt string   `json:"prompt" mapstructure:"prompt"`
	Tags   []string `json:"tags" mapstructure:"tags"`
	UI     any      `json:"ui" mapstructure:"ui"`
}
