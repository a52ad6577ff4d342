package loam

// NodeMetadata is the frontmatter of one node file in a Loam vault.
// Keys match the tree document format; the Markdown body fills the hint of a
// question or the description of a result when the frontmatter leaves it empty.
type NodeMetadata struct {
	ID    string `json:"id" mapstructure:"id"`
	Type  string `json:"type" mapstructure:"type"`
	Entry bool   `json:"entry,omitempty" mapstructure:"entry"`

	// Question
	Text string `json:"text,omitempty" mapstructure:"text"`
	Hint string `json:"hint,omitempty" mapstructure:"hint"`
	// Answers holds {text, next} maps. They are decoded with mapstructure so
	// YAML and JSON frontmatter produce the same result.
	Answers []any `json:"answers,omitempty" mapstructure:"answers"`

	// Result
	Title               string   `json:"title,omitempty" mapstructure:"title"`
	Description         string   `json:"description,omitempty" mapstructure:"description"`
	RecommendedServices []string `json:"recommended_services,omitempty" mapstructure:"recommended_services"`
	ContactPreFill      string   `json:"contact_pre_fill,omitempty" mapstructure:"contact_pre_fill"`
}
