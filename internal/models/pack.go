package models

// Pack is an extension that contributes placeholders under a single owner
type Pack struct {
	Owner        string            `yaml:"owner" json:"owner"`
	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	Placeholders []PackPlaceholder `yaml:"placeholders" json:"placeholders"`

	// File info
	FilePath string `yaml:"-" json:"file_path,omitempty"`
}

// PackPlaceholder is a single token contributed by a pack with its static value
type PackPlaceholder struct {
	Token string `yaml:"token" json:"token"`
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}
