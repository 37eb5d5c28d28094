package domain

// Herb is a read-only catalog entry mapping use keywords to a remedy.
type Herb struct {
	Name      string   `json:"name" yaml:"name"`
	LocalName string   `json:"local_name" yaml:"local_name"`
	Uses      []string `json:"uses" yaml:"uses"`
	Notes     string   `json:"notes" yaml:"notes"`
}
