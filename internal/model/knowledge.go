package model

// KnowledgeEntry maps a set of keywords to canned advice. Entries are checked
// in list order and the first match wins.
type KnowledgeEntry struct {
	Keywords []string `yaml:"keywords" json:"keywords"`
	Advice   string   `yaml:"advice" json:"advice"`
}
