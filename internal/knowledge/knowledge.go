// Package knowledge loads the ordered keyword-to-advice list used by the
// advice retriever.
package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwalitptl/emr-assistant/internal/model"
)

//go:embed default.yaml
var defaultEntries []byte

// Default returns the built-in entries.
func Default() []model.KnowledgeEntry {
	entries, err := Parse(defaultEntries)
	if err != nil {
		panic(fmt.Sprintf("knowledge: invalid built-in entries: %v", err))
	}
	return entries
}

// Load reads entries from path, or returns Default when path is empty.
func Load(path string) ([]model.KnowledgeEntry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes a YAML list of entries, keeping file order.
func Parse(data []byte) ([]model.KnowledgeEntry, error) {
	var entries []model.KnowledgeEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Advice) == "" {
			return nil, fmt.Errorf("entry %d: advice is empty", i)
		}
		kept := e.Keywords[:0]
		for _, kw := range e.Keywords {
			if kw = strings.TrimSpace(kw); kw != "" {
				kept = append(kept, kw)
			}
		}
		if len(kept) == 0 {
			return nil, fmt.Errorf("entry %d: no keywords", i)
		}
		entries[i].Keywords = kept
	}
	return entries, nil
}
