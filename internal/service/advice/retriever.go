package advice

import (
	"strings"

	"github.com/jwalitptl/emr-assistant/internal/model"
)

// NoAdvice is returned when no knowledge entry matches.
const NoAdvice = "No specific advice found in local data."

// Retriever does a first-match keyword lookup over an ordered knowledge list.
type Retriever struct {
	entries []model.KnowledgeEntry
}

// NewRetriever copies entries; their order is the match priority.
func NewRetriever(entries []model.KnowledgeEntry) *Retriever {
	r := &Retriever{entries: make([]model.KnowledgeEntry, len(entries))}
	for i, e := range entries {
		kws := make([]string, len(e.Keywords))
		for j, kw := range e.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		r.entries[i] = model.KnowledgeEntry{Keywords: kws, Advice: e.Advice}
	}
	return r
}

// Retrieve returns the advice of the first entry with any keyword contained
// in text, ignoring case, or NoAdvice.
func (r *Retriever) Retrieve(text string) string {
	advice, _ := r.Lookup(text)
	return advice
}

// Lookup is Retrieve that also reports whether an entry matched.
func (r *Retriever) Lookup(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, e := range r.entries {
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				return e.Advice, true
			}
		}
	}
	return NoAdvice, false
}

// Entries returns a copy of the knowledge list in match order.
func (r *Retriever) Entries() []model.KnowledgeEntry {
	out := make([]model.KnowledgeEntry, len(r.entries))
	for i, e := range r.entries {
		out[i] = model.KnowledgeEntry{
			Keywords: append([]string(nil), e.Keywords...),
			Advice:   e.Advice,
		}
	}
	return out
}
