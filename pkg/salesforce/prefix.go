package salesforce

import "github.com/Ramsey-B/clover/pkg/models"

// Structural prefixes that identify record families inside the exports.
const (
	PrefixFeedItem        = "0D5"
	PrefixFeedComment     = "0D7"
	PrefixContentVersion  = "068"
	PrefixContentDocument = "069"
)

// Prefix returns the first 3 characters of a Salesforce ID. IDs shorter than
// 3 characters classify as empty and never match a mapping.
func Prefix(id string) string {
	if len(id) < 3 {
		return ""
	}
	return id[:3]
}

// IsFeedEntity reports whether the ID belongs to a feed item or feed comment.
func IsFeedEntity(id string) bool {
	p := Prefix(id)
	return p == PrefixFeedItem || p == PrefixFeedComment
}

// MappingSet indexes object mappings by prefix for classification.
type MappingSet map[string]models.ObjectMapping

// NewMappingSet builds a MappingSet. Later mappings win on duplicate
// prefixes.
func NewMappingSet(mappings []models.ObjectMapping) MappingSet {
	set := make(MappingSet, len(mappings))
	for _, m := range mappings {
		set[m.Prefix] = m
	}
	return set
}

// Match classifies a record ID against the set. The second return is false
// when the ID's prefix is not mapped.
func (s MappingSet) Match(id string) (models.ObjectMapping, bool) {
	m, ok := s[Prefix(id)]
	return m, ok
}
