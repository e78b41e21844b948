package textutil

import "strings"

// AliasTable resolves known spelling variants to a canonical name. The table
// is data-driven: it is loaded from configuration at startup, never compiled
// in. Matching is exact first, then substring, on normalized forms.
type AliasTable struct {
	stopWords []string
	canonical map[string]string // normalized variant -> canonical display name
}

// NewAliasTable builds a lookup from canonical name to variant list. The
// canonical name itself is registered as a variant so it round-trips.
func NewAliasTable(aliases map[string][]string, stopWords []string) *AliasTable {
	table := &AliasTable{
		stopWords: append([]string(nil), stopWords...),
		canonical: make(map[string]string),
	}
	for canonical, variants := range aliases {
		table.canonical[Normalize(canonical, stopWords)] = canonical
		for _, variant := range variants {
			key := Normalize(variant, stopWords)
			if key == "" {
				continue
			}
			table.canonical[key] = canonical
		}
	}
	return table
}

// Canonical returns the canonical spelling for name. Exact normalized match
// wins; otherwise a variant appearing as a whole substring of the normalized
// name matches. Unknown names are returned unchanged.
func (t *AliasTable) Canonical(name string) string {
	if t == nil || len(t.canonical) == 0 {
		return name
	}
	key := Normalize(name, t.stopWords)
	if key == "" {
		return name
	}
	if canonical, ok := t.canonical[key]; ok {
		return canonical
	}
	for variant, canonical := range t.canonical {
		if strings.Contains(key, variant) {
			return canonical
		}
	}
	return name
}
