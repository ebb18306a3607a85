package types

// CatalogEntry is one playable track in the catalog
type CatalogEntry struct {
	Title     string `json:"title"`
	SourceRef string `json:"src"`   // locator the media sink can open
	Cover     string `json:"cover"` // data URI or placeholder path
}

// Catalog is the ordered list of entries in discovery order.
// A published catalog is never mutated; rebuilds replace it wholesale.
type Catalog []CatalogEntry

// Len returns the number of entries, nil-safe
func (c Catalog) Len() int {
	return len(c)
}

// At returns the entry at position i and whether it exists
func (c Catalog) At(i int) (CatalogEntry, bool) {
	if i < 0 || i >= len(c) {
		return CatalogEntry{}, false
	}
	return c[i], true
}
