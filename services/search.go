package services

import (
	"strings"

	"a4blend/types"
)

// ComputeIndex returns the catalog positions whose title contains query,
// case-insensitively, in catalog order. An empty query matches everything.
func ComputeIndex(catalog types.Catalog, query string) []int {
	needle := strings.ToLower(query)
	indices := make([]int, 0, len(catalog))
	for i, entry := range catalog {
		if strings.Contains(strings.ToLower(entry.Title), needle) {
			indices = append(indices, i)
		}
	}
	return indices
}
