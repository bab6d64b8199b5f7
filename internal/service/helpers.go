package service

import (
	"strings"

	"metalake/internal/lineage"
)

// splitKey decomposes a graph node key into asset id and column. Asset
// ids are UUIDs, so the first colon always separates the column suffix.
func splitKey(key lineage.NodeKey) (assetID, column string) {
	s := string(key)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
