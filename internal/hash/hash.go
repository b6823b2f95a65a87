// Package hash implements canonical content hashing for entity integrity
// identifiers. The canonical form of an entity is a string-keyed map with
// every semantically-unordered list pre-sorted; serialization uses JSON with
// sorted keys and no incidental whitespace, so the digest is stable under
// permutation of unordered collections and changes iff a semantic field
// changes.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Sum returns the lowercase hex SHA-256 digest of the canonical map.
// encoding/json marshals map keys in sorted order at every nesting level,
// which is exactly the sorted-keys guarantee the canonical form requires.
func Sum(canonical map[string]any) (string, error) {
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("marshal canonical form: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SumBytes hashes raw canonical bytes.
func SumBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SortedStrings returns a lexicographically sorted copy. Inputs are treated
// as sets for identity, so callers sort before hashing.
func SortedStrings(xs []string) []string {
	out := make([]string, len(xs))
	copy(out, xs)
	sort.Strings(out)
	return out
}

// SortByName sorts a list of canonical sub-maps by their "name" key.
// Used for lists of named objects (contract fields, resolved inputs,
// job inputs/outputs) whose declaration order carries no meaning.
func SortByName(ms []map[string]any) []map[string]any {
	return SortByKey(ms, "name")
}

// SortByKey sorts canonical sub-maps by an arbitrary string key.
func SortByKey(ms []map[string]any, key string) []map[string]any {
	out := make([]map[string]any, len(ms))
	copy(out, ms)
	sort.Slice(out, func(i, j int) bool {
		a, _ := out[i][key].(string)
		b, _ := out[j][key].(string)
		return a < b
	})
	return out
}
