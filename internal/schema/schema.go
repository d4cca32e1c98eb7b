// Package schema loads the master target schema and indexes it for
// constant-time leaf and prefix lookups.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ScalarType is the runtime type a schema leaf accepts.
type ScalarType string

const (
	ScalarString  ScalarType = "string"
	ScalarInteger ScalarType = "integer"
	ScalarNumber  ScalarType = "number"
	ScalarBoolean ScalarType = "boolean"
	ScalarDate    ScalarType = "date"
	ScalarEnum    ScalarType = "enum"
)

// LeafSpec describes one terminal path in the schema.
type LeafSpec struct {
	Path    string
	Type    ScalarType
	Enum    []string // only set when Type == ScalarEnum
	keyName string   // last segment, used by value-heuristics in targetgen
}

// KeyName is the leaf's local key, e.g. "date_naissance" in
// "defunt.date_naissance" or "contrats[].nom_assureur".
func (l LeafSpec) KeyName() string { return l.keyName }

// Index is an immutable, queryable view over a loaded schema. Safe for
// concurrent reads once Load returns.
type Index struct {
	leaves       map[string]LeafSpec
	prefixes     map[string]struct{}
	kinds        map[string]string   // prefix -> "object" | "list"
	leavesByPfx  map[string][]string // prefix -> sorted leaf paths under it
	orderedPaths []string
}

// Kind reports whether prefix is an "object" or a "list" node, or "" if
// prefix is not a known non-leaf path.
func (idx *Index) Kind(prefix string) string {
	return idx.kinds[prefix]
}

// rawNode is the on-disk shape of one schema node. The format is a custom
// nested description (not standard JSON Schema): every node names its own
// "kind" explicitly so the loader never has to guess from shape alone.
type rawNode struct {
	Kind   string             `json:"kind"`
	Fields map[string]rawNode `json:"fields,omitempty"`
	Item   *rawNode           `json:"item,omitempty"`
	Type   string             `json:"type,omitempty"`
	Values []string           `json:"values,omitempty"`
}

const listMarker = "[]"

// Load parses path as the master schema file and builds an Index.
//
// Any node whose "kind" is not one of object/list/scalar/enum is a fatal
// load error: unknown node kinds are rejected rather than silently
// skipped, per the project's schema-loading contract.
func Load(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}

	var root rawNode
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", path, err)
	}

	idx := &Index{
		leaves:      make(map[string]LeafSpec),
		prefixes:    make(map[string]struct{}),
		kinds:       make(map[string]string),
		leavesByPfx: make(map[string][]string),
	}
	if err := idx.walk("", root); err != nil {
		return nil, fmt.Errorf("schema: %s: %w", path, err)
	}

	idx.orderedPaths = make([]string, 0, len(idx.leaves))
	for p := range idx.leaves {
		idx.orderedPaths = append(idx.orderedPaths, p)
	}
	sort.Strings(idx.orderedPaths)

	for prefix := range idx.prefixes {
		for _, leaf := range idx.orderedPaths {
			if leaf == prefix || strings.HasPrefix(leaf, prefix+".") || strings.HasPrefix(leaf, prefix+listMarker) {
				idx.leavesByPfx[prefix] = append(idx.leavesByPfx[prefix], leaf)
			}
		}
	}

	if len(idx.leaves) == 0 {
		return nil, fmt.Errorf("schema: %s: no leaves discovered", path)
	}
	return idx, nil
}

func (idx *Index) walk(path string, node rawNode) error {
	switch node.Kind {
	case "object":
		if path != "" {
			idx.prefixes[path] = struct{}{}
			idx.kinds[path] = "object"
		}
		keys := make([]string, 0, len(node.Fields))
		for k := range node.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := node.Fields[k]
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			if err := idx.walk(childPath, child); err != nil {
				return err
			}
		}
		return nil
	case "list":
		if node.Item == nil {
			return fmt.Errorf("list node %q has no item template", path)
		}
		idx.prefixes[path] = struct{}{}
		idx.kinds[path] = "list"
		return idx.walk(path+listMarker, *node.Item)
	case "scalar":
		st := ScalarType(node.Type)
		switch st {
		case ScalarString, ScalarInteger, ScalarNumber, ScalarBoolean, ScalarDate:
		default:
			return fmt.Errorf("scalar node %q has unknown type %q", path, node.Type)
		}
		idx.addLeaf(path, st, nil)
		return nil
	case "enum":
		if len(node.Values) == 0 {
			return fmt.Errorf("enum node %q has no values", path)
		}
		idx.addLeaf(path, ScalarEnum, node.Values)
		return nil
	default:
		return fmt.Errorf("unknown schema node kind %q at %q", node.Kind, path)
	}
}

func (idx *Index) addLeaf(path string, t ScalarType, enum []string) {
	key := path
	if i := strings.LastIndexAny(key, ".["); i >= 0 {
		if key[i] == '[' {
			// last segment is the list marker itself; key name comes from the
			// segment before it, e.g. "contrats[]" -> "contrats".
			key = strings.TrimSuffix(key[:i], listMarker)
			if j := strings.LastIndex(key, "."); j >= 0 {
				key = key[j+1:]
			}
		} else {
			key = key[i+1:]
		}
	}
	idx.leaves[path] = LeafSpec{Path: path, Type: t, Enum: enum, keyName: key}
}

// IsLeaf reports whether path names a terminal scalar.
func (idx *Index) IsLeaf(path string) bool {
	_, ok := idx.leaves[path]
	return ok
}

// Leaf returns the leaf spec for path.
func (idx *Index) Leaf(path string) (LeafSpec, bool) {
	l, ok := idx.leaves[path]
	return l, ok
}

// IsPrefix reports whether path names a non-leaf (object or list) node.
func (idx *Index) IsPrefix(path string) bool {
	_, ok := idx.prefixes[path]
	return ok
}

// LeavesUnder returns every leaf path rooted at prefix, sorted.
func (idx *Index) LeavesUnder(prefix string) []string {
	return idx.leavesByPfx[prefix]
}

// EnumValues returns the allowed values for an enum leaf, or nil if the
// leaf is not an enum (or does not exist).
func (idx *Index) EnumValues(path string) []string {
	l, ok := idx.leaves[path]
	if !ok || l.Type != ScalarEnum {
		return nil
	}
	return l.Enum
}

// AllLeaves returns every known leaf path, sorted.
func (idx *Index) AllLeaves() []string {
	return idx.orderedPaths
}

// ValidateLeaf checks that v's runtime type matches path's declared scalar
// type (and enum membership, if applicable). Dates must already be
// normalized to ISO-8601 day strings ("2006-01-02") by the caller; integers
// are accepted where a float leaf is declared.
func (idx *Index) ValidateLeaf(path string, v any) error {
	spec, ok := idx.leaves[path]
	if !ok {
		return fmt.Errorf("unknown schema path %q", path)
	}
	switch spec.Type {
	case ScalarString, ScalarDate:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%q: want string, got %T", path, v)
		}
		if spec.Type == ScalarDate && !isISODate(s) {
			return fmt.Errorf("%q: %q is not an ISO-8601 date", path, s)
		}
	case ScalarInteger:
		switch n := v.(type) {
		case int, int64:
		case float64:
			if n != float64(int64(n)) {
				return fmt.Errorf("%q: %v is not an integer", path, v)
			}
		default:
			return fmt.Errorf("%q: want integer, got %T", path, v)
		}
	case ScalarNumber:
		switch v.(type) {
		case int, int64, float64:
		default:
			return fmt.Errorf("%q: want number, got %T", path, v)
		}
	case ScalarBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%q: want bool, got %T", path, v)
		}
	case ScalarEnum:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%q: want enum string, got %T", path, v)
		}
		found := false
		for _, allowed := range spec.Enum {
			if allowed == s {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%q: %q is not one of %v", path, s, spec.Enum)
		}
	default:
		return fmt.Errorf("%q: unhandled scalar type %q", path, spec.Type)
	}
	return nil
}

func isISODate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
