// Package targetgen synthesizes sparse, schema-valid, business-coherent
// target payloads aligned with a drawn axis selection and encodes them to
// TOON, per the generator pipeline: mandatory identity, persona anchors,
// topic blocks, cross-topic sprinkle, typed value generation, repair,
// validation gates, serialization.
package targetgen

import "strings"

// Payload is a target tree of nested objects and lists, keyed by single
// segments; joining the keys with "." (and "[]" for list items) gives the
// paths the schema index uses.
type Payload map[string]any

// listPrefixOf splits a leaf path into its owning list prefix and the
// field name within one list item, e.g. "contrats[].montant" ->
// ("contrats", "montant", true). Returns ok=false for non-list paths.
func listPrefixOf(path string) (listPath, field string, ok bool) {
	i := strings.Index(path, "[].")
	if i < 0 {
		return "", "", false
	}
	return path[:i], path[i+len("[]."):], true
}

// setScalarLeaf assigns v at a dotted object path (no list segments),
// creating intermediate objects as needed.
func setScalarLeaf(p Payload, path string, v any) {
	segs := strings.Split(path, ".")
	cur := p
	for i, seg := range segs {
		if i == len(segs)-1 {
			cur[seg] = v
			return
		}
		next, ok := cur[seg].(Payload)
		if !ok {
			if raw, isMap := cur[seg].(map[string]any); isMap {
				next = Payload(raw)
			} else {
				next = Payload{}
				cur[seg] = next
			}
		}
		cur = next
	}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Payload:
		return map[string]any(t), true
	case map[string]any:
		return t, true
	default:
		return nil, false
	}
}

// appendListItem appends item (a flat map of field -> value for one list
// entry) to the list rooted at listPath, creating the list if needed.
func appendListItem(p Payload, listPath string, item map[string]any) {
	segs := strings.Split(listPath, ".")
	cur := p
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(Payload)
		if !ok {
			next = Payload{}
			cur[seg] = next
		}
		cur = next
	}
	last := segs[len(segs)-1]
	existing, _ := cur[last].([]any)
	cur[last] = append(existing, item)
}

// listItems returns the list at listPath, or nil if absent/empty.
func listItems(p Payload, listPath string) []any {
	segs := strings.Split(listPath, ".")
	cur := any(p)
	for _, seg := range segs {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		v, ok := m[seg]
		if !ok {
			return nil
		}
		cur = v
	}
	items, _ := cur.([]any)
	return items
}

// collectPersonalNames walks the full payload tree and returns every
// string value stored under a personal-name key: "nom", "*_nom", or
// "*_noms" (isNameKey). This is how must_include is derived, and the
// submission name-coverage check runs against that must_include list.
func collectPersonalNames(v any) []string {
	var out []string
	switch t := v.(type) {
	case Payload:
		for k, vv := range t {
			if isNameKey(k) {
				if s, ok := vv.(string); ok && s != "" {
					out = append(out, s)
				}
				continue
			}
			out = append(out, collectPersonalNames(vv)...)
		}
	case map[string]any:
		out = append(out, collectPersonalNames(Payload(t))...)
	case []any:
		for _, item := range t {
			out = append(out, collectPersonalNames(item)...)
		}
	}
	return out
}

func isNameKey(k string) bool {
	return k == "nom" || strings.HasSuffix(k, "_nom") || strings.HasSuffix(k, "_noms")
}

// isEmptyValue reports whether v counts as "no meaningful content" under
// the sparse-target invariant: nil, empty string, empty map, empty list.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case Payload:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// pruneEmpty recursively deletes any key whose value is empty under
// isEmptyValue, repeating until no further object became empty by the
// pruning of its children (branches left empty after repair are dropped
// entirely, per the generator's sparse invariant).
func pruneEmpty(p Payload) {
	for {
		if !pruneOnce(p) {
			return
		}
	}
}

func pruneOnce(p Payload) bool {
	changed := false
	for k, v := range p {
		switch t := v.(type) {
		case Payload:
			if pruneOnce(t) {
				changed = true
			}
			if len(t) == 0 {
				delete(p, k)
				changed = true
			}
		case map[string]any:
			sub := Payload(t)
			if pruneOnce(sub) {
				changed = true
			}
			if len(sub) == 0 {
				delete(p, k)
				changed = true
			}
		case []any:
			filtered := t[:0]
			for _, item := range t {
				if sub, ok := asMap(item); ok {
					spayload := Payload(sub)
					if pruneOnce(spayload) {
						changed = true
					}
					if len(spayload) == 0 {
						changed = true
						continue
					}
				}
				if isEmptyValue(item) {
					changed = true
					continue
				}
				filtered = append(filtered, item)
			}
			if len(filtered) == 0 {
				delete(p, k)
				changed = true
			} else if len(filtered) != len(t) {
				p[k] = filtered
				changed = true
			}
		default:
			if isEmptyValue(v) {
				delete(p, k)
				changed = true
			}
		}
	}
	return changed
}
