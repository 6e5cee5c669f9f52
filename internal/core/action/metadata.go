package action

import "fmt"

// Metadata carries the discriminating entities extracted from message
// text. Known entities get named fields; anything else rides in Extra
// so unknown keys survive round-trips without a schema change.
type Metadata struct {
	PANNumber       string          `json:"pan_number,omitempty"`
	URLs            []string        `json:"urls,omitempty"`
	DeliverableType DeliverableType `json:"deliverable_type,omitempty"`
	Extra           map[string]any  `json:"extra,omitempty"`
}

// IsZero reports whether no entity of any kind is set.
func (m Metadata) IsZero() bool {
	return m.PANNumber == "" &&
		len(m.URLs) == 0 &&
		m.DeliverableType == "" &&
		len(m.Extra) == 0
}

// Merge combines incoming metadata into m and returns the result,
// key by key over incoming:
//
//   - pan_number and deliverable_type are overwrite fields: a set
//     incoming value wins outright.
//   - urls are list-valued: set union, duplicates removed.
//   - Extra keys absent from m are added as-is; list values are
//     unioned; map values are shallow-merged with incoming keys
//     winning; any other conflict keeps whichever value has the
//     longer string representation.
//
// Neither receiver nor argument is mutated.
func (m Metadata) Merge(incoming Metadata) Metadata {
	merged := m.clone()

	if incoming.PANNumber != "" {
		merged.PANNumber = incoming.PANNumber
	}
	if incoming.DeliverableType != "" {
		merged.DeliverableType = incoming.DeliverableType
	}
	if len(incoming.URLs) > 0 {
		merged.URLs = unionStrings(merged.URLs, incoming.URLs)
	}

	if len(incoming.Extra) > 0 {
		if merged.Extra == nil {
			merged.Extra = make(map[string]any, len(incoming.Extra))
		}
		for key, value := range incoming.Extra {
			existing, ok := merged.Extra[key]
			if !ok {
				merged.Extra[key] = value
				continue
			}
			merged.Extra[key] = mergeValue(existing, value)
		}
	}

	return merged
}

func (m Metadata) clone() Metadata {
	out := m
	if len(m.URLs) > 0 {
		out.URLs = append([]string(nil), m.URLs...)
	}
	if len(m.Extra) > 0 {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// mergeValue resolves a conflict between two Extra values.
func mergeValue(existing, incoming any) any {
	switch inc := incoming.(type) {
	case []any:
		if ex, ok := existing.([]any); ok {
			return unionAny(ex, inc)
		}
	case []string:
		if ex, ok := existing.([]string); ok {
			out := unionStrings(ex, inc)
			return out
		}
	case map[string]any:
		if ex, ok := existing.(map[string]any); ok {
			out := make(map[string]any, len(ex)+len(inc))
			for k, v := range ex {
				out[k] = v
			}
			for k, v := range inc {
				out[k] = v
			}
			return out
		}
	}

	// Scalar or mismatched types: richer (longer) representation wins.
	if len(fmt.Sprint(incoming)) > len(fmt.Sprint(existing)) {
		return incoming
	}
	return existing
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range b {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func unionAny(a, b []any) []any {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]any, 0, len(a)+len(b))
	for _, v := range a {
		k := fmt.Sprint(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	for _, v := range b {
		k := fmt.Sprint(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
