package nodemap

import "strings"

// ResolveNode runs the five-priority resolution chain for a single
// workflow node and returns its candidate list: empty means
// unresolved, one entry means resolved, more than one means ambiguous
// (left to the caller's selection policy).
//
// customMapping and cnrID short-circuit the table lookup entirely —
// they represent decisions already made (by a prior interactive
// session, or by whoever authored the workflow) that should never be
// second-guessed by a fresh table match.
func (t *Table) ResolveNode(nodeType string, inputs []NodeInput, cnrID string, customMapping *CustomNodeChoice) []Candidate {
	if customMapping != nil {
		if customMapping.Optional {
			return nil
		}
		return []Candidate{{
			PackageID: customMapping.PackageID,
			MatchType: MatchCustomMapping,
			Package:   t.packagePtr(customMapping.PackageID),
		}}
	}

	if cnrID != "" {
		return []Candidate{{
			PackageID: cnrID,
			MatchType: MatchProperties,
			Package:   t.packagePtr(cnrID),
		}}
	}

	if len(inputs) > 0 {
		signature := WorkflowInputSignature(inputs)
		if signature != "" {
			if entries, ok := t.Mappings[CreateNodeKey(nodeType, signature)]; ok {
				return t.candidatesFrom(entries, MatchExact)
			}
		}
	}

	if entries, ok := t.Mappings[CreateNodeKey(nodeType, "_")]; ok {
		return t.candidatesFrom(entries, MatchTypeOnly)
	}

	return t.fuzzyMatch(nodeType)
}

func (t *Table) candidatesFrom(entries []MappingEntry, matchType MatchType) []Candidate {
	candidates := make([]Candidate, len(entries))
	for i, e := range entries {
		candidates[i] = Candidate{
			PackageID: e.PackageID,
			MatchType: matchType,
			Rank:      e.Rank,
			Package:   t.packagePtr(e.PackageID),
		}
	}
	return candidates
}

// fuzzyMatch performs a substring search across every compound key's
// node-type portion, matching in either direction (the declared type
// contains the mapped type, or vice versa) since node authors rename
// and version nodes inconsistently.
func (t *Table) fuzzyMatch(nodeType string) []Candidate {
	lower := strings.ToLower(nodeType)
	var out []Candidate
	for key, entries := range t.Mappings {
		mappedType, _, found := strings.Cut(key, "::")
		if !found {
			continue
		}
		mappedLower := strings.ToLower(mappedType)
		if !strings.Contains(lower, mappedLower) && !strings.Contains(mappedLower, lower) {
			continue
		}
		out = append(out, t.candidatesFrom(entries, MatchFuzzy)...)
	}
	return out
}

func (t *Table) packagePtr(packageID string) *Package {
	pkg, ok := t.Packages[packageID]
	if !ok {
		return nil
	}
	return &pkg
}
