// CLAUDE:SUMMARY Builds ordered geographic hierarchy paths (Cartesian over multi-valued labels) and picks the representative postal code.
package postal

// ResultToHierarchy turns parse results into hierarchy paths in canonical
// label order. A LabelMap whose labels hold several values contributes one
// path per combination. Absent labels contribute nothing.
//
// The returned postal code is the first value of the first postcode label
// found, scanning LabelMaps in order, or "" if none carries one.
func ResultToHierarchy(parses []LabelMap) (Hierarchy, string) {
	var h Hierarchy
	var postcode string
	for _, m := range parses {
		h = append(h, expandPaths(m)...)
		if postcode == "" {
			postcode = firstPostcode(m)
		}
	}
	return h, postcode
}

// expandPaths returns the Cartesian product of m's values over HierarchyOrder.
func expandPaths(m LabelMap) []HierarchyPath {
	var levels [][]string
	for _, label := range HierarchyOrder {
		if values := m[label]; len(values) > 0 {
			levels = append(levels, values)
		}
	}
	if len(levels) == 0 {
		return nil
	}

	paths := []HierarchyPath{make(HierarchyPath, 0, len(levels))}
	for _, values := range levels {
		next := make([]HierarchyPath, 0, len(paths)*len(values))
		for _, prefix := range paths {
			for _, v := range values {
				path := make(HierarchyPath, len(prefix), len(levels))
				copy(path, prefix)
				next = append(next, append(path, v))
			}
		}
		paths = next
	}
	return paths
}

func firstPostcode(m LabelMap) string {
	for _, label := range postcodeLabels {
		if values := m[label]; len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
