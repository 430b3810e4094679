package domain

// OptionDimensions declares how a plugin's conversion options interact.
//
// Independent options may be exercised alone against a fresh target.
// Each Joint group interacts (for example truncation combined with chunking)
// and must be exercised as a full cross product.
type OptionDimensions struct {
	Independent []string
	Joint       [][]string
}

// Matrix builds the option test matrix for the given candidate values.
//
// The result starts with the default case (no options), then one case per value
// of each independent option, then the cross product of every joint group.
// Options without candidate values are skipped. Order is deterministic.
func (d OptionDimensions) Matrix(values map[string][]any) []map[string]any {
	cases := []map[string]any{{}}

	for _, name := range d.Independent {
		for _, v := range values[name] {
			cases = append(cases, map[string]any{name: v})
		}
	}

	for _, group := range d.Joint {
		product := []map[string]any{{}}
		for _, name := range group {
			candidates := values[name]
			if len(candidates) == 0 {
				continue
			}
			next := make([]map[string]any, 0, len(product)*len(candidates))
			for _, partial := range product {
				for _, v := range candidates {
					c := make(map[string]any, len(partial)+1)
					for k, pv := range partial {
						c[k] = pv
					}
					c[name] = v
					next = append(next, c)
				}
			}
			product = next
		}
		if len(product) == 1 && len(product[0]) == 0 {
			continue
		}
		cases = append(cases, product...)
	}

	return cases
}

// Names returns every declared option name.
func (d OptionDimensions) Names() []string {
	names := append([]string(nil), d.Independent...)
	for _, group := range d.Joint {
		names = append(names, group...)
	}
	return names
}

// IsJoint reports whether the named option belongs to a joint group.
func (d OptionDimensions) IsJoint(name string) bool {
	for _, group := range d.Joint {
		for _, n := range group {
			if n == name {
				return true
			}
		}
	}
	return false
}
