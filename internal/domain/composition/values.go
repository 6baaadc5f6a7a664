package composition

import "sort"

// Values maps oxide (or, for cation bases, cation) names to amounts.
type Values map[string]float64

// Keys returns the keys in canonical oxide-table order. Keys outside the table sort last.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	seen := make(map[string]bool, len(v))
	for _, ox := range Oxides {
		sp := species[ox]
		for _, k := range [2]string{string(ox), sp.Cation} {
			if _, ok := v[k]; ok && !seen[k] {
				keys = append(keys, k)
				seen[k] = true
			}
		}
	}
	var rest []string
	for k := range v {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Sum adds all values in canonical order.
func (v Values) Sum() float64 {
	var total float64
	for _, k := range v.Keys() {
		total += v[k]
	}
	return total
}

// Get returns the value for key, or 0 when absent.
func (v Values) Get(key string) float64 { return v[key] }

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// oxideValues is the working representation used by normalization and conversion.
type oxideValues map[Oxide]float64

// each calls fn for every present oxide in canonical order.
func (ov oxideValues) each(fn func(ox Oxide, v float64)) {
	for _, ox := range Oxides {
		if v, ok := ov[ox]; ok {
			fn(ox, v)
		}
	}
}

func (ov oxideValues) sum(filter func(Oxide) bool) float64 {
	var total float64
	ov.each(func(ox Oxide, v float64) {
		if filter == nil || filter(ox) {
			total += v
		}
	})
	return total
}

func (ov oxideValues) clone() oxideValues {
	out := make(oxideValues, len(ov))
	for k, v := range ov {
		out[k] = v
	}
	return out
}

func (ov oxideValues) values() Values {
	out := make(Values, len(ov))
	for k, v := range ov {
		out[string(k)] = v
	}
	return out
}

func nonVolatile(ox Oxide) bool { return !ox.IsVolatile() }
