package catalog

import "strings"

// Characteristics narrows a catalog by discovery method and planet radius.
// Zero-valued fields do not filter.
type Characteristics struct {
	DiscoveryMethod string // case-insensitive substring
	RadiusMin       Float
	RadiusMax       Float
}

// Describe returns a short human-readable summary of the active filters.
func (c Characteristics) Describe() string {
	var parts []string
	if c.DiscoveryMethod != "" {
		parts = append(parts, "method: "+c.DiscoveryMethod)
	}
	if c.RadiusMin.Valid {
		parts = append(parts, "radius >= "+c.RadiusMin.String()+" R⊕")
	}
	if c.RadiusMax.Valid {
		parts = append(parts, "radius <= "+c.RadiusMax.String()+" R⊕")
	}
	if len(parts) == 0 {
		return "all planets"
	}
	return strings.Join(parts, ", ")
}

// FilterByCharacteristics returns the records matching c, preserving order.
// Records without a radius never satisfy a radius bound.
func FilterByCharacteristics(records []Record, c Characteristics) []Record {
	method := strings.ToLower(c.DiscoveryMethod)
	out := make([]Record, 0, len(records))

	for _, r := range records {
		if method != "" && !strings.Contains(strings.ToLower(r.DiscoveryMethod), method) {
			continue
		}
		if c.RadiusMin.Valid && (!r.RadiusEarth.Valid || r.RadiusEarth.Value < c.RadiusMin.Value) {
			continue
		}
		if c.RadiusMax.Valid && (!r.RadiusEarth.Valid || r.RadiusEarth.Value > c.RadiusMax.Value) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FindByName returns the index of the record named name, or -1.
func FindByName(records []Record, name string) int {
	for i, r := range records {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the record names in order, skipping unnamed rows.
func Names(records []Record) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return names
}
