package mapping

// Namer allocates unique target node names. When an expansion introduces a
// node whose derived name collides with an existing one, letters are
// appended (A through Z, then AA) until the name is free, matching the
// scheme the source tool uses for its own node names so pasted results
// look native.
type Namer struct {
	used map[string]bool
}

// NewNamer creates a namer pre-seeded with names that are already taken.
func NewNamer(seed []string) *Namer {
	used := make(map[string]bool, len(seed))
	for _, s := range seed {
		used[s] = true
	}
	return &Namer{used: used}
}

// Claim returns name if free, otherwise the first free suffixed variant,
// and marks the result as taken.
func (nm *Namer) Claim(name string) string {
	if name == "" {
		name = "node"
	}
	if nm.used[name] {
		if name[len(name)-1] > 'Z' || name[len(name)-1] < 'A' {
			name += "A"
		}
		for nm.used[name] {
			c := name[len(name)-1] + 1
			if c > 'Z' {
				name = name[:len(name)-1] + "AA"
			} else {
				name = name[:len(name)-1] + string(c)
			}
		}
	}
	nm.used[name] = true
	return name
}
