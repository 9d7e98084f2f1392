package lookup

import "slices"

// Entry is one running source as listed by the Directory.
type Entry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// SortEntries orders entries by name.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
}

// EntryNames returns the names of entries in order.
func EntryNames(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
