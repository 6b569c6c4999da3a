package domain

import "strings"

// DefaultItemTypes is the catalog offered by the intake form.
var DefaultItemTypes = []string{
	"Display Case Gasket",
	"Under Counter Gasket",
	"Upright Gasket",
	"Walk In Gasket",
	"Hold Open",
	"Bumper",
	"Electrical Cover",
	"Torque Rod",
	"Torque Master",
	"Door Hinge",
	"Door Sweep",
	"Replacement Door",
}

// DefaultLevels are the severity choices the form offers. The server only
// requires a positive integer.
var DefaultLevels = []int{1, 2, 3}

// ItemCatalog is the fixed set of item categories a submission may reference.
type ItemCatalog struct {
	items []string
	index map[string]string
}

// NewItemCatalog builds a catalog from items, dropping blanks and duplicates.
// An empty list falls back to DefaultItemTypes.
func NewItemCatalog(items []string) ItemCatalog {
	if len(items) == 0 {
		items = DefaultItemTypes
	}
	catalog := ItemCatalog{
		items: make([]string, 0, len(items)),
		index: make(map[string]string, len(items)),
	}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := catalogKey(item)
		if _, ok := catalog.index[key]; ok {
			continue
		}
		catalog.index[key] = item
		catalog.items = append(catalog.items, item)
	}
	return catalog
}

// Items returns the catalog entries in display order.
func (c ItemCatalog) Items() []string {
	return append([]string(nil), c.items...)
}

// Canonical returns the catalog spelling of input, matching case- and
// whitespace-insensitively.
func (c ItemCatalog) Canonical(input string) (string, bool) {
	item, ok := c.index[catalogKey(input)]
	return item, ok
}

func catalogKey(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}
