package catalog

import (
	"sort"
	"strings"
)

// DefaultPageSize is used when a query does not set an explicit page size.
const DefaultPageSize = 40

// Query describes one catalog view: free-text search, selected facet values
// per field, and the requested page. Selections are sets; order is
// irrelevant.
type Query struct {
	Search   string                         `json:"search"`
	Category string                         `json:"category"`
	Selected map[string]map[string]struct{} `json:"-"`
	Page     int                            `json:"page"`
	PageSize int                            `json:"page_size"`
}

// NewQuery returns an empty query for one category, positioned on page 1.
func NewQuery(category string) Query {
	return Query{
		Category: category,
		Selected: make(map[string]map[string]struct{}),
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// WithSearch returns a copy with the search text replaced. Changing the
// search resets to page 1 so a stale page number from a larger result set
// never persists.
func (q Query) WithSearch(search string) Query {
	out := q.clone()
	out.Search = search
	out.Page = 1
	return out
}

// Toggle returns a copy with value flipped in field's selection set, reset
// to page 1.
func (q Query) Toggle(field, value string) Query {
	out := q.clone()
	set := out.Selected[field]
	if set == nil {
		set = make(map[string]struct{})
		out.Selected[field] = set
	}
	if _, ok := set[value]; ok {
		delete(set, value)
	} else {
		set[value] = struct{}{}
	}
	out.Page = 1
	return out
}

// WithPage returns a copy positioned on page; clamping happens in Run.
func (q Query) WithPage(page int) Query {
	out := q.clone()
	out.Page = page
	return out
}

// IsSelected reports whether value is selected on field.
func (q Query) IsSelected(field, value string) bool {
	_, ok := q.Selected[field][value]
	return ok
}

func (q Query) clone() Query {
	out := q
	out.Selected = make(map[string]map[string]struct{}, len(q.Selected))
	for field, set := range q.Selected {
		cp := make(map[string]struct{}, len(set))
		for v := range set {
			cp[v] = struct{}{}
		}
		out.Selected[field] = cp
	}
	return out
}

// Option is a candidate value for one facet field. Enabled means selecting
// it on top of the other active filters would still yield at least one
// device; already-selected values are always enabled so they stay
// removable.
type Option struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
	Enabled  bool   `json:"enabled"`
}

// Result is one computed catalog view: the page window over the filtered
// set plus the per-field facet options.
type Result struct {
	Items      []Device            `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"total_pages"`
	Facets     map[string][]Option `json:"facets"`
}

// Run computes the result page and facet options for a device snapshot.
// Malformed or empty snapshots degrade to an empty result, never an error.
func Run(devices []Device, q Query) Result {
	scope := categoryScope(devices, q.Category)
	q = pruneStaleSelections(scope, q)

	var filtered []Device
	for _, d := range scope {
		if matches(d, q, "") {
			filtered = append(filtered, d)
		}
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(filtered)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	facets := make(map[string][]Option, len(FacetFields))
	for _, field := range FacetFields {
		facets[field] = fieldOptions(scope, q, field)
	}

	return Result{
		Items:      filtered[start:end],
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		Facets:     facets,
	}
}

// categoryScope pre-scopes the snapshot to one category; facets never cross
// categories.
func categoryScope(devices []Device, category string) []Device {
	if category == "" {
		return devices
	}
	var scoped []Device
	for _, d := range devices {
		if d.Category == category {
			scoped = append(scoped, d)
		}
	}
	return scoped
}

// pruneStaleSelections drops selected values that no longer exist in the
// snapshot, so they behave as if unset instead of zeroing the result.
func pruneStaleSelections(scope []Device, q Query) Query {
	if len(q.Selected) == 0 {
		return q
	}
	out := q.clone()
	for field, set := range out.Selected {
		present := make(map[string]struct{})
		for _, d := range scope {
			present[d.FieldValue(field)] = struct{}{}
		}
		for v := range set {
			if _, ok := present[v]; !ok {
				delete(set, v)
			}
		}
	}
	return out
}

// matches applies the full predicate, holding out excludeField's own
// selection when computing that field's options.
func matches(d Device, q Query, excludeField string) bool {
	if q.Search != "" && !strings.Contains(d.searchText(), strings.ToLower(q.Search)) {
		return false
	}
	for field, set := range q.Selected {
		if field == excludeField || len(set) == 0 {
			continue
		}
		if _, ok := set[d.FieldValue(field)]; !ok {
			return false
		}
	}
	return true
}

// fieldOptions computes the option list for one field. Each value is
// enabled iff some device carries it and matches every other active
// constraint; selected values are always enabled so a previously valid
// selection never becomes unclickable.
func fieldOptions(scope []Device, q Query, field string) []Option {
	reachable := make(map[string]bool)
	order := make([]string, 0)
	for _, d := range scope {
		v := d.FieldValue(field)
		if v == "" {
			continue
		}
		if _, seen := reachable[v]; !seen {
			reachable[v] = false
			order = append(order, v)
		}
		if matches(d, q, field) {
			reachable[v] = true
		}
	}

	options := make([]Option, 0, len(order))
	for _, v := range order {
		selected := q.IsSelected(field, v)
		options = append(options, Option{
			Value:    v,
			Selected: selected,
			Enabled:  selected || reachable[v],
		})
	}

	// Enabled before disabled, lexicographic within each group.
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Enabled != options[j].Enabled {
			return options[i].Enabled
		}
		return options[i].Value < options[j].Value
	})
	return options
}
