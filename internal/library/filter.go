package library

import (
	"strings"

	"phototriage/internal/asset"
)

// Filter restricts the ordered asset sequence. The zero value excludes
// everything; use DefaultFilter for the permissive default.
type Filter struct {
	// Allowed is the set of dispositions to include. Nil or empty means
	// all dispositions are allowed.
	Allowed map[asset.Tag]bool

	// IncludeUntagged controls whether assets without a disposition pass.
	IncludeUntagged bool

	// Collection restricts the view to a library subdirectory (slash
	// path). Empty means the whole library.
	Collection string
}

// DefaultFilter allows every tag and untagged assets, with no collection
// restriction.
func DefaultFilter() Filter {
	return Filter{IncludeUntagged: true}
}

// WithTags returns a copy of f allowing only the given dispositions.
func (f Filter) WithTags(tags ...asset.Tag) Filter {
	allowed := make(map[asset.Tag]bool, len(tags))
	for _, t := range tags {
		allowed[t] = true
	}
	f.Allowed = allowed
	return f
}

func (f Filter) allows(id asset.ID, tag asset.Tag, tagged bool) bool {
	if f.Collection != "" {
		prefix := strings.TrimSuffix(f.Collection, "/") + "/"
		if !strings.HasPrefix(string(id), prefix) {
			return false
		}
	}
	if !tagged {
		return f.IncludeUntagged
	}
	if len(f.Allowed) == 0 {
		return true
	}
	return f.Allowed[tag]
}
