package sites

import (
	"log/slog"
	"sort"

	"gamestore/internal/model"
)

// factory builds a parser from shared options.
type factory func(opts Options) Parser

var factories = map[string]factory{}

// register wires a site ID to its parser constructor. Called from each
// parser file's init. A duplicate ID keeps the last registration.
func register(id string, f factory) {
	if _, dup := factories[id]; dup {
		slog.Warn("duplicate site registration, keeping the last", "site", id)
	}
	factories[id] = f
}

// Registry holds the constructed parsers for one process.
type Registry struct {
	parsers map[string]Parser
	order   []string
}

// NewRegistry constructs every registered parser. Per-site base URL
// overrides come from baseURLs, keyed by site ID.
func NewRegistry(opts Options, baseURLs map[string]string) *Registry {
	r := &Registry{parsers: make(map[string]Parser, len(factories))}
	for id, f := range factories {
		siteOpts := opts
		if u, ok := baseURLs[id]; ok && u != "" {
			siteOpts.BaseURL = u
		} else {
			siteOpts.BaseURL = ""
		}
		r.parsers[id] = f(siteOpts)
		r.order = append(r.order, id)
	}
	sort.Strings(r.order)
	return r
}

// Get returns the parser for id, or false when the site is unknown.
func (r *Registry) Get(id string) (Parser, bool) {
	p, ok := r.parsers[id]
	return p, ok
}

// IDs returns the registered site IDs in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every parser in sorted ID order.
func (r *Registry) All() []Parser {
	out := make([]Parser, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.parsers[id])
	}
	return out
}

// Descriptors returns the descriptor of every registered site, sorted by
// display name.
func (r *Registry) Descriptors() []model.SiteDescriptor {
	out := make([]model.SiteDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.parsers[id].Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
