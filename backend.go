package sigma

// Backend translates parsed rules into query strings in one search dialect.
// Implementations must be pure with respect to per-rule state: translating a
// rule never mutates the backend or its configuration, so one backend can
// serve concurrent rule translations.
type Backend interface {
	// Generate produces one query string for a rule, or a translation
	// error. A failed translation never returns a partial query.
	Generate(rule *Rule) (string, error)

	// IndexField names the backend field that holds the index an event was
	// stored in, or "" when the backend selects indexes some other way
	// (e.g., through the query's data source name).
	IndexField() string
}
