package sigma

// FieldMapping translates a generic field name into one or more
// backend-specific field names. Multiple targets mean the field must be
// checked against all of them; the renderer OR-combines the clauses.
type FieldMapping struct {
	Source  string
	Targets []string
}

// identityMapping returns a mapping of a field name to itself, used when no
// mapping is configured. Absence of a mapping is not an error.
func identityMapping(field string) FieldMapping {
	return FieldMapping{Source: field, Targets: []string{field}}
}
