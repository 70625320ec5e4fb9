package sigma

import (
	"fmt"
	"sort"
	"strings"
)

// LogSourceDefinition describes one log source: which category/product/
// service it applies to, which index patterns hold its data, and extra
// conditions every matching rule must carry. Definitions are immutable once
// loaded; merging produces new values.
type LogSourceDefinition struct {
	Name       string // configuration key, empty for merged definitions
	Category   string
	Product    string
	Service    string
	Index      []string
	Conditions Node   // AND-combined field/value conditions, nil if none
	IndexField string // backend field holding the index name, if any
}

// Matches reports whether the definition applies to the given criteria.
// An attribute the definition leaves empty is a wildcard; an attribute it
// specifies must be equal to the queried value. A definition specifying no
// attribute at all never matches.
func (ls *LogSourceDefinition) Matches(category, product, service string) bool {
	searched := 0
	pairs := [][2]string{
		{category, ls.Category},
		{product, ls.Product},
		{service, ls.Service},
	}
	for _, p := range pairs {
		queried, defined := p[0], p[1]
		if defined == "" {
			continue
		}
		if queried == "" || queried != defined {
			return false
		}
		searched++
	}
	return searched > 0
}

// IndexCondition builds a disjunction of "index field equals pattern"
// clauses, one per index pattern. It returns nil when no index field is
// configured: index selection is then implicit in the data source name.
func (ls *LogSourceDefinition) IndexCondition() Node {
	if ls.IndexField == "" {
		return nil
	}
	children := make([]Node, 0, len(ls.Index))
	for _, idx := range ls.Index {
		children = append(children, MapItem{Key: ls.IndexField, Value: Scalar(idx)})
	}
	return Or{Children: children}
}

func (ls *LogSourceDefinition) String() string {
	return fmt.Sprintf("[ LogSourceDefinition: %s %s %s indices: %s ]",
		ls.Category, ls.Product, ls.Service, strings.Join(ls.Index, ","))
}

// mergeLogSources combines the matching definitions into one synthetic
// definition. Category, product and service must each resolve to at most one
// distinct value. Index patterns are unioned and sorted; an empty union falls
// back to the configured default index. Extra conditions are combined under
// the configured merge method.
func mergeLogSources(matches []LogSourceDefinition, defaultIndex any, method MergeMethod, indexField string) (LogSourceDefinition, error) {
	var categories, products, services, indexes, indexFields []string
	for i := range matches {
		categories = append(categories, matches[i].Category)
		products = append(products, matches[i].Product)
		services = append(services, matches[i].Service)
		indexes = append(indexes, matches[i].Index...)
		indexFields = append(indexFields, matches[i].IndexField)
	}
	categories = distinctNonEmpty(categories)
	products = distinctNonEmpty(products)
	services = distinctNonEmpty(services)
	if len(categories) > 1 || len(products) > 1 || len(services) > 1 {
		return LogSourceDefinition{}, &MergeConflictError{
			Categories: categories,
			Products:   products,
			Services:   services,
		}
	}

	merged := LogSourceDefinition{
		Category:   firstOrEmpty(categories),
		Product:    firstOrEmpty(products),
		Service:    firstOrEmpty(services),
		IndexField: indexField,
	}
	if merged.IndexField == "" {
		merged.IndexField = firstOrEmpty(distinctNonEmpty(indexFields))
	}

	merged.Index = deduplicateStrings(indexes)
	sort.Strings(merged.Index)
	if len(merged.Index) == 0 && defaultIndex != nil {
		idx, err := defaultIndexPatterns(defaultIndex)
		if err != nil {
			return LogSourceDefinition{}, err
		}
		merged.Index = idx
	}

	var conds []Node
	for i := range matches {
		if matches[i].Conditions != nil {
			conds = append(conds, matches[i].Conditions)
		}
	}
	// An empty accumulation yields no extra condition, not an empty
	// conjunction. A single-element accumulation keeps the configured
	// combinator wrapper, which renders identically to its sole child.
	if len(conds) > 0 {
		switch method {
		case MergeOr:
			merged.Conditions = Or{Children: conds}
		default:
			merged.Conditions = And{Children: conds}
		}
	}

	return merged, nil
}

// defaultIndexPatterns normalizes a configured default index to a pattern
// list. A single string becomes a one-element list.
func defaultIndexPatterns(defaultIndex any) ([]string, error) {
	switch v := defaultIndex.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &InvalidDefaultIndexTypeError{Value: defaultIndex}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &InvalidDefaultIndexTypeError{Value: defaultIndex}
	}
}
