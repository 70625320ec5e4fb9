package sigma

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// AQL token and expression constants for the QRadar dialect.
const (
	aqlAndToken      = " and "
	aqlOrToken       = " or "
	aqlNotToken      = "not "
	aqlListSeparator = " "
	aqlWildcard      = "%"
	aqlEventTable    = "events"
	aqlFlowTable     = "flows"
)

// qradarMapListsSpecialHandling selects list expansion for map values: a list
// value renders as a parenthesized disjunction per element. With it enabled,
// nested boolean nodes are not legal map values.
const qradarMapListsSpecialHandling = true

// QRadarBackend converts Sigma condition trees into QRadar AQL saved
// searches. It holds only the immutable configuration and a logger, so a
// single instance can translate rules concurrently.
type QRadarBackend struct {
	config *Configuration
	logger *zap.Logger
}

var _ Backend = (*QRadarBackend)(nil)

// NewQRadarBackend creates a backend over a loaded configuration. A nil
// logger disables logging.
func NewQRadarBackend(config *Configuration, logger *zap.Logger) *QRadarBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRadarBackend{config: config, logger: logger}
}

// IndexField returns "": QRadar selects its data through the AQL data
// source name (events or flows), not an index field.
func (b *QRadarBackend) IndexField() string {
	return ""
}

// Generate translates one rule into an AQL query string.
func (b *QRadarBackend) Generate(rule *Rule) (string, error) {
	merged, err := b.config.ResolveLogSource(
		rule.LogSource.Category, rule.LogSource.Product, rule.LogSource.Service, b.IndexField())
	if err != nil {
		b.logger.Debug("log source resolution failed",
			zap.String("category", rule.LogSource.Category),
			zap.String("product", rule.LogSource.Product),
			zap.String("service", rule.LogSource.Service),
			zap.Error(err))
		return "", err
	}

	cond := rule.Condition
	if merged.Conditions != nil {
		if cond == nil {
			cond = merged.Conditions
		} else {
			cond = And{Children: []Node{groupForAnd(merged.Conditions), groupForAnd(cond)}}
		}
	}

	predicate, err := b.renderNode(cond)
	if err != nil {
		b.logger.Debug("condition rendering failed", zap.Error(err))
		return "", err
	}

	dataSource := dataSourceFor(merged.Index)
	fragments, err := b.renderAggregation(rule.Aggregation, dataSource)
	if err != nil {
		b.logger.Debug("aggregation rendering failed", zap.Error(err))
		return "", err
	}

	query := assemble(predicate, fragments, dataSource)
	b.logger.Debug("rule translated",
		zap.String("datasource", dataSource),
		zap.Strings("index", merged.Index),
		zap.Int("query_length", len(query)))
	return query, nil
}

// renderNode lowers a condition node into AQL text. Dispatch is exhaustive
// over the node variants; anything else is a contract violation.
func (b *QRadarBackend) renderNode(n Node) (string, error) {
	switch n := n.(type) {
	case And:
		return b.renderJoin(n.Children, aqlAndToken)
	case Or:
		return b.renderJoin(n.Children, aqlOrToken)
	case Not:
		child, err := b.renderNode(n.Child)
		if err != nil {
			return "", err
		}
		return aqlNotToken + child, nil
	case Subexpression:
		child, err := b.renderNode(n.Child)
		if err != nil {
			return "", err
		}
		return "(" + child + ")", nil
	case MapItem:
		return b.renderMapItem(n)
	case NullCheck:
		return b.renderNullCheck(n), nil
	case Scalar:
		return b.renderFullText(string(n)), nil
	case ListValue:
		parts := make([]string, 0, len(n))
		for _, item := range n {
			parts = append(parts, b.renderFullText(string(item)))
		}
		return strings.Join(parts, aqlListSeparator), nil
	default:
		return "", &UnsupportedNodeKindError{Node: n}
	}
}

// renderJoin renders children and joins them with a boolean token.
func (b *QRadarBackend) renderJoin(children []Node, token string) (string, error) {
	parts := make([]string, 0, len(children))
	for _, child := range children {
		s, err := b.renderNode(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, token), nil
}

// renderMapItem renders a field/value condition, translating the key through
// the configured field mapping. Multi-target mappings OR-combine one clause
// per target field.
func (b *QRadarBackend) renderMapItem(item MapItem) (string, error) {
	targets := b.config.FieldMapping(item.Key).Targets
	clauses := make([]string, 0, len(targets))
	for _, target := range targets {
		clause, err := b.renderMapValue(target, item)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return "(" + strings.Join(clauses, aqlOrToken) + ")", nil
}

// renderMapValue renders the value side of a map item against one target
// field.
func (b *QRadarBackend) renderMapValue(key string, item MapItem) (string, error) {
	switch v := item.Value.(type) {
	case Scalar:
		return b.renderKeyScalar(key, string(v), "%s=%s"), nil
	case ListValue:
		clauses := make([]string, 0, len(v))
		for _, listItem := range v {
			clauses = append(clauses, b.renderKeyScalar(key, string(listItem), "%s = %s"))
		}
		return "(" + strings.Join(clauses, aqlOrToken) + ")", nil
	default:
		if qradarMapListsSpecialHandling {
			return "", &UnsupportedMapValueTypeError{Key: item.Key, Value: item.Value}
		}
		nested, err := b.renderNode(item.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s=%s", cleanKey(key), nested), nil
	}
}

// renderKeyScalar renders one key/scalar clause. A value containing the
// wildcard marker becomes a pattern match; equalFormat carries the dialect's
// equality expression.
func (b *QRadarBackend) renderKeyScalar(key, value, equalFormat string) string {
	if strings.Contains(value, "*") {
		pattern := strings.ReplaceAll(value, "*", aqlWildcard)
		return fmt.Sprintf("%s ilike %s", cleanKey(key), quoteValue(pattern))
	}
	return fmt.Sprintf(equalFormat, cleanKey(key), quoteValue(value))
}

// renderNullCheck renders a null test, OR-combined across mapped targets.
func (b *QRadarBackend) renderNullCheck(n NullCheck) string {
	targets := b.config.FieldMapping(n.Field).Targets
	clauses := make([]string, 0, len(targets))
	for _, target := range targets {
		if n.Negated {
			clauses = append(clauses, fmt.Sprintf("not (%s is null)", target))
		} else {
			clauses = append(clauses, fmt.Sprintf("%s is null", target))
		}
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return "(" + strings.Join(clauses, aqlOrToken) + ")"
}

// renderFullText renders a free-text search term against the event payload.
func (b *QRadarBackend) renderFullText(value string) string {
	return "UTF8(payload) ilike '" + aqlWildcard + escapeValue(value) + aqlWildcard + "'"
}

// renderAggregation builds the prefix/suffix fragments for an aggregation
// clause. The fragments are returned, never stored, so concurrent rule
// translations cannot interfere.
func (b *QRadarBackend) renderAggregation(agg *AggregationSpec, dataSource string) (*AggregationFragments, error) {
	if agg == nil {
		return nil, nil
	}
	switch agg.Function {
	case AggCount, AggSum, AggMin, AggMax, AggAvg:
	default:
		// "near" and anything unrecognized.
		return nil, &UnsupportedAggregationError{Function: agg.Function}
	}

	groupField := agg.Field
	if agg.GroupField != "" {
		groupField = agg.GroupField
	}
	return &AggregationFragments{
		Prefix: fmt.Sprintf("SELECT %s(%s) as agg_val from %s where ",
			strings.ToUpper(string(agg.Function)), agg.Field, dataSource),
		Suffix: fmt.Sprintf(" group by %s having agg_val %s %s",
			groupField, agg.ComparisonOp, agg.Threshold),
	}, nil
}

// assemble combines the rendered predicate, optional aggregation fragments
// and data source name into the final query. The aggregation prefix already
// carries the from/where clause, so the two paths are mutually exclusive.
func assemble(predicate string, fragments *AggregationFragments, dataSource string) string {
	if fragments != nil {
		return fragments.Prefix + predicate + fragments.Suffix
	}
	return fmt.Sprintf("SELECT UTF8(payload) as search_payload from %s where %s", dataSource, predicate)
}

// dataSourceFor picks the AQL data source as a pure function of the resolved
// index patterns: any flow-type pattern selects the flows table.
func dataSourceFor(indexes []string) string {
	for _, idx := range indexes {
		if strings.Contains(idx, "flow") {
			return aqlFlowTable
		}
	}
	return aqlEventTable
}

// groupForAnd wraps a disjunction in an explicit subexpression so it can be
// embedded as one operand of a conjunction without changing precedence.
func groupForAnd(n Node) Node {
	if _, ok := n.(Or); ok {
		return Subexpression{Child: n}
	}
	return n
}

// cleanKey quotes keys containing whitespace.
func cleanKey(key string) string {
	if strings.Contains(key, " ") {
		return `"` + key + `"`
	}
	return key
}

// escapeValue doubles embedded quote characters so no unescaped delimiter can
// appear inside a value literal.
func escapeValue(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// quoteValue renders a scalar as an AQL value literal.
func quoteValue(value string) string {
	return "'" + escapeValue(value) + "'"
}
