package sigma

// Node is the interface implemented by all condition tree nodes. Trees are
// produced by an external Sigma rule parser; this package only lowers them
// into backend query text.
type Node interface {
	node()
}

// And is a conjunction of child conditions.
type And struct {
	Children []Node
}

func (And) node() {}

// Or is a disjunction of child conditions.
type Or struct {
	Children []Node
}

func (Or) node() {}

// Not negates its child condition.
type Not struct {
	Child Node
}

func (Not) node() {}

// Subexpression is an explicit grouping boundary. It is the only node that
// requests parenthesization; And/Or render their children unparenthesized.
type Subexpression struct {
	Child Node
}

func (Subexpression) node() {}

// MapItem is a field/value pair. Value is a Scalar, a ListValue, or, only
// for backends without map-list special handling, a nested boolean node.
type MapItem struct {
	Key   string
	Value Node
}

func (MapItem) node() {}

// NullCheck tests a field for null. Negated renders as "not (field is null)".
type NullCheck struct {
	Field   string
	Negated bool
}

func (NullCheck) node() {}

// Scalar is a literal string or integer value, carried in its written form.
type Scalar string

func (Scalar) node() {}

// ListValue is an ordered list of scalar values. As a MapItem value it means
// "field equals any of these".
type ListValue []Scalar

func (ListValue) node() {}

// LogSource is the category/product/service selector carried by a rule.
// An empty attribute means "not specified".
type LogSource struct {
	Category string // e.g., "process_creation", "authentication"
	Product  string // e.g., "windows", "linux"
	Service  string // e.g., "sysmon", "security"
}

// Rule is the per-rule input handed over by the external parser: the parsed
// condition tree, an optional aggregation clause, and the logsource selector.
type Rule struct {
	Condition   Node
	Aggregation *AggregationSpec
	LogSource   LogSource
}
