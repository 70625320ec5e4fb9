package sigma

// AggFunc identifies a Sigma aggregation function.
type AggFunc string

const (
	AggCount AggFunc = "count"
	AggSum   AggFunc = "sum"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
	AggAvg   AggFunc = "avg"
	AggNear  AggFunc = "near"
)

// AggregationSpec describes a count/threshold clause layered over the base
// predicate, parsed from the text after | in a Sigma condition.
// Examples:
//
//	count(EventID) > 5
//	count(EventID) by User > 5
//	sum(bytes) by host >= 1000
type AggregationSpec struct {
	Function     AggFunc
	Field        string // field being aggregated
	GroupField   string // optional group-by field
	ComparisonOp string // ">", ">=", "<", "<=", "="
	Threshold    string // threshold value in its written form
}

// AggregationFragments are the query fragments wrapping a rendered predicate
// when a rule carries an aggregation clause. They are threaded explicitly
// through the assembler, never stored on the backend.
type AggregationFragments struct {
	Prefix string
	Suffix string
}
