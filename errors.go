package sigma

import "fmt"

// UnsupportedNodeKindError reports a condition node variant the renderer does
// not recognize. It indicates a contract violation by the producing parser,
// not a recoverable runtime condition.
type UnsupportedNodeKindError struct {
	Node Node
}

func (e *UnsupportedNodeKindError) Error() string {
	return fmt.Sprintf("node type %T was not expected in the condition tree", e.Node)
}

// UnsupportedMapValueTypeError reports a map item whose value type the
// backend cannot lower (a nested boolean node under map-list special
// handling).
type UnsupportedMapValueTypeError struct {
	Key   string
	Value Node
}

func (e *UnsupportedMapValueTypeError) Error() string {
	return fmt.Sprintf("backend does not support map value of type %T for key %q", e.Value, e.Key)
}

// UnsupportedAggregationError reports an aggregation function the backend
// cannot render. The "near" operator is recognized but unsupported.
type UnsupportedAggregationError struct {
	Function AggFunc
}

func (e *UnsupportedAggregationError) Error() string {
	return fmt.Sprintf("aggregation operator %q is not supported by this backend", string(e.Function))
}

// MergeConflictError reports log source definitions whose categories,
// products or services cannot be merged because more than one distinct value
// survives.
type MergeConflictError struct {
	Categories []string
	Products   []string
	Services   []string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merged log source definitions must have disjunct categories (%v), products (%v) and services (%v)",
		e.Categories, e.Products, e.Services)
}

// InvalidDefaultIndexTypeError reports a configured default index that is
// neither a string nor a list of strings.
type InvalidDefaultIndexTypeError struct {
	Value any
}

func (e *InvalidDefaultIndexTypeError) Error() string {
	return fmt.Sprintf("default index must be a string or list of strings, got %T", e.Value)
}

// FieldMappingsNotAMapError reports a fieldmappings section that is not a
// mapping of source field to target field(s).
type FieldMappingsNotAMapError struct{}

func (e *FieldMappingsNotAMapError) Error() string {
	return "fieldmappings must be a map"
}

// FieldMappingMalformedError reports a field mapping target that is neither
// a string nor a list of strings.
type FieldMappingMalformedError struct {
	Source string
}

func (e *FieldMappingMalformedError) Error() string {
	return fmt.Sprintf("field mapping %q: target must be a string or list of strings", e.Source)
}

// InvalidMergeMethodError reports a logsourcemerging value other than "and"
// or "or".
type InvalidMergeMethodError struct {
	Value string
}

func (e *InvalidMergeMethodError) Error() string {
	return fmt.Sprintf("logsourcemerging must be %q or %q, got %q", MergeAnd, MergeOr, e.Value)
}

// LogSourceDefinitionMalformedError reports a structurally invalid log source
// definition. Name is the configuration key of the offending definition, or
// empty when the logsources section itself is malformed.
type LogSourceDefinitionMalformedError struct {
	Name   string
	Reason string
}

func (e *LogSourceDefinitionMalformedError) Error() string {
	if e.Name == "" {
		return "logsources " + e.Reason
	}
	return fmt.Sprintf("log source definition %q: %s", e.Name, e.Reason)
}

// LogSourceConditionsNotAMapError reports a log source conditions section
// that is not a field/value mapping.
type LogSourceConditionsNotAMapError struct {
	Name string
}

func (e *LogSourceConditionsNotAMapError) Error() string {
	return fmt.Sprintf("log source definition %q: conditions must be a map", e.Name)
}

// InvalidIndexTypeError reports a log source index that is neither a string
// nor a list of strings.
type InvalidIndexTypeError struct {
	Name string
}

func (e *InvalidIndexTypeError) Error() string {
	return fmt.Sprintf("log source definition %q: index must be a string or list of strings", e.Name)
}
