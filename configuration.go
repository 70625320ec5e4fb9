package sigma

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// MergeMethod selects how extra conditions of merged log source definitions
// are combined.
type MergeMethod string

const (
	MergeAnd MergeMethod = "and"
	MergeOr  MergeMethod = "or"
)

// Configuration holds field mappings and log source definitions for a batch
// of rule translations. It is built once from a configuration document and
// queried read-only afterwards, so independent rule translations may share it
// across goroutines.
type Configuration struct {
	fieldMappings map[string]FieldMapping
	logSources    []LogSourceDefinition
	mergeMethod   MergeMethod
	defaultIndex  any // string or []string; validated when a merge needs it
	logger        *zap.Logger
}

// rawConfiguration mirrors the configuration document before validation.
// Flexible string-or-list sections stay untyped and are checked eagerly in
// LoadConfiguration.
type rawConfiguration struct {
	FieldMappings    any    `yaml:"fieldmappings"`
	LogSourceMerging string `yaml:"logsourcemerging"`
	DefaultIndex     any    `yaml:"defaultindex"`
	LogSources       any    `yaml:"logsources"`
}

// LoadConfiguration parses and validates a configuration document. Every
// structural defect is reported as a typed error before any rule translation
// can observe a partially built configuration. A nil logger disables logging.
func LoadConfiguration(doc []byte, logger *zap.Logger) (*Configuration, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var raw rawConfiguration
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("configuration parse error: %w", err)
	}

	cfg := &Configuration{
		fieldMappings: make(map[string]FieldMapping),
		mergeMethod:   MergeAnd,
		defaultIndex:  raw.DefaultIndex,
		logger:        logger,
	}

	switch raw.LogSourceMerging {
	case "", string(MergeAnd):
		cfg.mergeMethod = MergeAnd
	case string(MergeOr):
		cfg.mergeMethod = MergeOr
	default:
		return nil, &InvalidMergeMethodError{Value: raw.LogSourceMerging}
	}

	if raw.FieldMappings != nil {
		mappings, err := loadFieldMappings(raw.FieldMappings)
		if err != nil {
			return nil, err
		}
		cfg.fieldMappings = mappings
	}

	if raw.LogSources != nil {
		sources, err := loadLogSources(raw.LogSources)
		if err != nil {
			return nil, err
		}
		cfg.logSources = sources
	}

	logger.Debug("configuration loaded",
		zap.Int("fieldmappings", len(cfg.fieldMappings)),
		zap.Int("logsources", len(cfg.logSources)),
		zap.String("mergemethod", string(cfg.mergeMethod)))

	return cfg, nil
}

// FieldMapping returns the configured mapping for a field, or an identity
// mapping when none is configured.
func (c *Configuration) FieldMapping(field string) FieldMapping {
	if m, ok := c.fieldMappings[field]; ok {
		return m
	}
	return identityMapping(field)
}

// MergeMethod returns the configured merge method for extra conditions.
func (c *Configuration) MergeMethod() MergeMethod {
	return c.mergeMethod
}

// ResolveLogSource merges all log source definitions matching the criteria
// into one synthetic definition. indexField is the backend's index field
// name, injected per resolution rather than stored on the configuration.
func (c *Configuration) ResolveLogSource(category, product, service, indexField string) (LogSourceDefinition, error) {
	var matches []LogSourceDefinition
	for i := range c.logSources {
		if c.logSources[i].Matches(category, product, service) {
			matches = append(matches, c.logSources[i])
		}
	}
	merged, err := mergeLogSources(matches, c.defaultIndex, c.mergeMethod, indexField)
	if err != nil {
		return LogSourceDefinition{}, err
	}
	c.logger.Debug("log source resolved",
		zap.String("category", category),
		zap.String("product", product),
		zap.String("service", service),
		zap.Int("matches", len(matches)),
		zap.Strings("index", merged.Index))
	return merged, nil
}

// loadFieldMappings validates the fieldmappings section.
func loadFieldMappings(raw any) (map[string]FieldMapping, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &FieldMappingsNotAMapError{}
	}
	mappings := make(map[string]FieldMapping, len(m))
	for source, target := range m {
		targets, ok := stringOrStringList(target)
		if !ok {
			return nil, &FieldMappingMalformedError{Source: source}
		}
		mappings[source] = FieldMapping{Source: source, Targets: targets}
	}
	return mappings, nil
}

// loadLogSources validates the logsources section. Definitions are sorted by
// name so resolution and merging are deterministic regardless of document
// order.
func loadLogSources(raw any) ([]LogSourceDefinition, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &LogSourceDefinitionMalformedError{Reason: "must be a map"}
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make([]LogSourceDefinition, 0, len(m))
	for _, name := range names {
		ls, err := loadLogSource(name, m[name])
		if err != nil {
			return nil, err
		}
		sources = append(sources, ls)
	}
	return sources, nil
}

// loadLogSource validates a single log source definition.
func loadLogSource(name string, raw any) (LogSourceDefinition, error) {
	def, ok := raw.(map[string]any)
	if !ok {
		return LogSourceDefinition{}, &LogSourceDefinitionMalformedError{Name: name, Reason: "must be a map"}
	}

	ls := LogSourceDefinition{Name: name}
	for _, attr := range []struct {
		key string
		dst *string
	}{
		{"category", &ls.Category},
		{"product", &ls.Product},
		{"service", &ls.Service},
	} {
		v, present := def[attr.key]
		if !present {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return LogSourceDefinition{}, &LogSourceDefinitionMalformedError{
				Name:   name,
				Reason: fmt.Sprintf("%s must be a string", attr.key),
			}
		}
		*attr.dst = s
	}
	if ls.Category == "" && ls.Product == "" && ls.Service == "" {
		return LogSourceDefinition{}, &LogSourceDefinitionMalformedError{
			Name:   name,
			Reason: "definition will never match: category, product and service all absent",
		}
	}

	if rawIndex, present := def["index"]; present {
		index, ok := stringOrStringList(rawIndex)
		if !ok {
			return LogSourceDefinition{}, &InvalidIndexTypeError{Name: name}
		}
		ls.Index = index
	}
	// No default index handling here: definitions need not carry an index,
	// a valid index may only result from a merge.

	if rawConds, present := def["conditions"]; present {
		conds, err := loadLogSourceConditions(name, rawConds)
		if err != nil {
			return LogSourceDefinition{}, err
		}
		ls.Conditions = conds
	}

	return ls, nil
}

// loadLogSourceConditions turns a conditions map into an AND of field/value
// items, with keys sorted for deterministic rendering.
func loadLogSourceConditions(name string, raw any) (Node, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &LogSourceConditionsNotAMapError{Name: name}
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	children := make([]Node, 0, len(m))
	for _, key := range keys {
		children = append(children, MapItem{Key: key, Value: scalarOrList(m[key])})
	}
	return And{Children: children}, nil
}

// scalarOrList coerces a YAML condition value into a Scalar or ListValue.
func scalarOrList(raw any) Node {
	if list, ok := raw.([]any); ok {
		items := make(ListValue, 0, len(list))
		for _, item := range list {
			items = append(items, Scalar(fmt.Sprintf("%v", item)))
		}
		return items
	}
	return Scalar(fmt.Sprintf("%v", raw))
}

// stringOrStringList normalizes a string-or-list configuration value.
func stringOrStringList(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case string:
		return []string{v}, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
