package core

import (
	"fmt"
	"sort"
)

// FieldSpec describes one field within a log-type schema.
type FieldSpec struct {
	Type     string `json:"type" yaml:"type"` // string|int|float|bool|object|array|timestamp
	Required bool   `json:"required" yaml:"required"`
}

// LogSchema describes the expected shape of one log type. Validation is
// a pre-filter for callers; the engine itself never consults schemas.
type LogSchema struct {
	LogType        string               `json:"log_type" yaml:"log_type"`
	Description    string               `json:"description" yaml:"description"`
	TimestampField string               `json:"timestamp_field" yaml:"timestamp_field"`
	Fields         map[string]FieldSpec `json:"fields" yaml:"fields"`
}

// Validate checks an event against the schema and returns human-readable
// error strings, empty when the event conforms.
func (s *LogSchema) Validate(event Event) []string {
	var errs []string

	// Required fields first, in a stable order for deterministic output.
	var required []string
	for name, spec := range s.Fields {
		if spec.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	for _, name := range required {
		if !event.Has(name) {
			errs = append(errs, fmt.Sprintf("missing required field: %s", name))
		}
	}

	var typed []string
	for name := range s.Fields {
		if event.Has(name) {
			typed = append(typed, name)
		}
	}
	sort.Strings(typed)
	for _, name := range typed {
		spec := s.Fields[name]
		value := event[name]
		if !checkType(value, spec.Type) {
			errs = append(errs, fmt.Sprintf("field %q has wrong type: expected %s, got %T", name, spec.Type, value))
		}
	}

	return errs
}

// checkType reports whether a JSON-decoded value satisfies the schema
// type taxonomy. Nil values always pass; required-ness is checked
// separately.
func checkType(value interface{}, expected string) bool {
	if value == nil {
		return true
	}
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "int":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "float":
		switch value.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case "bool":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "timestamp":
		// Timestamps arrive as ISO-style strings; format checking is
		// left to consumers that actually parse them.
		_, ok := value.(string)
		return ok
	}
	// Unknown taxonomy entries are permissive.
	return true
}

// SchemaRegistry is an immutable set of log-type schemas. Extend it with
// WithSchema, which returns an augmented copy; the shared built-in
// registry is never mutated after construction.
type SchemaRegistry struct {
	schemas map[string]*LogSchema
}

// Get returns the schema for a log type, nil when none is registered.
func (r *SchemaRegistry) Get(logType string) *LogSchema {
	return r.schemas[logType]
}

// LogTypes returns the registered log-type names in sorted order.
func (r *SchemaRegistry) LogTypes() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks an event against the named log type. Unknown log
// types validate as always-empty: schemas are an optional pre-filter,
// not a gate.
func (r *SchemaRegistry) Validate(logType string, event Event) []string {
	schema := r.Get(logType)
	if schema == nil {
		return nil
	}
	return schema.Validate(event)
}

// WithSchema returns a new registry containing all existing schemas plus
// the given one, replacing any schema with the same log type.
func (r *SchemaRegistry) WithSchema(schema *LogSchema) *SchemaRegistry {
	next := make(map[string]*LogSchema, len(r.schemas)+1)
	for name, s := range r.schemas {
		next[name] = s
	}
	next[schema.LogType] = schema
	return &SchemaRegistry{schemas: next}
}

// BuiltinSchemas returns the registry of log types known out of the box.
func BuiltinSchemas() *SchemaRegistry {
	r := &SchemaRegistry{schemas: map[string]*LogSchema{}}
	for _, s := range builtinSchemas {
		r.schemas[s.LogType] = s
	}
	return r
}

var builtinSchemas = []*LogSchema{
	{
		LogType:        "AWS.CloudTrail",
		Description:    "AWS CloudTrail audit logs",
		TimestampField: "eventTime",
		Fields: map[string]FieldSpec{
			"eventVersion":      {Type: "string", Required: true},
			"eventSource":       {Type: "string", Required: true},
			"eventName":         {Type: "string", Required: true},
			"eventTime":         {Type: "timestamp"},
			"awsRegion":         {Type: "string"},
			"sourceIPAddress":   {Type: "string"},
			"userAgent":         {Type: "string"},
			"userIdentity":      {Type: "object"},
			"requestParameters": {Type: "object"},
			"responseElements":  {Type: "object"},
			"errorCode":         {Type: "string"},
			"errorMessage":      {Type: "string"},
		},
	},
	{
		LogType:        "AWS.GuardDuty",
		Description:    "AWS GuardDuty security findings",
		TimestampField: "time",
		Fields: map[string]FieldSpec{
			"detail-type": {Type: "string", Required: true},
			"source":      {Type: "string", Required: true},
			"time":        {Type: "timestamp"},
			"detail":      {Type: "object"},
			"account":     {Type: "string"},
			"region":      {Type: "string"},
		},
	},
	{
		LogType:        "Okta.SystemLog",
		Description:    "Okta System Log events",
		TimestampField: "published",
		Fields: map[string]FieldSpec{
			"eventType":             {Type: "string", Required: true},
			"actor":                 {Type: "object", Required: true},
			"published":             {Type: "timestamp"},
			"severity":              {Type: "string"},
			"displayMessage":        {Type: "string"},
			"outcome":               {Type: "object"},
			"target":                {Type: "array"},
			"client":                {Type: "object"},
			"authenticationContext": {Type: "object"},
		},
	},
	{
		LogType:        "GitHub.Audit",
		Description:    "GitHub audit log events",
		TimestampField: "@timestamp",
		Fields: map[string]FieldSpec{
			"action":     {Type: "string", Required: true},
			"@timestamp": {Type: "timestamp"},
			"actor":      {Type: "string"},
			"actor_ip":   {Type: "string"},
			"org":        {Type: "string"},
			"repo":       {Type: "string"},
			"user":       {Type: "string"},
		},
	},
	{
		LogType:        "Custom.Sysmon",
		Description:    "Windows Sysmon events",
		TimestampField: "UtcTime",
		Fields: map[string]FieldSpec{
			"EventID":           {Type: "int", Required: true},
			"UtcTime":           {Type: "timestamp"},
			"ProcessId":         {Type: "int"},
			"Image":             {Type: "string"},
			"CommandLine":       {Type: "string"},
			"CurrentDirectory":  {Type: "string"},
			"User":              {Type: "string"},
			"ParentProcessId":   {Type: "int"},
			"ParentImage":       {Type: "string"},
			"ParentCommandLine": {Type: "string"},
			"TargetFilename":    {Type: "string"},
			"DestinationIp":     {Type: "string"},
			"DestinationPort":   {Type: "int"},
		},
	},
	{
		LogType:        "Custom.Osquery",
		Description:    "osquery scheduled query results",
		TimestampField: "unixTime",
		Fields: map[string]FieldSpec{
			"name":           {Type: "string", Required: true},
			"hostIdentifier": {Type: "string"},
			"unixTime":       {Type: "int"},
			"calendarTime":   {Type: "string"},
			"columns":        {Type: "object"},
			"action":         {Type: "string"},
		},
	},
}
