package core

// Severity levels used by verdicts. SeverityMedium is the default when a
// matched unit supplies no severity extractor.
const (
	SeverityInfo     = "INFO"
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Verdict is the outcome of evaluating one detection unit against one
// event. The metadata fields (Title through DedupKey) are populated only
// when Matched is true; their omitempty tags keep unmatched verdicts
// free of empty strings on export.
type Verdict struct {
	RuleID    string `json:"rule_id"`
	SourceRef string `json:"source_ref"`
	Matched   bool   `json:"matched"`

	Title        string                 `json:"title,omitempty"`
	Severity     string                 `json:"severity,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Reference    string                 `json:"reference,omitempty"`
	Runbook      string                 `json:"runbook,omitempty"`
	AlertContext map[string]interface{} `json:"alert_context,omitempty"`
	DedupKey     string                 `json:"dedup_key,omitempty"`

	// Error carries any fault raised by the predicate or an extractor.
	// A predicate fault forces Matched false; an extractor fault leaves
	// Matched true and the already-computed fields intact.
	Error string `json:"error,omitempty"`

	DurationMS float64 `json:"duration_ms"`
}
