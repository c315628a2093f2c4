package model

// IdentityFragment is a partial, source-tagged write request describing
// some attributes of a patient, as submitted by one upstream system.
type IdentityFragment struct {
	// FragmentId is a caller-supplied idempotency key. Resubmissions with
	// the same id are deduplicated against recent merge history.
	FragmentId string `json:"fragment_id,omitempty"`
	SourceTag  string `json:"source_tag"`
	Actor      string `json:"actor,omitempty"`

	// RecordRef optionally pins the fragment to a known canonical record.
	RecordRef string `json:"record_ref,omitempty"`

	Phone       string `json:"phone,omitempty"`
	ExternalRef string `json:"external_ref,omitempty"`

	// Fields carries the attribute values being written, keyed by field
	// name from the record registry. Multi-valued fields carry arrays.
	Fields map[string]interface{} `json:"fields,omitempty"`

	// Strategies maps a field name to its merge strategy. Fields without
	// an entry default to overwrite.
	Strategies map[string]string `json:"strategies,omitempty"`

	// HighPriority marks the patient for proactive view recomputation
	// (e.g. portal access granted).
	HighPriority *bool `json:"high_priority,omitempty"`
}

// StrategyFor returns the merge strategy for a field, defaulting to
// overwrite.
func (f *IdentityFragment) StrategyFor(field, defaultStrategy string) string {
	if s, ok := f.Strategies[field]; ok && s != "" {
		return s
	}
	return defaultStrategy
}
