package model

import "time"

// FieldChange records one field transition applied by a merge.
type FieldChange struct {
	Field    string      `json:"field"`
	Before   interface{} `json:"before,omitempty"`
	After    interface{} `json:"after,omitempty"`
	Strategy string      `json:"strategy"`
}

// FieldConflict records an overwrite that replaced a non-empty value with
// a materially different non-empty value. Conflicts never block a write;
// they exist so merge quality can be audited later.
type FieldConflict struct {
	Field    string      `json:"field"`
	Existing interface{} `json:"existing"`
	Incoming interface{} `json:"incoming"`
}

// MergeHistoryEntry is the immutable audit record of one merge engine
// invocation. Entries are append-only and ordered by (created_at,
// sequence) per record, matching commit order.
type MergeHistoryEntry struct {
	RecordId      string          `json:"record_id"`
	Sequence      int64           `json:"sequence"`
	FragmentId    string          `json:"fragment_id,omitempty"`
	SourceTag     string          `json:"source_tag"`
	Actor         string          `json:"actor,omitempty"`
	FieldsTouched []string        `json:"fields_touched"`
	Changes       []FieldChange   `json:"changes"`
	Conflicts     []FieldConflict `json:"conflicts"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HistoryPage is one page of a record's merge history plus the cursor
// for the next page, empty on the last page.
type HistoryPage struct {
	Entries    []MergeHistoryEntry `json:"entries"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// MergeSummary is the ingress response payload for a merged fragment.
type MergeSummary struct {
	RecordId          string `json:"record_id"`
	Created           bool   `json:"created"`
	FieldsMerged      int    `json:"fields_merged"`
	ConflictsRecorded int    `json:"conflicts_recorded"`
	CompletenessScore int    `json:"completeness_score"`
	Deduplicated      bool   `json:"deduplicated,omitempty"`
}
