package persistence

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MarshalSubmissionRecord serializes a SubmissionRecord to JSON bytes.
func MarshalSubmissionRecord(record *SubmissionRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("cannot marshal nil SubmissionRecord")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SubmissionRecord to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalSubmissionRecord deserializes a SubmissionRecord from JSON bytes.
func UnmarshalSubmissionRecord(data []byte) (*SubmissionRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var record SubmissionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to SubmissionRecord: %w", err)
	}

	return &record, nil
}

// ValidateSubmissionRecord checks the fields every backend relies on.
func ValidateSubmissionRecord(record *SubmissionRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SubmissionRecord")
	}
	if record.ID == "" {
		return fmt.Errorf("submission record has no ID")
	}
	if record.Sender == "" {
		return fmt.Errorf("submission record has no sender")
	}
	return nil
}

// SortSubmissions orders records by nonce, then by submission time.
func SortSubmissions(records []*SubmissionRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Nonce != records[j].Nonce {
			return records[i].Nonce < records[j].Nonce
		}
		return records[i].SubmittedAt < records[j].SubmittedAt
	})
}
