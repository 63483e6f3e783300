package valueobjects

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// RecordID is the document store identifier of a record, a 24 character
// hex string. It is also the identifier carried by the record's graph
// mirror.
type RecordID struct {
	value string
}

// ParseRecordID validates s as a record identifier.
func ParseRecordID(s string) (RecordID, error) {
	if s == "" {
		return RecordID{}, errors.New("record ID cannot be empty")
	}
	if !IsRecordID(s) {
		return RecordID{}, errors.New("record ID must be 24 hex characters")
	}
	return RecordID{value: strings.ToLower(s)}, nil
}

// IsRecordID reports whether s has the shape of a record identifier.
func IsRecordID(s string) bool {
	if len(s) != 24 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func (id RecordID) String() string { return id.value }

func (id RecordID) IsZero() bool { return id.value == "" }

func (id RecordID) Equals(other RecordID) bool { return id.value == other.value }

func (id RecordID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

func (id *RecordID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("record ID must be a string")
	}
	if s == "" {
		*id = RecordID{}
		return nil
	}
	parsed, err := ParseRecordID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewReportID returns a fresh identifier for a drift report.
func NewReportID() string {
	return uuid.New().String()
}

// NewNodeKey returns a fresh identifier for graph-only nodes such as
// sections, questions and options.
func NewNodeKey() string {
	return uuid.New().String()
}
