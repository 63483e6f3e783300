package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordID(t *testing.T) {
	id, err := ParseRecordID("64B7F0C2A1B2C3D4E5F60718")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.String())

	for _, bad := range []string{"", "p1", "64b7f0c2a1b2c3d4e5f6071z", "64b7f0c2a1b2c3d4e5f607180"} {
		_, err := ParseRecordID(bad)
		assert.Error(t, err, bad)
	}
}

func TestRecordID_JSON(t *testing.T) {
	var payload struct {
		ID RecordID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"64b7f0c2a1b2c3d4e5f60718"}`), &payload))
	assert.False(t, payload.ID.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"64b7f0c2a1b2c3d4e5f60718"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"id":"nope"}`), &payload))
}

func TestNewReportID_Unique(t *testing.T) {
	assert.NotEqual(t, NewReportID(), NewReportID())
}
