package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d struct {
		V Duration `json:"v"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"v":"1500ms"}`), &d))
	assert.Equal(t, 1500*time.Millisecond, d.V.Duration)

	require.NoError(t, json.Unmarshal([]byte(`{"v":2000000000}`), &d))
	assert.Equal(t, 2*time.Second, d.V.Duration)

	assert.Error(t, json.Unmarshal([]byte(`{"v":"nope"}`), &d))
	assert.Error(t, json.Unmarshal([]byte(`{"v":true}`), &d))
}
