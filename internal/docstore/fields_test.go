package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripUndefined_OmitsNilValues(t *testing.T) {
	t.Parallel()

	var nilDate *time.Time
	var nilSeq []int
	fields := map[string]any{
		"client":           "Acme",
		"description":      nil,
		"followUpDate":     nilDate,
		"followUpSequence": nilSeq,
		"followUpDone":     false,
		"amount":           0.0,
		"cleared":          Null,
	}

	got := StripUndefined(fields)

	assert.Equal(t, map[string]any{
		"client":       "Acme",
		"followUpDone": false,
		"amount":       0.0,
		"cleared":      Null,
	}, got)
	assert.Len(t, fields, 7, "input must not be modified")
}

func TestNormalize_ResolvesSentinels(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	n, err := Normalize(map[string]any{
		"followUpDate":     Null,
		"followUpSequence": Clear,
		"createdAt":        ServerTimestamp,
		"amount":           150,
		"undefinedField":   nil,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"followUpDate": nil,
		"createdAt":    "2024-01-10T12:00:00Z",
		"amount":       float64(150),
	}, n.Set)
	assert.Equal(t, []string{"followUpSequence"}, n.Delete)
}

func TestNormalized_Apply(t *testing.T) {
	t.Parallel()

	data := map[string]any{"a": 1.0, "b": "x", "c": true}
	Normalized{Set: map[string]any{"a": 2.0}, Delete: []string{"c"}}.Apply(data)

	assert.Equal(t, map[string]any{"a": 2.0, "b": "x"}, data)
}

func TestSentinel_RejectedWhenNested(t *testing.T) {
	t.Parallel()

	_, err := Normalize(map[string]any{"nested": map[string]any{"x": ServerTimestamp}}, time.Now())
	require.Error(t, err)
}

func TestEncodeDecodeMap(t *testing.T) {
	t.Parallel()

	raw, err := Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	data, err := DecodeMap(nil)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = DecodeMap([]byte(`[1,2]`))
	require.Error(t, err)
}
