package dataset

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsNormalizeMissing(t *testing.T) {
	assert.True(t, NewString("").IsMissing())
	assert.True(t, NewNumber(math.NaN()).IsMissing())
	assert.True(t, NewTimestamp(time.Time{}).IsMissing())
	assert.True(t, Value{}.IsMissing())
	assert.True(t, Value{}.Equal(Missing()))
}

func TestEqualIsExact(t *testing.T) {
	assert.True(t, NewString("yes").Equal(NewString("yes")))
	assert.False(t, NewString("yes").Equal(NewString("Yes")))
	assert.False(t, NewString("3").Equal(NewNumber(3)))
	assert.NotEqual(t, NewString("3").Key(), NewNumber(3).Key())
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(NewNumber(2), NewNumber(10)))
	assert.Equal(t, 1, Compare(NewString("b"), NewString("a")))
	assert.Equal(t, -1, Compare(NewString("z"), Missing()))
	assert.Equal(t, 0, Compare(Missing(), Missing()))

	early := NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	late := NewTimestamp(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, -1, Compare(early, late))
}

func TestValueJSON(t *testing.T) {
	encoded, err := json.Marshal([]Value{NewString("a"), NewNumber(1.5), Missing()})
	require.NoError(t, err)
	assert.JSONEq(t, `["a", 1.5, null]`, string(encoded))

	var decoded []Value
	require.NoError(t, json.Unmarshal([]byte(`["x", 2, null, true]`), &decoded))
	require.Len(t, decoded, 4)
	assert.Equal(t, NewString("x"), decoded[0])
	assert.Equal(t, NewNumber(2), decoded[1])
	assert.True(t, decoded[2].IsMissing())
	assert.Equal(t, NewString("true"), decoded[3])
}

func TestFromInterfaceRejectsObjects(t *testing.T) {
	_, err := FromInterface(map[string]interface{}{"a": 1})
	assert.Error(t, err)
}
