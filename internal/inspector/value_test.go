package inspector

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuePredicates(t *testing.T) {
	num := &RemoteValue{Type: TypeNumber, Description: "2"}
	assert.True(t, num.Is(TypeNumber))
	assert.False(t, num.Is(TypeObject))
	assert.False(t, num.IsSubtype(SubtypeArray))

	arr := &RemoteValue{Type: TypeObject, Subtype: SubtypeArray, ObjectID: "obj-1", Size: 3}
	assert.True(t, arr.Is(TypeObject))
	assert.True(t, arr.IsSubtype(SubtypeArray))

	var nilValue *RemoteValue
	assert.False(t, nilValue.Is(TypeObject))
	assert.False(t, nilValue.IsSubtype(SubtypeNull))
}

func TestIsPromise(t *testing.T) {
	p := &RemoteValue{Type: TypeObject, ClassName: PromiseClassName, ObjectID: "p-1"}
	assert.True(t, p.IsPromise())

	// A function named Promise is not a deferred value.
	f := &RemoteValue{Type: TypeFunction, ClassName: PromiseClassName, ObjectID: "f-1"}
	assert.False(t, f.IsPromise())

	plain := &RemoteValue{Type: TypeObject, ClassName: "Object", ObjectID: "o-1"}
	assert.False(t, plain.IsPromise())
}

func TestValueDecoding(t *testing.T) {
	raw := `{
		"type": "object",
		"subtype": "array",
		"className": "Array",
		"description": "Array(2)",
		"objectId": "arr-9",
		"size": 2,
		"preview": {
			"type": "object",
			"subtype": "array",
			"overflow": false,
			"properties": [
				{"name": "0", "type": "number", "value": "1"},
				{"name": "1", "type": "string", "value": "two"}
			]
		}
	}`
	var v RemoteValue
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	assert.True(t, v.IsSubtype(SubtypeArray))
	assert.Equal(t, "arr-9", v.ObjectID)
	require.NotNil(t, v.Preview)
	require.Len(t, v.Preview.Properties, 2)
	assert.Equal(t, "two", v.Preview.Properties[1].Value)

	// Null carries a literal null value and no handle.
	var null RemoteValue
	require.NoError(t, json.Unmarshal([]byte(`{"type":"object","subtype":"null","value":null}`), &null))
	assert.True(t, null.IsSubtype(SubtypeNull))
	assert.Empty(t, null.ObjectID)
}
