package livestore

import (
	"encoding/base64"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string            `json:"name"`
	Count   int               `json:"count"`
	Ratio   float64           `json:"ratio"`
	Tags    []string          `json:"tags"`
	Labels  map[string]string `json:"labels"`
	Enabled bool              `json:"enabled"`
	Nested  *sample           `json:"nested,omitempty"`
}

func roundTrip[V any](t *testing.T, c Codec, v V) V {
	t.Helper()

	data, err := c.Marshal(v)
	require.NoError(t, err)

	stored := encodeString(c, data)
	raw, err := decodeString(c, stored)
	require.NoError(t, err)

	var out V
	require.NoError(t, c.Unmarshal(raw, &out))
	return out
}

func TestCodec_RoundTrip(t *testing.T) {
	value := sample{
		Name:    "posts",
		Count:   3,
		Ratio:   0.5,
		Tags:    []string{"a", "b"},
		Labels:  map[string]string{"k": "v"},
		Enabled: true,
		Nested:  &sample{Name: "inner", Count: -7},
	}

	for _, c := range []Codec{JSONCodec{}, MsgpackCodec{}} {
		assert.Equal(t, value, roundTrip(t, c, value), "codec %T", c)
		assert.Equal(t, []int{1, 2}, roundTrip(t, c, []int{1, 2}), "codec %T", c)
		assert.Equal(t, "héllo", roundTrip(t, c, "héllo"), "codec %T", c)
	}
}

func TestCodec_PersistedFormIsText(t *testing.T) {
	data, err := MsgpackCodec{}.Marshal(sample{Name: "x", Count: 200})
	require.NoError(t, err)

	stored := encodeString(MsgpackCodec{}, data)
	assert.True(t, utf8.ValidString(stored))
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), stored)

	jsonData, err := JSONCodec{}.Marshal([]int{1})
	require.NoError(t, err)
	assert.Equal(t, "[1]", encodeString(JSONCodec{}, jsonData))
}

func TestCodec_InvalidBase64(t *testing.T) {
	_, err := decodeString(MsgpackCodec{}, "%%%")
	assert.Error(t, err)
}

func TestCodec_UnsupportedValue(t *testing.T) {
	for _, c := range []Codec{JSONCodec{}, MsgpackCodec{}} {
		_, err := c.Marshal(make(chan int))
		assert.Error(t, err, "codec %T", c)
	}
}

func TestJSONCodec_KeepsLargeIntegersExact(t *testing.T) {
	const big = `{"id":9007199254740993,"ids":[18446744073709551615]}`

	var value any
	require.NoError(t, JSONCodec{}.Unmarshal([]byte(big), &value))

	data, err := JSONCodec{}.Marshal(value)
	require.NoError(t, err)
	assert.JSONEq(t, big, string(data))
	assert.Contains(t, string(data), "9007199254740993")
}

func TestJSONCodec_RejectsTrailingData(t *testing.T) {
	var value any
	assert.Error(t, JSONCodec{}.Unmarshal([]byte(`[1] [2]`), &value))
	assert.NoError(t, JSONCodec{}.Unmarshal([]byte("[1]\n"), &value))
}
