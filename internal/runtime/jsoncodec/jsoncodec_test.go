package jsoncodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMarshalMatchesStdSemantics(t *testing.T) {
	out, err := Marshal(sample{Name: "a", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a","count":2}`, string(out))
}

func TestUnmarshal(t *testing.T) {
	var v sample
	require.NoError(t, Unmarshal([]byte(`{"name":"b","count":3}`), &v))
	assert.Equal(t, sample{Name: "b", Count: 3}, v)

	assert.Error(t, Unmarshal([]byte(`{`), &v))
}

func TestEncodeDecode(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Encode(buf, sample{Name: "c", Count: 4}))

	var v sample
	require.NoError(t, Decode(buf, &v))
	assert.Equal(t, sample{Name: "c", Count: 4}, v)
}
