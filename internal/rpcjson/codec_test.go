package rpcjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

type sampleMessage struct {
	Name  string
	Count int
}

func TestCodecRoundTrip(t *testing.T) {
	c := codec{}
	data, err := c.Marshal(&sampleMessage{Name: "doc-1", Count: 3})
	require.NoError(t, err)

	var out sampleMessage
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, "doc-1", out.Name)
	assert.Equal(t, 3, out.Count)
}

func TestCodecRegisteredByName(t *testing.T) {
	assert.NotNil(t, encoding.GetCodec(Name))
}
