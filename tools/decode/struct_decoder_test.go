package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uidPayload struct {
	ChannelName string   `json:"channelName"`
	UID         *int64   `json:"agoraUid"`
	Target      string   `json:"targetUserId"`
	Tags        []string `json:"tags"`
}

func TestDecodeJSONAcceptsNumericStrings(t *testing.T) {
	out, err := DecodeJSON[uidPayload]([]byte(`{"channelName":"c1","agoraUid":"1234","targetUserId":"bob"}`))
	require.NoError(t, err)
	require.NotNil(t, out.UID)
	assert.Equal(t, int64(1234), *out.UID)
	assert.Equal(t, "bob", out.Target)
}

func TestDecodeJSONNumbers(t *testing.T) {
	out, err := DecodeJSON[uidPayload]([]byte(`{"agoraUid":99,"tags":["a","b"]}`))
	require.NoError(t, err)
	require.NotNil(t, out.UID)
	assert.Equal(t, int64(99), *out.UID)
	assert.Equal(t, []string{"a", "b"}, out.Tags)
}

func TestDecodeJSONTruncatesFractionalInt(t *testing.T) {
	out, err := DecodeJSON[uidPayload]([]byte(`{"agoraUid":1.5}`))
	require.NoError(t, err)
	require.NotNil(t, out.UID)
	assert.Equal(t, int64(1), *out.UID)

	out, err = DecodeJSON[uidPayload]([]byte(`{"agoraUid":-7.9}`))
	require.NoError(t, err)
	assert.Equal(t, int64(-7), *out.UID)
}

func TestDecodeJSONEmpty(t *testing.T) {
	out, err := DecodeJSON[uidPayload](nil)
	require.NoError(t, err)
	assert.Nil(t, out.UID)

	_, err = DecodeJSON[uidPayload]([]byte(`not json`))
	assert.Error(t, err)
}
