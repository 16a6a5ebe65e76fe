package rtc

import (
	"testing"
	"time"

	"PPHub/tools/errs"
	"PPHub/tools/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintWithoutCredentials(t *testing.T) {
	token, appID, err := NewJWTMinter("", "").MintCallToken("room", 0, RolePublisher, time.Hour)
	assert.ErrorIs(t, err, errs.ErrProviderUnavailable)
	assert.Empty(t, token)
	assert.Empty(t, appID)
}

func TestMintSignsChannelClaims(t *testing.T) {
	m := NewJWTMinter("app-1", "cert-secret")
	token, appID, err := m.MintCallToken("room-9", 0, "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "app-1", appID)

	sub, err := security.Verify(security.Options{Secret: []byte("cert-secret"), Alg: "HS256"}, token)
	require.NoError(t, err)
	assert.Equal(t, "0", sub)
}

func TestMintRejectsEmptyChannel(t *testing.T) {
	_, _, err := NewJWTMinter("app", "cert").MintCallToken("", 1, RolePublisher, time.Hour)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
