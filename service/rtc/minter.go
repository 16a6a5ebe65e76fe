// Package rtc mints short-lived join tokens for the external audio/video
// transport. Tokens are HS256 JWTs signed with the app certificate.
package rtc

import (
	"strconv"
	"time"

	"PPHub/tools/errs"
	"PPHub/tools/security"
)

const (
	RolePublisher  = "publisher"
	RoleSubscriber = "subscriber"
)

// Minter issues a call token for channel. uid 0 lets the provider assign one.
type Minter interface {
	MintCallToken(channel string, uid int64, role string, ttl time.Duration) (token, appID string, err error)
}

type JWTMinter struct {
	appID       string
	certificate string
}

func NewJWTMinter(appID, certificate string) *JWTMinter {
	return &JWTMinter{appID: appID, certificate: certificate}
}

// MintCallToken returns errs.ErrProviderUnavailable when credentials are absent.
func (m *JWTMinter) MintCallToken(channel string, uid int64, role string, ttl time.Duration) (string, string, error) {
	if m.appID == "" || m.certificate == "" {
		return "", "", errs.ErrProviderUnavailable.WrapMsg("rtc credentials not configured")
	}
	if channel == "" {
		return "", "", errs.ErrValidation.WrapMsg("empty channel")
	}
	if role == "" {
		role = RolePublisher
	}
	opts := security.Options{Secret: []byte(m.certificate), Alg: "HS256", TTL: ttl}
	token, _, err := security.Generate(opts, strconv.FormatInt(uid, 10), map[string]any{
		"app_id":  m.appID,
		"channel": channel,
		"role":    role,
	})
	if err != nil {
		return "", "", errs.ErrProviderUnavailable.WrapMsg(err.Error(), "channel", channel)
	}
	return token, m.appID, nil
}
