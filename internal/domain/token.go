package domain

import "time"

// TokenClaims carries the identity the main application minted into an access
// token. This service only validates tokens; it never issues them.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// IsExpired checks if the token is expired
func (tc TokenClaims) IsExpired() bool {
	return time.Now().Unix() > tc.Exp
}
