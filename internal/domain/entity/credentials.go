package entity

import "time"

// Token is an issued credential value with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Credentials is the pair handed to a client on sign-in or refresh.
// The access token is never persisted; the refresh token is stored on the user.
type Credentials struct {
	Access  Token
	Refresh Token
}
