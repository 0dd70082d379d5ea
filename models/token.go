package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the access token payload: the user's public attributes
// plus the registered claims (exp, iat, iss, sub).
type TokenClaims struct {
	UserID    int64        `json:"id"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	UserType  UserType     `json:"user_type"`
	Category  UserCategory `json:"type"`
	jwt.RegisteredClaims
}
