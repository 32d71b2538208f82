package model

import "time"

// User is an account that can own entities and hold one token.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	DateJoined   time.Time
}

// Token is the bearer credential of a user. There is at most one per user.
type Token struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}
