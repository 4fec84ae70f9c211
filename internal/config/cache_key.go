package config

import "fmt"

// CacheKeyStruct centralizes every Redis key format used by the server, so
// key layouts live in one place instead of scattered Sprintf calls.
type CacheKeyStruct struct{}

// StudentOTPKey returns the key holding a student's pending one-time
// password. The entry carries a TTL, so expiry needs no sweeper.
func (r *CacheKeyStruct) StudentOTPKey(studentID int) string {
	return fmt.Sprintf("otp:student:%d", studentID)
}

// StudentLoginKey returns the key registering a student's active login
// session (JWT ID), used to invalidate stale device sessions.
func (r *CacheKeyStruct) StudentLoginKey(studentID int) string {
	return fmt.Sprintf("login:student:%d", studentID)
}

var CacheKey = &CacheKeyStruct{}
