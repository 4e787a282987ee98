// Package auth provides API authentication and authorisation for Topic Lab.
//
// It implements a 3-tier role model (viewer → operator → admin) with:
//   - Argon2id password hashing for accounts listed in config.yaml
//   - Short-lived HS256 JWT access tokens, validated by signature only
//   - Static role-permission mapping (compile-time, no lookup)
//
// There is no refresh flow; clients log in again when a token expires.
package auth
