package auth

import (
	"fmt"

	"github.com/nerrad567/topiclab/internal/infrastructure/config"
)

type account struct {
	user User
	hash string
}

// Directory holds the accounts configured under security.users.
type Directory struct {
	accounts map[string]account

	// dummyHash is verified for unknown usernames so both paths cost
	// one Argon2id computation.
	dummyHash string
}

// NewDirectory validates the configured accounts.
func NewDirectory(users []config.UserConfig) (*Directory, error) {
	d := &Directory{accounts: make(map[string]account, len(users))}
	for _, u := range users {
		role := Role(u.Role)
		if !IsValidRole(role) {
			return nil, fmt.Errorf("%w: user %q has role %q", ErrInvalidRole, u.Username, u.Role)
		}
		if _, _, _, err := decodePHC(u.PasswordHash); err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Username, err)
		}
		if _, dup := d.accounts[u.Username]; dup {
			return nil, fmt.Errorf("duplicate user %q", u.Username)
		}
		d.accounts[u.Username] = account{user: User{Username: u.Username, Role: role}, hash: u.PasswordHash}
	}
	if len(users) > 0 {
		d.dummyHash = users[0].PasswordHash
	}
	return d, nil
}

// Len returns the number of accounts.
func (d *Directory) Len() int {
	return len(d.accounts)
}

// Authenticate checks a username and password.
func (d *Directory) Authenticate(username, password string) (User, error) {
	acct, ok := d.accounts[username]
	if !ok {
		if d.dummyHash != "" {
			VerifyPassword(password, d.dummyHash) //nolint:errcheck // timing only
		}
		return User{}, ErrInvalidCredentials
	}

	match, err := VerifyPassword(password, acct.hash)
	if err != nil {
		return User{}, fmt.Errorf("verifying password: %w", err)
	}
	if !match {
		return User{}, ErrInvalidCredentials
	}
	return acct.user, nil
}
