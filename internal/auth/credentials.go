package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// User is the public identity of a login account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// CredentialStore verifies logins and resolves account names.
type CredentialStore interface {
	Authenticate(username, password, role string) (User, bool)
	Username(userID string) (string, bool)
}

type account struct {
	User
	hash []byte
}

// StaticCredentials is a fixed account list loaded from configuration.
// Passwords are kept only as bcrypt hashes.
type StaticCredentials struct {
	accounts []account
}

var _ CredentialStore = (*StaticCredentials)(nil)

// ParseCredentials reads "id:username:password:role" entries separated by commas.
func ParseCredentials(list string) (*StaticCredentials, error) {
	return parseCredentials(list, bcrypt.DefaultCost)
}

func parseCredentials(list string, cost int) (*StaticCredentials, error) {
	sc := &StaticCredentials{}
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 || parts[0] == "" || parts[1] == "" || parts[3] == "" {
			return nil, fmt.Errorf("invalid credential entry %q", entry)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(parts[2]), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", parts[1], err)
		}
		sc.accounts = append(sc.accounts, account{
			User: User{ID: parts[0], Username: parts[1], Role: parts[3]},
			hash: hash,
		})
	}
	if len(sc.accounts) == 0 {
		return nil, fmt.Errorf("no credentials configured")
	}
	return sc, nil
}

// Authenticate returns the account matching all three fields.
func (s *StaticCredentials) Authenticate(username, password, role string) (User, bool) {
	for _, a := range s.accounts {
		if a.Username != username || a.Role != role {
			continue
		}
		if bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil {
			return a.User, true
		}
	}
	return User{}, false
}

// Username resolves an account id to its username.
func (s *StaticCredentials) Username(userID string) (string, bool) {
	for _, a := range s.accounts {
		if a.ID == userID {
			return a.Username, true
		}
	}
	return "", false
}
