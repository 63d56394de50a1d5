package hsgate

import (
	"fmt"

	"github.com/hsgate/hsgate/password"
)

// dummyPassword is hashed once per store so lookups of unknown usernames
// still pay for a full argon2id verification.
const dummyPassword = "hsgate-dummy-password"

type storedCredential struct {
	hash string
	role string
}

// credentialStore is the fixed username → credential set. Plaintext
// passwords are hashed at construction and never retained.
type credentialStore struct {
	hasher    *password.Hasher
	entries   map[string]storedCredential
	dummyHash string
}

func newCredentialStore(hasher *password.Hasher, creds map[string]Credential) (*credentialStore, error) {
	store := &credentialStore{
		hasher:  hasher,
		entries: make(map[string]storedCredential, len(creds)),
	}

	for username, cred := range creds {
		hash, err := hasher.Hash(cred.Password)
		if err != nil {
			return nil, fmt.Errorf("hash credential %q: %w", username, err)
		}
		store.entries[username] = storedCredential{hash: hash, role: cred.Role}
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("hash dummy credential: %w", err)
	}
	store.dummyHash = dummy

	return store, nil
}

// verify returns the role bound to username when plain matches. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *credentialStore) verify(username, plain string) (string, bool, error) {
	entry, found := s.entries[username]
	hash := entry.hash
	if !found {
		hash = s.dummyHash
	}

	ok, err := s.hasher.Verify(plain, hash)
	if err != nil {
		return "", false, err
	}
	if !found || !ok {
		return "", false, nil
	}
	return entry.role, true, nil
}

func (s *credentialStore) size() int {
	return len(s.entries)
}
