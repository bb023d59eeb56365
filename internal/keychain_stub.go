//go:build !darwin

package internal

// KeychainStore stub for non-macOS
type KeychainStore struct {
	Service string
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{Service: AppName}
}

func (s *KeychainStore) Name() string { return "keychain:" + s.Service }

func (s *KeychainStore) Store(string, []byte) error {
	return ErrKeychainUnsupported
}
