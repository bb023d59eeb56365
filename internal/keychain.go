//go:build darwin

package internal

import (
	"fmt"

	"github.com/keybase/go-keychain"
)

// KeychainStore keeps key material as a generic password item in the macOS
// login keychain, one item per key pair name.
type KeychainStore struct {
	Service string
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{Service: AppName}
}

func (s *KeychainStore) Name() string { return "keychain:" + s.Service }

// Store replaces any existing item for keyName.
func (s *KeychainStore) Store(keyName string, material []byte) error {
	if len(material) == 0 {
		return ErrNoKeyMaterial
	}

	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(s.Service)
	item.SetAccount(keyName)
	item.SetLabel("EC2 key pair " + keyName)
	item.SetData(material)
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)

	// Remove existing if any
	_ = keychain.DeleteItem(item)

	if err := keychain.AddItem(item); err != nil {
		return fmt.Errorf("failed to save to keychain: %w", err)
	}
	return nil
}
