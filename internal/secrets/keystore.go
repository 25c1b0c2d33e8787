// Package secrets stores provider credentials in the OS keyring, with an
// encrypted file vault as fallback for headless hosts.
package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "modelrelay"
	vaultFile      = "vault.enc"
)

// KeyStore resolves and stores named secrets.
type KeyStore struct {
	vaultKey  []byte // nil disables the file vault
	vaultPath string
}

// NewKeyStore builds a key store rooted under ~/.modelrelay. vaultKey may be
// nil when only the OS keyring should be used.
func NewKeyStore(vaultKey []byte) (*KeyStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".modelrelay")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &KeyStore{vaultKey: vaultKey, vaultPath: filepath.Join(dir, vaultFile)}, nil
}

// Get looks a secret up, keyring first, vault second.
func (ks *KeyStore) Get(name string) (string, error) {
	if v, err := keyring.Get(keyringService, name); err == nil {
		return v, nil
	}
	vault, err := ks.loadVault()
	if err != nil {
		return "", err
	}
	v, ok := vault[name]
	if !ok {
		return "", fmt.Errorf("secret not found: %s", name)
	}
	return v, nil
}

// Set stores a secret, preferring the keyring.
func (ks *KeyStore) Set(name, value string) error {
	if err := keyring.Set(keyringService, name, value); err == nil {
		return nil
	}
	vault, err := ks.loadVault()
	if err != nil {
		vault = map[string]string{}
	}
	vault[name] = value
	return ks.saveVault(vault)
}

// Delete removes a secret from both backends.
func (ks *KeyStore) Delete(name string) error {
	_ = keyring.Delete(keyringService, name)
	vault, err := ks.loadVault()
	if err != nil {
		return nil
	}
	delete(vault, name)
	return ks.saveVault(vault)
}

func (ks *KeyStore) loadVault() (map[string]string, error) {
	data, err := os.ReadFile(ks.vaultPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if ks.vaultKey == nil {
		return nil, fmt.Errorf("vault present but no vault key configured")
	}
	plaintext, err := open(string(data), ks.vaultKey)
	if err != nil {
		return nil, fmt.Errorf("decrypt vault: %w", err)
	}
	var vault map[string]string
	if err := json.Unmarshal(plaintext, &vault); err != nil {
		return nil, fmt.Errorf("parse vault: %w", err)
	}
	return vault, nil
}

func (ks *KeyStore) saveVault(vault map[string]string) error {
	if ks.vaultKey == nil {
		return fmt.Errorf("no vault key configured")
	}
	data, err := json.Marshal(vault)
	if err != nil {
		return err
	}
	sealed, err := seal(data, ks.vaultKey)
	if err != nil {
		return err
	}
	return os.WriteFile(ks.vaultPath, []byte(sealed), 0600)
}

// MaskKey renders a credential safe for logs.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
