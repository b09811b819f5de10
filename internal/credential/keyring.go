// Package credential stores host passwords in the system keyring so they
// never land in the config file.
package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "mailterm"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailterm/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailterm-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// hostKey namespaces a host configuration's password entry by its ID.
func hostKey(hostID string) string {
	return "host-" + hostID
}

// HostPassword retrieves the stored password for the host configuration.
func HostPassword(hostID string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(hostKey(hostID))
	if err != nil {
		return "", fmt.Errorf("getting password for host %q: %w", hostID, err)
	}

	return string(item.Data), nil
}

// SetHostPassword stores the password for the host configuration.
func SetHostPassword(hostID, password string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  hostKey(hostID),
		Data: []byte(password),
	})
	if err != nil {
		return fmt.Errorf("setting password for host %q: %w", hostID, err)
	}

	return nil
}

// DeleteHostPassword removes the stored password for the host configuration.
func DeleteHostPassword(hostID string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(hostKey(hostID))
	if err != nil {
		return fmt.Errorf("deleting password for host %q: %w", hostID, err)
	}

	return nil
}
