// Package creds resolves GrabCAD account credentials from command-line flags
// and the system keyring.
package creds

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service     = "grabcad-interface"
	emailKey    = "email"
	passwordKey = "password"
)

// ErrNotAuthenticated is returned when no usable credentials are available.
var ErrNotAuthenticated = errors.New(
	"not authenticated: run `gcw login --email <email> --password <password>` first, " +
		"or pass --email and --password together with --no-save-creds")

// Manager resolves credentials for a single command invocation.
// Email and Password come from flags and may be empty; NoSave disables any
// keyring access.
type Manager struct {
	Email    string
	Password string
	NoSave   bool
}

// Resolve returns the effective credentials. Flag values win and are stored
// in the keyring unless NoSave is set; with no flag values the keyring is
// consulted. Missing credentials yield ErrNotAuthenticated.
func (m Manager) Resolve() (email, password string, err error) {
	if m.Email != "" && m.Password != "" {
		if !m.NoSave {
			if err := Store(m.Email, m.Password); err != nil {
				return "", "", err
			}
		}
		return m.Email, m.Password, nil
	}

	if m.NoSave {
		return "", "", ErrNotAuthenticated
	}

	email, password, err = load()
	if err != nil {
		return "", "", err
	}
	if email == "" || password == "" {
		return "", "", ErrNotAuthenticated
	}
	return email, password, nil
}

// Store saves credentials to the system keyring.
func Store(email, password string) error {
	if err := keyring.Set(service, emailKey, email); err != nil {
		return fmt.Errorf("storing email in keyring: %w", err)
	}
	if err := keyring.Set(service, passwordKey, password); err != nil {
		return fmt.Errorf("storing password in keyring: %w", err)
	}
	return nil
}

// Clear removes stored credentials. A missing entry is not an error.
func Clear() error {
	for _, key := range []string{emailKey, passwordKey} {
		if err := keyring.Delete(service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("clearing keyring: %w", err)
		}
	}
	return nil
}

// Available probes whether a keyring backend is usable on this system.
func Available() error {
	const probe = "probe"
	if err := keyring.Set(service, probe, "ok"); err != nil {
		return err
	}
	return keyring.Delete(service, probe)
}

func load() (email, password string, err error) {
	email, err = keyring.Get(service, emailKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", "", ErrNotAuthenticated
		}
		return "", "", fmt.Errorf("reading email from keyring: %w", err)
	}
	password, err = keyring.Get(service, passwordKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", "", ErrNotAuthenticated
		}
		return "", "", fmt.Errorf("reading password from keyring: %w", err)
	}
	return email, password, nil
}
