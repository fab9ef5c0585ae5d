package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/api"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/testutil"
)

func TestRunLogin_storesCredentials(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)

	out, err := execute(t,
		"--server", srv.URL,
		"login", "--email", "user@example.com", "--password", "hunter2")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "Credentials stored") {
		t.Errorf("output = %q, want stored confirmation", out)
	}
	if srv.LoginCSRF != testutil.CSRFToken {
		t.Errorf("csrf token = %q, want %q", srv.LoginCSRF, testutil.CSRFToken)
	}

	stored, err := keyring.Get("grabcad-interface", "email")
	if err != nil || stored != "user@example.com" {
		t.Errorf("stored email = %q, %v", stored, err)
	}
}

func TestRunLogin_noSaveSkipsKeyring(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)

	out, err := execute(t,
		"--server", srv.URL,
		"login", "--email", "user@example.com", "--password", "hunter2", "--no-save-creds")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "not stored") {
		t.Errorf("output = %q, want not-stored notice", out)
	}
	if _, err := keyring.Get("grabcad-interface", "email"); !errors.Is(err, keyring.ErrNotFound) {
		t.Errorf("keyring get = %v, want ErrNotFound", err)
	}
}

func TestRunLogin_rejectedCredentials(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	srv.RejectLogin()

	_, err := execute(t,
		"--server", srv.URL,
		"login", "--email", "user@example.com", "--password", "wrong")
	var authErr *api.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if _, err := keyring.Get("grabcad-interface", "email"); !errors.Is(err, keyring.ErrNotFound) {
		t.Error("rejected credentials must not be stored")
	}
}

func TestRunLogout_clearsCredentials(t *testing.T) {
	keyring.MockInit()
	if err := keyring.Set("grabcad-interface", "email", "user@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := keyring.Set("grabcad-interface", "password", "hunter2"); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "logout")
	if err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if !strings.Contains(out, "Credentials removed.") {
		t.Errorf("output = %q", out)
	}
	if _, err := keyring.Get("grabcad-interface", "email"); !errors.Is(err, keyring.ErrNotFound) {
		t.Error("email should have been removed")
	}
}

func TestRunLogout_idempotent(t *testing.T) {
	keyring.MockInit()
	if _, err := execute(t, "logout"); err != nil {
		t.Fatalf("logout on empty keyring failed: %v", err)
	}
}
