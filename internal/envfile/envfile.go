// Package envfile manages the generated environment file that configures a
// deployment. The file doubles as the installation marker: its presence at the
// canonical path is what distinguishes an existing installation from a fresh
// host.
package envfile

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Keys written to the environment file.
const (
	KeyDomain       = "HAWKRA_DOMAIN"
	KeyDBPassword   = "HAWKRA_DB_PASSWORD"
	KeyAppURL       = "HAWKRA_APP_URL"
	KeyAutoTLS      = "HAWKRA_AUTO_TLS"
	KeySMTPHost     = "HAWKRA_SMTP_HOST"
	KeySMTPPort     = "HAWKRA_SMTP_PORT"
	KeySMTPUser     = "HAWKRA_SMTP_USER"
	KeySMTPPassword = "HAWKRA_SMTP_PASSWORD"
	KeyAIAPIKey     = "HAWKRA_AI_API_KEY"
)

// Env is the flat key-value configuration persisted next to the deployment.
type Env struct {
	Domain       string
	DBPassword   string
	AppURL       string
	AutoTLS      bool
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	AIAPIKey     string
}

// NewCredential generates a random credential for the database user.
func NewCredential() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate credential: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Build assembles the environment for the given domain. When prev is non-nil
// (a reconfiguration), the database credential and any optional settings the
// operator added are carried over unchanged. The credential protects the
// encrypted data volume; regenerating it would orphan that volume.
func Build(domain string, prev *Env) (*Env, error) {
	e := &Env{
		Domain: domain,
		AppURL: "https://" + domain,
	}

	if prev != nil {
		e.DBPassword = prev.DBPassword
		e.AutoTLS = prev.AutoTLS
		e.SMTPHost = prev.SMTPHost
		e.SMTPPort = prev.SMTPPort
		e.SMTPUser = prev.SMTPUser
		e.SMTPPassword = prev.SMTPPassword
		e.AIAPIKey = prev.AIAPIKey
	}

	if e.DBPassword == "" {
		cred, err := NewCredential()
		if err != nil {
			return nil, err
		}
		e.DBPassword = cred
	}

	return e, nil
}

// Read loads an environment file from disk.
func Read(path string) (*Env, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	return &Env{
		Domain:       values[KeyDomain],
		DBPassword:   values[KeyDBPassword],
		AppURL:       values[KeyAppURL],
		AutoTLS:      values[KeyAutoTLS] == "true",
		SMTPHost:     values[KeySMTPHost],
		SMTPPort:     values[KeySMTPPort],
		SMTPUser:     values[KeySMTPUser],
		SMTPPassword: values[KeySMTPPassword],
		AIAPIKey:     values[KeyAIAPIKey],
	}, nil
}

// Write persists the environment file with owner-only permissions. The file
// holds the database credential, so it must never be group or world readable.
func Write(path string, e *Env) error {
	values := map[string]string{
		KeyDomain:     e.Domain,
		KeyDBPassword: e.DBPassword,
		KeyAppURL:     e.AppURL,
		KeyAutoTLS:    fmt.Sprintf("%t", e.AutoTLS),
	}

	// Optional settings are only written when set, keeping the file minimal.
	optional := map[string]string{
		KeySMTPHost:     e.SMTPHost,
		KeySMTPPort:     e.SMTPPort,
		KeySMTPUser:     e.SMTPUser,
		KeySMTPPassword: e.SMTPPassword,
		KeyAIAPIKey:     e.AIAPIKey,
	}
	for k, v := range optional {
		if v != "" {
			values[k] = v
		}
	}

	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write environment file: %w", err)
	}

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict environment file permissions: %w", err)
	}

	return nil
}
