// Package profile persists the browser profile id and the live session id
// between CLI invocations.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProfileFile  = ".profile"
	SessionFile  = ".session"
	ProfileIDEnv = "PROFILE_ID"
)

// LoadProfileID prefers the environment and falls back to the profile file.
// An empty id with a nil error means no profile has been created yet.
func LoadProfileID(path string) (string, error) {
	if id := strings.TrimSpace(os.Getenv(ProfileIDEnv)); id != "" {
		return id, nil
	}
	vals, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(vals[ProfileIDEnv]), nil
}

// SaveProfileID writes a PROFILE_ID=<id> line to path.
func SaveProfileID(path, id string) error {
	if err := godotenv.Write(map[string]string{ProfileIDEnv: id}, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

type sessionFile struct {
	SessionID string `json:"session_id"`
}

func SaveSession(path, id string) error {
	b, err := json.Marshal(sessionFile{SessionID: id})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadSession returns "" and no error when no session file exists.
func LoadSession(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	var s sessionFile
	if err := json.Unmarshal(b, &s); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return strings.TrimSpace(s.SessionID), nil
}

func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
