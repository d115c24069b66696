package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProfileRoundTrip(t *testing.T) {
	t.Setenv(ProfileIDEnv, "")
	path := filepath.Join(t.TempDir(), ProfileFile)

	id, err := LoadProfileID(path)
	if err != nil || id != "" {
		t.Fatalf("LoadProfileID(missing) = %q, %v", id, err)
	}
	if err := SaveProfileID(path, "prof-123"); err != nil {
		t.Fatalf("SaveProfileID: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "PROFILE_ID=") {
		t.Fatalf("file = %q", b)
	}
	id, err = LoadProfileID(path)
	if err != nil || id != "prof-123" {
		t.Fatalf("LoadProfileID = %q, %v", id, err)
	}
}

func TestProfileEnvWins(t *testing.T) {
	t.Setenv(ProfileIDEnv, "from-env")
	path := filepath.Join(t.TempDir(), ProfileFile)
	_ = SaveProfileID(path, "from-file")
	if id, _ := LoadProfileID(path); id != "from-env" {
		t.Fatalf("LoadProfileID = %q, want from-env", id)
	}
}

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SessionFile)
	if id, err := LoadSession(path); err != nil || id != "" {
		t.Fatalf("LoadSession(missing) = %q, %v", id, err)
	}
	if err := SaveSession(path, "sess-9"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != `{"session_id":"sess-9"}` {
		t.Fatalf("file = %s", b)
	}
	if id, err := LoadSession(path); err != nil || id != "sess-9" {
		t.Fatalf("LoadSession = %q, %v", id, err)
	}
	if err := RemoveSession(path); err != nil {
		t.Fatalf("RemoveSession: %v", err)
	}
	if err := RemoveSession(path); err != nil {
		t.Fatalf("RemoveSession twice: %v", err)
	}
}
