package schema

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEventRowValidate(t *testing.T) {
	valid := EventRow{
		WSID:             "w1",
		GoogleEventID:    "e1",
		GoogleCalendarID: "primary",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	// Cancelled provider events can arrive without an identifier; the
	// resulting empty-id row is valid and keys on (ws_id, "").
	noID := EventRow{WSID: "w1", GoogleCalendarID: "primary"}
	if err := noID.Validate(); err != nil {
		t.Errorf("Validate() with empty event id = %v, want nil", err)
	}

	cases := []struct {
		name string
		row  EventRow
	}{
		{"missing ws_id", EventRow{GoogleEventID: "e1", GoogleCalendarID: "primary"}},
		{"missing calendar id", EventRow{WSID: "w1", GoogleEventID: "e1"}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.row.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestWorkspaceSyncable(t *testing.T) {
	ws := Workspace{WSID: "w1", AccessToken: "at"}
	if !ws.Syncable() {
		t.Error("workspace with access token must be syncable")
	}

	ws.AccessToken = ""
	if ws.Syncable() {
		t.Error("workspace without access token must not be syncable")
	}
}

func TestReadCredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspaces.yaml")
	content := `
workspaces:
  - ws_id: w1
    access_token: at-1
    refresh_token: rt-1
  - ws_id: w2
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	workspaces, err := ReadCredentialsFile(path)
	if err != nil {
		t.Fatalf("ReadCredentialsFile() failed: %v", err)
	}
	if len(workspaces) != 2 {
		t.Fatalf("workspace count = %d, want 2", len(workspaces))
	}
	if workspaces[0].WSID != "w1" || workspaces[0].AccessToken != "at-1" || workspaces[0].RefreshToken != "rt-1" {
		t.Errorf("workspaces[0] = %+v, want full credentials", workspaces[0])
	}
	// A tokenless workspace is accepted; it just is not syncable.
	if workspaces[1].Syncable() {
		t.Error("workspaces[1] must not be syncable without an access token")
	}
}

func TestReadCredentialsFile_RejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspaces.yaml")
	content := `
workspaces:
  - access_token: at-1
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if _, err := ReadCredentialsFile(path); err == nil {
		t.Fatal("ReadCredentialsFile() accepted a workspace without ws_id")
	}
}

func TestReadCredentialsFile_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspaces.yaml")
	if err := os.WriteFile(path, []byte("workspaces: [a: b"), 0600); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if _, err := ReadCredentialsFile(path); err == nil {
		t.Fatal("ReadCredentialsFile() accepted malformed YAML")
	}
}

func TestReadCredentialsFile_Missing(t *testing.T) {
	if _, err := ReadCredentialsFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("ReadCredentialsFile() accepted a nonexistent path")
	}
}
