package scheduler

import (
	"testing"
)

func TestJobIDDerivation(t *testing.T) {
	noteID := "2f9a1f3c-6f65-4d0a-9f7e-0a3e6f2b9c11"

	if got := JobID(noteID); got != "note-expiration-"+noteID {
		t.Errorf("JobID = %q, want deterministic note-expiration prefix", got)
	}

	// The immediate namespace must never collide with the scheduled one
	if JobID(noteID) == ImmediateJobID(noteID) {
		t.Error("immediate job id must differ from scheduled job id")
	}

	// Same input, same identifier
	if JobID(noteID) != JobID(noteID) {
		t.Error("JobID must be deterministic")
	}
}

func TestExpirationTaskPayload(t *testing.T) {
	noteID := "2f9a1f3c-6f65-4d0a-9f7e-0a3e6f2b9c11"

	task, err := NewExpirationTask(noteID)
	if err != nil {
		t.Fatalf("NewExpirationTask failed: %v", err)
	}

	if task.Type() != TaskTypeNoteExpiration {
		t.Errorf("task type = %q, want %q", task.Type(), TaskTypeNoteExpiration)
	}

	got, ok := noteIDFromPayload(task.Payload())
	if !ok {
		t.Fatal("noteIDFromPayload reported missing id")
	}
	if got != noteID {
		t.Errorf("payload note id = %q, want %q", got, noteID)
	}
}

func TestNoteIDFromPayloadMissing(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
	}{
		{"empty object", []byte(`{}`)},
		{"empty id", []byte(`{"note_id":""}`)},
		{"not json", []byte(`garbage`)},
		{"wrong key", []byte(`{"id":"abc"}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := noteIDFromPayload(tc.payload); ok {
				t.Errorf("noteIDFromPayload(%q) reported a note id", tc.payload)
			}
		})
	}
}
