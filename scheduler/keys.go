package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TaskTypeNoteExpiration is the task type handled by the expiration executor.
	TaskTypeNoteExpiration = "note:expiration"

	// QueueNoteExpiration is the dedicated queue for expiration jobs, kept
	// separate so inspection and deletion are scoped to this workload.
	QueueNoteExpiration = "note-expiration"

	noteIDPayloadKey = "note_id"
)

// JobID derives the deterministic job identifier for a note. At most one
// live job may exist under this identifier at any time.
func JobID(noteID string) string {
	return "note-expiration-" + noteID
}

// ImmediateJobID derives the identifier used when a note's expiry is
// already in the past. It lives in its own namespace so a fire-now job
// never collides with a previously scheduled job for the same note.
func ImmediateJobID(noteID string) string {
	return JobID(noteID) + "-immediate"
}

// NewExpirationTask builds the task carrying a note identifier as its
// only payload.
func NewExpirationTask(noteID string) (*asynq.Task, error) {
	payload, err := json.Marshal(map[string]string{noteIDPayloadKey: noteID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNoteExpiration, payload), nil
}

// noteIDFromPayload extracts the note identifier from a task payload.
// The second return is false when the payload has no identifier at all.
func noteIDFromPayload(payload []byte) (string, bool) {
	var data map[string]string
	if err := json.Unmarshal(payload, &data); err != nil {
		return "", false
	}
	noteID, ok := data[noteIDPayloadKey]
	if !ok || noteID == "" {
		return "", false
	}
	return noteID, true
}
