package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"main/middleware"
	"main/model"
	"main/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// NoteStore is the slice of note storage the executor needs.
type NoteStore interface {
	GetNoteByID(ctx context.Context, noteID string) (*model.Note, error)
	DeleteNoteByID(ctx context.Context, noteID string) error
}

// HistoryStore removes a deleted note's edit history.
type HistoryStore interface {
	DeleteByNoteID(ctx context.Context, noteID string) error
}

// NoteExpirationExecutor is the job body invoked by the job store when an
// expiration job fires. It must be idempotent: a re-run after a crash or a
// race with an explicit delete finds the note gone and succeeds.
type NoteExpirationExecutor struct {
	notes   NoteStore
	history HistoryStore
}

func NewNoteExpirationExecutor(notes NoteStore, history HistoryStore) *NoteExpirationExecutor {
	return &NoteExpirationExecutor{
		notes:   notes,
		history: history,
	}
}

// ProcessTask implements asynq.Handler. Only storage failures are returned
// as retryable errors; a corrupt payload is dropped and an already-deleted
// note is treated as success.
func (e *NoteExpirationExecutor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	noteID, ok := noteIDFromPayload(task.Payload())
	if !ok {
		log.Printf("[NoteExpirationJob] no note id found in job payload")
		middleware.ExpirationJobsTotal.WithLabelValues("invalid_payload").Inc()
		return fmt.Errorf("no note id in job payload: %w", asynq.SkipRetry)
	}

	if _, err := uuid.Parse(noteID); err != nil {
		log.Printf("[NoteExpirationJob] invalid note id format: %s", noteID)
		middleware.ExpirationJobsTotal.WithLabelValues("invalid_payload").Inc()
		return fmt.Errorf("invalid note id %q: %w", noteID, asynq.SkipRetry)
	}

	log.Printf("[NoteExpirationJob] processing expiration for note %s", noteID)

	note, err := e.notes.GetNoteByID(ctx, noteID)
	if errors.Is(err, repository.ErrNoteNotFound) {
		// Already deleted by the user, a cancel race, or a prior run.
		log.Printf("[NoteExpirationJob] note %s not found or already deleted", noteID)
		middleware.ExpirationJobsTotal.WithLabelValues("already_gone").Inc()
		return nil
	}
	if err != nil {
		// Storage failure: rethrow so the job store retries.
		middleware.ExpirationJobsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load note %s: %w", noteID, err)
	}

	if err := e.history.DeleteByNoteID(ctx, note.ID); err != nil {
		middleware.ExpirationJobsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to delete history of note %s: %w", noteID, err)
	}

	if err := e.notes.DeleteNoteByID(ctx, note.ID); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			log.Printf("[NoteExpirationJob] note %s deleted concurrently", noteID)
			middleware.ExpirationJobsTotal.WithLabelValues("already_gone").Inc()
			return nil
		}
		middleware.ExpirationJobsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to delete note %s: %w", noteID, err)
	}

	log.Printf("[NoteExpirationJob] deleted expired note %s", noteID)
	middleware.ExpirationJobsTotal.WithLabelValues("deleted").Inc()
	return nil
}
