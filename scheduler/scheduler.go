package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"main/middleware"
	"main/model"

	"github.com/hibiken/asynq"
)

// JobClient enqueues jobs into the job store. *asynq.Client satisfies it.
type JobClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// JobInspector queries and mutates existing jobs. *asynq.Inspector satisfies it.
type JobInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
	RunTask(queue, id string) error
}

// NoteExpirationScheduler creates, replaces and cancels the deletion job
// attached to a note's expiry timestamp. All calls are synchronous and any
// job store failure is returned to the caller, which must abort the
// enclosing note mutation.
type NoteExpirationScheduler struct {
	client    JobClient
	inspector JobInspector
	now       func() time.Time
}

func NewNoteExpirationScheduler(client JobClient, inspector JobInspector) *NoteExpirationScheduler {
	return &NoteExpirationScheduler{
		client:    client,
		inspector: inspector,
		now:       time.Now,
	}
}

// ScheduleNoteDeletion makes the scheduled state match the note's expiry.
// A nil expiry cancels any pending job. An expiry in the past fires
// immediately. Otherwise an existing job is replaced by delete-then-create,
// so an in-flight execution of the old job is left alone.
func (s *NoteExpirationScheduler) ScheduleNoteDeletion(ctx context.Context, note *model.Note) error {
	if note.ExpiresAt == nil {
		return s.CancelScheduledDeletion(ctx, note.ID)
	}

	expiresAt := *note.ExpiresAt
	if expiresAt.Before(s.now()) {
		log.Printf("[ExpirationScheduler] expiry in the past for note %s, scheduling immediate deletion", note.ID)
		return s.scheduleImmediateDeletion(ctx, note.ID)
	}

	task, err := NewExpirationTask(note.ID)
	if err != nil {
		return fmt.Errorf("failed to build expiration task for note %s: %w", note.ID, err)
	}

	jobID := JobID(note.ID)
	exists, err := s.jobExists(jobID)
	if err != nil {
		return err
	}

	if exists {
		log.Printf("[ExpirationScheduler] replacing existing job for note %s", note.ID)
		if err := s.deleteJob(jobID); err != nil {
			return err
		}
	}

	_, err = s.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueNoteExpiration),
		asynq.TaskID(jobID),
		asynq.ProcessAt(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule deletion of note %s: %w", note.ID, err)
	}

	middleware.ExpirationJobsScheduled.Inc()
	log.Printf("[ExpirationScheduler] scheduled deletion of note %s at %s", note.ID, expiresAt.Format(time.RFC3339))
	return nil
}

// CancelScheduledDeletion removes the pending job for a note if one
// exists. A missing job is a no-op, not an error.
func (s *NoteExpirationScheduler) CancelScheduledDeletion(ctx context.Context, noteID string) error {
	jobID := JobID(noteID)
	exists, err := s.jobExists(jobID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	log.Printf("[ExpirationScheduler] cancelling scheduled deletion for note %s", noteID)
	return s.deleteJob(jobID)
}

// TriggerNow forces a pending job to run without waiting for its fire
// time. Intended for ops tooling and tests only.
func (s *NoteExpirationScheduler) TriggerNow(noteID string) error {
	if err := s.inspector.RunTask(QueueNoteExpiration, JobID(noteID)); err != nil {
		return fmt.Errorf("failed to trigger deletion of note %s: %w", noteID, err)
	}
	return nil
}

func (s *NoteExpirationScheduler) scheduleImmediateDeletion(ctx context.Context, noteID string) error {
	// Replace a pending scheduled job first; the note is about to be
	// deleted either way and only one live job per note is allowed.
	jobID := JobID(noteID)
	exists, err := s.jobExists(jobID)
	if err != nil {
		return err
	}
	if exists {
		if err := s.deleteJob(jobID); err != nil {
			return err
		}
	}

	task, err := NewExpirationTask(noteID)
	if err != nil {
		return fmt.Errorf("failed to build expiration task for note %s: %w", noteID, err)
	}

	_, err = s.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueNoteExpiration),
		asynq.TaskID(ImmediateJobID(noteID)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// An immediate deletion is already queued for this note.
		log.Printf("[ExpirationScheduler] immediate deletion already pending for note %s", noteID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to schedule immediate deletion of note %s: %w", noteID, err)
	}

	middleware.ExpirationJobsScheduled.Inc()
	log.Printf("[ExpirationScheduler] scheduled immediate deletion of note %s", noteID)
	return nil
}

func (s *NoteExpirationScheduler) jobExists(jobID string) (bool, error) {
	_, err := s.inspector.GetTaskInfo(QueueNoteExpiration, jobID)
	if err == nil {
		return true, nil
	}
	// The queue does not exist until the first job is enqueued.
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to look up job %s: %w", jobID, err)
}

func (s *NoteExpirationScheduler) deleteJob(jobID string) error {
	err := s.inspector.DeleteTask(QueueNoteExpiration, jobID)
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("failed to delete job %s: %w", jobID, err)
}
