package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"main/model"

	"github.com/hibiken/asynq"
)

type enqueuedJob struct {
	task *asynq.Task
	opts []asynq.Option
}

type fakeJobClient struct {
	enqueued   []enqueuedJob
	enqueueErr error
}

func (f *fakeJobClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.enqueueErr != nil {
		return nil, f.enqueueErr
	}
	f.enqueued = append(f.enqueued, enqueuedJob{task: task, opts: opts})
	return &asynq.TaskInfo{}, nil
}

type fakeJobInspector struct {
	existing  map[string]bool
	deleted   []string
	ran       []string
	lookupErr error
}

func (f *fakeJobInspector) GetTaskInfo(queue, id string) (*asynq.TaskInfo, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if len(f.existing) == 0 {
		return nil, asynq.ErrQueueNotFound
	}
	if !f.existing[id] {
		return nil, asynq.ErrTaskNotFound
	}
	return &asynq.TaskInfo{ID: id, Queue: queue}, nil
}

func (f *fakeJobInspector) DeleteTask(queue, id string) error {
	if !f.existing[id] {
		return asynq.ErrTaskNotFound
	}
	delete(f.existing, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeJobInspector) RunTask(queue, id string) error {
	f.ran = append(f.ran, id)
	return nil
}

func newTestScheduler(client *fakeJobClient, inspector *fakeJobInspector) *NoteExpirationScheduler {
	s := NewNoteExpirationScheduler(client, inspector)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func optionValue(t *testing.T, opts []asynq.Option, optType asynq.OptionType) (interface{}, bool) {
	t.Helper()
	for _, opt := range opts {
		if opt.Type() == optType {
			return opt.Value(), true
		}
	}
	return nil, false
}

func noteWithExpiry(id string, expiresAt *time.Time) *model.Note {
	return &model.Note{
		ID:        id,
		UserID:    "user-1",
		Title:     "title",
		Content:   "content",
		ExpiresAt: expiresAt,
	}
}

func TestScheduleFutureExpiry(t *testing.T) {
	client := &fakeJobClient{}
	inspector := &fakeJobInspector{existing: map[string]bool{}}
	s := newTestScheduler(client, inspector)

	expiresAt := s.now().Add(30 * time.Minute)
	err := s.ScheduleNoteDeletion(context.Background(), noteWithExpiry("note-1", &expiresAt))
	if err != nil {
		t.Fatalf("ScheduleNoteDeletion failed: %v", err)
	}

	if len(client.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(client.enqueued))
	}

	job := client.enqueued[0]
	if id, _ := optionValue(t, job.opts, asynq.TaskIDOpt); id != JobID("note-1") {
		t.Errorf("job id = %v, want %q", id, JobID("note-1"))
	}
	if queue, _ := optionValue(t, job.opts, asynq.QueueOpt); queue != QueueNoteExpiration {
		t.Errorf("queue = %v, want %q", queue, QueueNoteExpiration)
	}
	processAt, ok := optionValue(t, job.opts, asynq.ProcessAtOpt)
	if !ok {
		t.Fatal("job has no fire time")
	}
	if !processAt.(time.Time).Equal(expiresAt) {
		t.Errorf("fire time = %v, want %v", processAt, expiresAt)
	}
}

func TestScheduleReplacesExistingJob(t *testing.T) {
	client := &fakeJobClient{}
	inspector := &fakeJobInspector{existing: map[string]bool{JobID("note-1"): true}}
	s := newTestScheduler(client, inspector)

	expiresAt := s.now().Add(2 * time.Hour)
	err := s.ScheduleNoteDeletion(context.Background(), noteWithExpiry("note-1", &expiresAt))
	if err != nil {
		t.Fatalf("ScheduleNoteDeletion failed: %v", err)
	}

	// Delete-then-create, never duplicate-append
	if len(inspector.deleted) != 1 || inspector.deleted[0] != JobID("note-1") {
		t.Errorf("deleted = %v, want the existing job removed first", inspector.deleted)
	}
	if len(client.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(client.enqueued))
	}
	processAt, _ := optionValue(t, client.enqueued[0].opts, asynq.ProcessAtOpt)
	if !processAt.(time.Time).Equal(expiresAt) {
		t.Errorf("replacement fires at %v, want %v", processAt, expiresAt)
	}
}

func TestScheduleNilExpiryCancels(t *testing.T) {
	client := &fakeJobClient{}
	inspector := &fakeJobInspector{existing: map[string]bool{JobID("note-1"): true}}
	s := newTestScheduler(client, inspector)

	err := s.ScheduleNoteDeletion(context.Background(), noteWithExpiry("note-1", nil))
	if err != nil {
		t.Fatalf("ScheduleNoteDeletion failed: %v", err)
	}

	if len(client.enqueued) != 0 {
		t.Errorf("enqueued %d jobs, want none", len(client.enqueued))
	}
	if len(inspector.deleted) != 1 {
		t.Errorf("existing job not cancelled, deleted = %v", inspector.deleted)
	}
}

func TestCancelAbsentJobIsNoOp(t *testing.T) {
	client := &fakeJobClient{}
	inspector := &fakeJobInspector{existing: map[string]bool{}}
	s := newTestScheduler(client, inspector)

	if err := s.CancelScheduledDeletion(context.Background(), "note-1"); err != nil {
		t.Fatalf("cancelling an absent job must not error, got %v", err)
	}
	if len(inspector.deleted) != 0 {
		t.Errorf("deleted = %v, want no deletions", inspector.deleted)
	}
}

func TestSchedulePastExpiryFiresImmediately(t *testing.T) {
	client := &fakeJobClient{}
	inspector := &fakeJobInspector{existing: map[string]bool{}}
	s := newTestScheduler(client, inspector)

	expiresAt := s.now().Add(-time.Minute)
	err := s.ScheduleNoteDeletion(context.Background(), noteWithExpiry("note-1", &expiresAt))
	if err != nil {
		t.Fatalf("ScheduleNoteDeletion failed: %v", err)
	}

	if len(client.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(client.enqueued))
	}

	job := client.enqueued[0]
	if id, _ := optionValue(t, job.opts, asynq.TaskIDOpt); id != ImmediateJobID("note-1") {
		t.Errorf("job id = %v, want immediate namespace %q", id, ImmediateJobID("note-1"))
	}
	// No fire time means the job is eligible to run right away
	if _, ok := optionValue(t, job.opts, asynq.ProcessAtOpt); ok {
		t.Error("immediate job must not carry a future fire time")
	}
}

func TestSchedulePastExpiryReplacesScheduledJob(t *testing.T) {
	client := &fakeJobClient{}
	inspector := &fakeJobInspector{existing: map[string]bool{JobID("note-1"): true}}
	s := newTestScheduler(client, inspector)

	expiresAt := s.now().Add(-time.Second)
	err := s.ScheduleNoteDeletion(context.Background(), noteWithExpiry("note-1", &expiresAt))
	if err != nil {
		t.Fatalf("ScheduleNoteDeletion failed: %v", err)
	}

	if len(inspector.deleted) != 1 {
		t.Errorf("pending scheduled job not removed, deleted = %v", inspector.deleted)
	}
}

func TestScheduleImmediateTwiceIsIdempotent(t *testing.T) {
	client := &fakeJobClient{enqueueErr: asynq.ErrTaskIDConflict}
	inspector := &fakeJobInspector{existing: map[string]bool{}}
	s := newTestScheduler(client, inspector)

	expiresAt := s.now().Add(-time.Minute)
	err := s.ScheduleNoteDeletion(context.Background(), noteWithExpiry("note-1", &expiresAt))
	if err != nil {
		t.Fatalf("a pending immediate job must not surface as an error, got %v", err)
	}
}

func TestScheduleErrorsPropagate(t *testing.T) {
	storeErr := errors.New("job store unreachable")

	client := &fakeJobClient{enqueueErr: storeErr}
	inspector := &fakeJobInspector{existing: map[string]bool{}}
	s := newTestScheduler(client, inspector)

	expiresAt := s.now().Add(time.Hour)
	err := s.ScheduleNoteDeletion(context.Background(), noteWithExpiry("note-1", &expiresAt))
	if !errors.Is(err, storeErr) {
		t.Errorf("err = %v, want job store error propagated", err)
	}
}

func TestLookupErrorsPropagate(t *testing.T) {
	lookupErr := errors.New("connection refused")

	client := &fakeJobClient{}
	inspector := &fakeJobInspector{existing: map[string]bool{}, lookupErr: lookupErr}
	s := newTestScheduler(client, inspector)

	if err := s.CancelScheduledDeletion(context.Background(), "note-1"); !errors.Is(err, lookupErr) {
		t.Errorf("err = %v, want lookup error propagated", err)
	}
}

func TestTriggerNow(t *testing.T) {
	client := &fakeJobClient{}
	inspector := &fakeJobInspector{existing: map[string]bool{JobID("note-1"): true}}
	s := newTestScheduler(client, inspector)

	if err := s.TriggerNow("note-1"); err != nil {
		t.Fatalf("TriggerNow failed: %v", err)
	}
	if len(inspector.ran) != 1 || inspector.ran[0] != JobID("note-1") {
		t.Errorf("ran = %v, want the note's job", inspector.ran)
	}
}
