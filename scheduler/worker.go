package scheduler

import (
	"github.com/hibiken/asynq"
)

// NewWorker builds the job store server that evaluates triggers and runs
// expiration jobs on its own worker pool, independent of request handling.
// Overdue jobs left behind by downtime are fired as soon as the worker
// starts, and jobs whose lease expired mid-run are re-delivered.
func NewWorker(redisOpt asynq.RedisConnOpt, executor *NoteExpirationExecutor, concurrency int) (*asynq.Server, *asynq.ServeMux) {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueNoteExpiration: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeNoteExpiration, executor)

	return server, mux
}
