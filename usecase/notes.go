package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"main/dto"
	"main/model"
	"main/repository"

	"github.com/google/uuid"
)

const (
	maxPageSize = 100
	maxNotes    = 1000
)

// NotesRepository is the note storage contract the service depends on.
type NotesRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNoteByID(ctx context.Context, noteID string) (*model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNoteByID(ctx context.Context, noteID string) error
	GetUserNotes(ctx context.Context, userID string, page, pageSize int) ([]*model.Note, int64, error)
}

// NoteHistoryRepository records and serves edit snapshots. SaveFromNote is
// called unconditionally before every update.
type NoteHistoryRepository interface {
	SaveFromNote(ctx context.Context, note *model.Note) error
	GetByNoteID(ctx context.Context, noteID string, page, pageSize int) ([]*model.NoteHistory, int64, error)
	DeleteByNoteID(ctx context.Context, noteID string) error
}

// ExpirationScheduler keeps the scheduled deletion job in sync with a
// note's expiry. Failures abort the enclosing note mutation.
type ExpirationScheduler interface {
	ScheduleNoteDeletion(ctx context.Context, note *model.Note) error
	CancelScheduledDeletion(ctx context.Context, noteID string) error
}

// NoteService orchestrates note mutations: storage, edit history, and the
// expiration scheduler are invoked in an order that keeps the persisted
// expiry and the scheduled job consistent.
type NoteService struct {
	Notes      NotesRepository
	History    NoteHistoryRepository
	Expiration ExpirationScheduler
}

func NewNoteService(notes NotesRepository, history NoteHistoryRepository, expiration ExpirationScheduler) *NoteService {
	return &NoteService{
		Notes:      notes,
		History:    history,
		Expiration: expiration,
	}
}

// CreateNote stores a new note and schedules its deletion when a TTL is
// given. If scheduling fails the stored note is rolled back so no note
// ends up with an expiry but no job.
func (s *NoteService) CreateNote(ctx context.Context, userID string, req *dto.NoteRequest) (*dto.NoteResponse, error) {
	note := &model.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		ExpiresAt: expiryFromTTL(req.TTLMinutes),
	}

	if err := s.Notes.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	if err := s.Expiration.ScheduleNoteDeletion(ctx, note); err != nil {
		if delErr := s.Notes.DeleteNoteByID(ctx, note.ID); delErr != nil {
			log.Printf("[NoteService] failed to roll back note %s after scheduling error: %v", note.ID, delErr)
		}
		return nil, err
	}

	return dto.ToNoteResponse(note), nil
}

// GetNote returns a note owned by the caller. Notes owned by anyone else
// report not-found so their existence is not revealed.
func (s *NoteService) GetNote(ctx context.Context, noteID, userID string) (*dto.NoteResponse, error) {
	note, err := s.loadOwnedNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	return dto.ToNoteResponse(note), nil
}

// UpdateNote snapshots the current content into history, applies the
// update under the optimistic version check, then reconciles the
// scheduled deletion with the new TTL (a cleared TTL cancels it).
func (s *NoteService) UpdateNote(ctx context.Context, noteID, userID string, req *dto.NoteRequest) (*dto.NoteResponse, error) {
	note, err := s.loadOwnedNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.History.SaveFromNote(ctx, note); err != nil {
		return nil, err
	}

	note.Title = req.Title
	note.Content = req.Content
	note.ExpiresAt = expiryFromTTL(req.TTLMinutes)
	note.UpdatedAt = time.Now().UTC()

	if err := s.Notes.UpdateNote(ctx, note); err != nil {
		return nil, err
	}

	if err := s.Expiration.ScheduleNoteDeletion(ctx, note); err != nil {
		return nil, err
	}

	return dto.ToNoteResponse(note), nil
}

// DeleteNote cancels any pending deletion job, then removes the note and
// its history.
func (s *NoteService) DeleteNote(ctx context.Context, noteID, userID string) error {
	note, err := s.loadOwnedNote(ctx, noteID, userID)
	if err != nil {
		return err
	}

	if err := s.Expiration.CancelScheduledDeletion(ctx, note.ID); err != nil {
		return err
	}

	if err := s.History.DeleteByNoteID(ctx, note.ID); err != nil {
		return err
	}

	if err := s.Notes.DeleteNoteByID(ctx, note.ID); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			// Deleted concurrently, possibly by an expiration job firing
			// in the meantime. The outcome the caller asked for holds.
			return nil
		}
		return err
	}

	return nil
}

// GetNotes returns one page of the caller's notes. The page size is
// clamped to 100 and pagination never reaches past the first 1000 notes.
func (s *NoteService) GetNotes(ctx context.Context, userID string, page, pageSize int) (*dto.PagedNoteResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	notes, total, err := s.Notes.GetUserNotes(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	if total > maxNotes {
		total = maxNotes
	}
	totalPages := pageCount(total, pageSize)

	content := make([]*dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		content = append(content, dto.ToNoteResponse(note))
	}

	return &dto.PagedNoteResponse{
		Content:       content,
		Page:          page,
		Size:          pageSize,
		TotalElements: total,
		TotalPages:    totalPages,
		IsFirst:       page == 0,
		IsLast:        page >= totalPages-1,
	}, nil
}

// GetNoteHistory returns one page of edit snapshots for a note owned by
// the caller, newest first.
func (s *NoteService) GetNoteHistory(ctx context.Context, noteID, userID string, page, pageSize int) (*dto.PagedNoteHistoryResponse, error) {
	if _, err := s.loadOwnedNote(ctx, noteID, userID); err != nil {
		return nil, err
	}

	page, pageSize = clampPage(page, pageSize)

	entries, total, err := s.History.GetByNoteID(ctx, noteID, page, pageSize)
	if err != nil {
		return nil, err
	}
	totalPages := pageCount(total, pageSize)

	content := make([]*dto.NoteHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		content = append(content, dto.ToNoteHistoryResponse(entry))
	}

	return &dto.PagedNoteHistoryResponse{
		Content:       content,
		Page:          page,
		Size:          pageSize,
		TotalElements: total,
		TotalPages:    totalPages,
		IsFirst:       page == 0,
		IsLast:        page >= totalPages-1,
	}, nil
}

func (s *NoteService) loadOwnedNote(ctx context.Context, noteID, userID string) (*model.Note, error) {
	note, err := s.Notes.GetNoteByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID {
		return nil, repository.ErrNoteNotFound
	}
	return note, nil
}

// expiryFromTTL converts an optional TTL in minutes into an absolute
// expiry instant. A nil TTL means the note never expires.
func expiryFromTTL(ttlMinutes *int) *time.Time {
	if ttlMinutes == nil {
		return nil
	}
	expiresAt := time.Now().UTC().Add(time.Duration(*ttlMinutes) * time.Minute)
	return &expiresAt
}

func clampPage(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 0 {
		page = 0
	}
	maxPageNumber := (maxNotes - 1) / pageSize
	if page > maxPageNumber {
		page = maxPageNumber
	}
	return page, pageSize
}

func pageCount(total int64, pageSize int) int {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		pages = 1
	}
	return pages
}
