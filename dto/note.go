package dto

import (
	"time"

	"main/model"
)

// NoteRequest is the payload for creating or updating a note.
// TTLMinutes is optional; when set it must be between 1 minute and 7 days.
// A null TTL on update clears any pending expiration.
type NoteRequest struct {
	Title      string `json:"title" binding:"required,min=1,max=255"`
	Content    string `json:"content" binding:"required,min=1,max=5000"`
	TTLMinutes *int   `json:"ttlMinutes" binding:"omitempty,gt=0,lte=10080"`
}

type NoteResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func ToNoteResponse(note *model.Note) *NoteResponse {
	return &NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
		ExpiresAt: note.ExpiresAt,
	}
}

type PagedNoteResponse struct {
	Content       []*NoteResponse `json:"content"`
	Page          int             `json:"page"`
	Size          int             `json:"size"`
	TotalElements int64           `json:"totalElements"`
	TotalPages    int             `json:"totalPages"`
	IsFirst       bool            `json:"isFirst"`
	IsLast        bool            `json:"isLast"`
}

type NoteHistoryResponse struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToNoteHistoryResponse(entry *model.NoteHistory) *NoteHistoryResponse {
	return &NoteHistoryResponse{
		Title:     entry.Title,
		Content:   entry.Content,
		UpdatedAt: entry.UpdatedAt,
	}
}

type PagedNoteHistoryResponse struct {
	Content       []*NoteHistoryResponse `json:"content"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
	TotalElements int64                  `json:"totalElements"`
	TotalPages    int                    `json:"totalPages"`
	IsFirst       bool                   `json:"isFirst"`
	IsLast        bool                   `json:"isLast"`
}
