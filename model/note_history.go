package model

import (
	"time"
)

// NoteHistory is a snapshot of a note taken right before an update.
// Snapshots are append-only and removed only when the note itself is deleted.
type NoteHistory struct {
	ID        string    `bson:"_id" json:"id"`
	NoteID    string    `bson:"note_id" json:"note_id"`
	Title     string    `bson:"title" json:"title"`
	Content   string    `bson:"content" json:"content"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
