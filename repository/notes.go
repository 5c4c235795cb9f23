package repository

import (
	"context"
	"errors"
	"os"
	"time"

	"main/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNoteNotFound is returned when a note does not exist. Callers treat
	// this as an expected outcome, not an infrastructure failure.
	ErrNoteNotFound = errors.New("note not found")

	// ErrNoteConflict is returned when an update loses the optimistic
	// version check against a concurrent modification.
	ErrNoteConflict = errors.New("note was modified concurrently")
)

type NotesRepo struct {
	MongoCollection *mongo.Collection
}

func GetNotesRepo(client *mongo.Client) *NotesRepo {
	return &NotesRepo{
		MongoCollection: client.Database(os.Getenv("MONGO_DB")).Collection("notes"),
	}
}

// CreateNote inserts a new note with its version counter at zero.
func (r *NotesRepo) CreateNote(ctx context.Context, note *model.Note) error {
	if note.UserID == "" {
		return errors.New("user ID is required")
	}

	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	note.Version = 0

	_, err := r.MongoCollection.InsertOne(ctx, note)
	return err
}

// GetNoteByID loads a note regardless of owner. The expiration executor
// uses this path, since expired notes are deleted on behalf of the system.
func (r *NotesRepo) GetNoteByID(ctx context.Context, noteID string) (*model.Note, error) {
	var note model.Note
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": noteID}).Decode(&note)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}

// UpdateNote persists the given note state, guarded by an optimistic
// version check. The note's Version must hold the value that was loaded;
// it is incremented on success.
func (r *NotesRepo) UpdateNote(ctx context.Context, note *model.Note) error {
	filter := bson.M{
		"_id":     note.ID,
		"version": note.Version,
	}

	update := bson.M{
		"$set": bson.M{
			"title":      note.Title,
			"content":    note.Content,
			"updated_at": note.UpdatedAt,
			"expires_at": note.ExpiresAt,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.MongoCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		// Distinguish a missing note from a lost version race.
		count, err := r.MongoCollection.CountDocuments(ctx, bson.M{"_id": note.ID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNoteNotFound
		}
		return ErrNoteConflict
	}

	note.Version++
	return nil
}

// DeleteNoteByID removes a note. Returns ErrNoteNotFound if it was
// already gone, which deletion paths treat as success.
func (r *NotesRepo) DeleteNoteByID(ctx context.Context, noteID string) error {
	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": noteID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// GetUserNotes returns one page of a user's notes, newest first, along
// with the total note count for that user.
func (r *NotesRepo) GetUserNotes(ctx context.Context, userID string, page, pageSize int) ([]*model.Note, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.MongoCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(int64(page * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var notes []*model.Note
	if err = cursor.All(ctx, &notes); err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

// CountUserNotes counts all notes owned by a user.
func (r *NotesRepo) CountUserNotes(ctx context.Context, userID string) (int64, error) {
	return r.MongoCollection.CountDocuments(ctx, bson.M{"user_id": userID})
}
