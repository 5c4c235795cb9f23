package repository

import (
	"context"
	"os"

	"main/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NoteHistoryRepo struct {
	MongoCollection *mongo.Collection
}

func GetNoteHistoryRepo(client *mongo.Client) *NoteHistoryRepo {
	return &NoteHistoryRepo{
		MongoCollection: client.Database(os.Getenv("MONGO_DB")).Collection("note_history"),
	}
}

// SaveFromNote records a snapshot of the note as it is right now.
// Snapshots are taken unconditionally before every update.
func (r *NoteHistoryRepo) SaveFromNote(ctx context.Context, note *model.Note) error {
	entry := &model.NoteHistory{
		ID:        uuid.NewString(),
		NoteID:    note.ID,
		Title:     note.Title,
		Content:   note.Content,
		UpdatedAt: note.UpdatedAt,
	}

	_, err := r.MongoCollection.InsertOne(ctx, entry)
	return err
}

// GetByNoteID returns one page of snapshots for a note, newest first,
// along with the total snapshot count.
func (r *NoteHistoryRepo) GetByNoteID(ctx context.Context, noteID string, page, pageSize int) ([]*model.NoteHistory, int64, error) {
	filter := bson.M{"note_id": noteID}

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

	var entries []*model.NoteHistory
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// DeleteByNoteID removes every snapshot for a note. Deleting zero
// documents is not an error.
func (r *NoteHistoryRepo) DeleteByNoteID(ctx context.Context, noteID string) error {
	_, err := r.MongoCollection.DeleteMany(ctx, bson.M{"note_id": noteID})
	return err
}
