package repository

import (
	"context"
	"os"
	"time"

	"main/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type SessionsRepo struct {
	MongoCollection *mongo.Collection
}

func GetSessionsRepo(client *mongo.Client) *SessionsRepo {
	return &SessionsRepo{
		MongoCollection: client.Database(os.Getenv("MONGO_DB")).Collection("sessions"),
	}
}

func (r *SessionsRepo) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := r.MongoCollection.InsertOne(ctx, session)
	return err
}

// EndUserSessions marks every active session for a user as ended.
func (r *SessionsRepo) EndUserSessions(ctx context.Context, userID string) error {
	_, err := r.MongoCollection.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_active": true},
		bson.M{"$set": bson.M{
			"is_active":        false,
			"last_activity_at": time.Now().UTC(),
		}})
	return err
}

func (r *SessionsRepo) GetActiveSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	cursor, err := r.MongoCollection.Find(ctx,
		bson.M{"user_id": userID, "is_active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionsRepo) CountActiveSessions(ctx context.Context, userID string) (int64, error) {
	return r.MongoCollection.CountDocuments(ctx,
		bson.M{"user_id": userID, "is_active": true})
}
