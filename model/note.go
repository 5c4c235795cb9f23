package model

import (
	"time"
)

type Note struct {
	ID        string     `bson:"_id" json:"id"`
	UserID    string     `bson:"user_id" json:"-"`
	Title     string     `bson:"title" json:"title"`
	Content   string     `bson:"content" json:"content"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"expiresAt,omitempty"`
	Version   int64      `bson:"version" json:"-"`
}
