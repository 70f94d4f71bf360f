package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Like is immutable: it is created and destroyed, never edited. At most one
// like exists per (user, post) pair.
type Like struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"postId" json:"postId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}

func (l *Like) OwnerID() primitive.ObjectID { return l.UserID }
