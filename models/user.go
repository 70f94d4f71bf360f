package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User stores credentials as a bcrypt digest only; plaintext never reaches
// the store.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	ProfileImage string             `bson:"profileImage" json:"profileImage"`
	MediaID      string             `bson:"mediaId,omitempty" json:"-"`
	IsBlocked    bool               `bson:"isBlocked" json:"isBlocked"`
	CreatedAt    int64              `bson:"createdAt" json:"createdAt"`
}

// OwnerID is the canonical owner extraction: a user record is owned by
// itself.
func (u *User) OwnerID() primitive.ObjectID { return u.ID }

// Summary is the denormalized owner shape embedded in post, comment, like
// and follow listings.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ProfileImage: u.ProfileImage}
}

type UserSummary struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Username     string             `bson:"username" json:"username"`
	ProfileImage string             `bson:"profileImage" json:"profileImage"`
}
