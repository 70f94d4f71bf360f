package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Read-side shapes returned by list/find operations. Every nested record is
// annotated with its own owner summary.

type PostView struct {
	ID        primitive.ObjectID `json:"id"`
	Content   string             `json:"content"`
	Image     string             `json:"image,omitempty"`
	CreatedAt int64              `json:"createdAt"`
	User      UserSummary        `json:"user"`
	Comments  []CommentView      `json:"comments"`
	Likes     []LikeView         `json:"likes"`
}

type CommentView struct {
	ID        primitive.ObjectID `json:"id"`
	Content   string             `json:"content"`
	CreatedAt int64              `json:"createdAt"`
	User      UserSummary        `json:"user"`
}

type LikeView struct {
	ID        primitive.ObjectID `json:"id"`
	CreatedAt int64              `json:"createdAt"`
	User      UserSummary        `json:"user"`
}

type UserView struct {
	ID           primitive.ObjectID `json:"id"`
	Username     string             `json:"username"`
	Email        string             `json:"email"`
	ProfileImage string             `json:"profileImage"`
	IsBlocked    bool               `json:"isBlocked"`
	Followers    []UserSummary      `json:"followers"`
	Following    []UserSummary      `json:"following"`
	Posts        []PostView         `json:"posts"`
}
