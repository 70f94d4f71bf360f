// Package store defines the Entity Store contracts consumed by the engines
// and services. Implementations must enforce uniqueness on username, email
// and the (follower, following) and (user, post) pairs, and must make WithTx
// atomic so check-then-insert sequences and cascade deletes never race or
// half-apply.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/models"
)

// ErrNotFound is returned by lookups when no entity matches. Services
// translate it to the taxonomy, attaching entity type and id.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned by inserts that violate a uniqueness constraint.
var ErrDuplicate = errors.New("store: duplicate")

type Store interface {
	Users() UserStore
	Posts() PostStore
	Comments() CommentStore
	Likes() LikeStore
	Follows() FollowStore

	// WithTx runs fn atomically: every store call made with the ctx passed
	// to fn either commits as a whole or rolls back as a whole.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ListOptions paginates and orders user listings. Limit 0 means no limit;
// Sort is "asc", "desc" or empty for store order.
type ListOptions struct {
	Page  int
	Limit int
	Sort  string
}

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, opts ListOptions) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type PostStore interface {
	Insert(ctx context.Context, p *models.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	ListByAuthor(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CommentStore interface {
	Insert(ctx context.Context, c *models.Comment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error)
	Update(ctx context.Context, c *models.Comment) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) error
	DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) error
}

type LikeStore interface {
	Insert(ctx context.Context, l *models.Like) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Like, error)
	FindByUserAndPost(ctx context.Context, userID, postID primitive.ObjectID) (*models.Like, error)
	ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Like, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) error
	DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) error
}

type FollowStore interface {
	Insert(ctx context.Context, f *models.Follow) error
	Has(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error)
	Remove(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error)
	Followers(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	Following(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	// DeleteByUser removes every edge where userID is either endpoint.
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}
