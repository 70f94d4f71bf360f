// Package relationship maintains the directed follow graph and owns the
// cascade-delete rules that keep the content graph consistent: Post owns
// its Comments and Likes, User owns Posts, Comments, Likes and both ends of
// its follow edges. Every read-modify-write runs under the store
// transaction so duplicate edges cannot race in and cascades cannot
// half-apply.
package relationship

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/errs"
	"ripple/models"
	"ripple/store"
)

type Engine struct {
	store store.Store
}

func NewEngine(st store.Store) *Engine {
	return &Engine{store: st}
}

// Follow inserts the edge follower -> following. Self-follows and duplicate
// edges are invalid states, distinct from ownership failures.
func (e *Engine) Follow(ctx context.Context, followerID, followingID primitive.ObjectID) (*models.Follow, error) {
	if followerID == followingID {
		return nil, errs.InvalidState(errs.ReasonSelfReference, "You can't follow yourself.")
	}

	edge := &models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now().Unix(),
	}
	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		exists, err := e.store.Follows().Has(ctx, followerID, followingID)
		if err != nil {
			return errs.Upstream("store", err)
		}
		if exists {
			return errs.InvalidState(errs.ReasonAlreadyFollowing, "You already followed this user.")
		}
		if err := e.store.Follows().Insert(ctx, edge); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return errs.InvalidState(errs.ReasonAlreadyFollowing, "You already followed this user.")
			}
			return errs.Upstream("store", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// Unfollow removes the edge follower -> following; an absent edge is
// NotFound, not a deny.
func (e *Engine) Unfollow(ctx context.Context, followerID, followingID primitive.ObjectID) error {
	if followerID == followingID {
		return errs.InvalidState(errs.ReasonSelfReference, "You can't unfollow yourself.")
	}
	return e.store.WithTx(ctx, func(ctx context.Context) error {
		removed, err := e.store.Follows().Remove(ctx, followerID, followingID)
		if err != nil {
			return errs.Upstream("store", err)
		}
		if !removed {
			return errs.NotFoundMsg("Follow not found.")
		}
		return nil
	})
}

// HasEdge reports whether follower -> following exists.
func (e *Engine) HasEdge(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error) {
	return e.store.Follows().Has(ctx, followerID, followingID)
}

// Followers returns a materialized snapshot of the users following userID.
// Order is unspecified.
func (e *Engine) Followers(ctx context.Context, userID primitive.ObjectID) ([]models.UserSummary, error) {
	ids, err := e.store.Follows().Followers(ctx, userID)
	if err != nil {
		return nil, errs.Upstream("store", err)
	}
	return e.summaries(ctx, ids)
}

// Following returns a materialized snapshot of the users userID follows.
func (e *Engine) Following(ctx context.Context, userID primitive.ObjectID) ([]models.UserSummary, error) {
	ids, err := e.store.Follows().Following(ctx, userID)
	if err != nil {
		return nil, errs.Upstream("store", err)
	}
	return e.summaries(ctx, ids)
}

func (e *Engine) summaries(ctx context.Context, ids []primitive.ObjectID) ([]models.UserSummary, error) {
	summaries := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		u, err := e.store.Users().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue // edge endpoint deleted concurrently
			}
			return nil, errs.Upstream("store", err)
		}
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}

// DeletePostCascade removes a post together with every comment and like
// attached to it, atomically.
func (e *Engine) DeletePostCascade(ctx context.Context, postID primitive.ObjectID) error {
	return e.store.WithTx(ctx, func(ctx context.Context) error {
		return e.deletePostCascade(ctx, postID)
	})
}

func (e *Engine) deletePostCascade(ctx context.Context, postID primitive.ObjectID) error {
	if err := e.store.Comments().DeleteByPost(ctx, postID); err != nil {
		return errs.Upstream("store", err)
	}
	if err := e.store.Likes().DeleteByPost(ctx, postID); err != nil {
		return errs.Upstream("store", err)
	}
	if err := e.store.Posts().Delete(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errs.NotFoundMsg("Post not found.")
		}
		return errs.Upstream("store", err)
	}
	return nil
}

// DeleteUserCascade removes a user and everything the user owns or is an
// endpoint of: their posts (with those posts' comments and likes), comments
// and likes on other posts, and follow edges in both directions. The whole
// cascade commits or rolls back as one unit.
func (e *Engine) DeleteUserCascade(ctx context.Context, userID primitive.ObjectID) error {
	return e.store.WithTx(ctx, func(ctx context.Context) error {
		posts, err := e.store.Posts().ListByAuthor(ctx, userID)
		if err != nil {
			return errs.Upstream("store", err)
		}
		for _, p := range posts {
			if err := e.deletePostCascade(ctx, p.ID); err != nil {
				return err
			}
		}
		if err := e.store.Comments().DeleteByAuthor(ctx, userID); err != nil {
			return errs.Upstream("store", err)
		}
		if err := e.store.Likes().DeleteByAuthor(ctx, userID); err != nil {
			return errs.Upstream("store", err)
		}
		if err := e.store.Follows().DeleteByUser(ctx, userID); err != nil {
			return errs.Upstream("store", err)
		}
		if err := e.store.Users().Delete(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errs.NotFoundMsg("User not found.")
			}
			return errs.Upstream("store", err)
		}
		return nil
	})
}
