// Package content orchestrates create/edit/delete/list for posts, comments
// and likes. It loads the target through the store, consults the
// authorization engine, and delegates cascade rules to the relationship
// engine. Reads are public by design and perform no authorization check.
package content

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/authz"
	"ripple/errs"
	"ripple/media"
	"ripple/models"
	"ripple/relationship"
	"ripple/store"
)

// Image carries raw upload bytes handed to the media collaborator.
type Image struct {
	Data     []byte
	MimeType string
}

type PostEdit struct {
	Content *string `json:"content"`
	Image   *string `json:"image"`
}

type Service struct {
	store  store.Store
	authz  *authz.Engine
	rel    *relationship.Engine
	media  media.Store
	logger *log.Logger
}

func NewService(st store.Store, az *authz.Engine, rel *relationship.Engine, md media.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: st, authz: az, rel: rel, media: md, logger: logger}
}

// CreatePost validates content, uploads the optional image through the
// media collaborator and stores the post owned by the actor.
func (s *Service) CreatePost(ctx context.Context, actor primitive.ObjectID, content string, image *Image) (*models.Post, error) {
	if content == "" {
		return nil, errs.MissingFields("content")
	}

	post := &models.Post{
		UserID:    actor,
		Content:   content,
		CreatedAt: time.Now().Unix(),
	}
	if image != nil {
		up, err := s.media.Upload(ctx, image.Data, image.MimeType)
		if err != nil {
			return nil, errs.Upstream("media", err)
		}
		post.Image = up.URL
		post.MediaID = up.MediaID
	}

	if err := s.store.Posts().Insert(ctx, post); err != nil {
		return nil, errs.Upstream("store", err)
	}
	return post, nil
}

// EditPost applies a partial update. The body must carry at least one
// editable field, the actor must own the post, and an edit that leaves the
// post byte-identical fails with NoChange instead of silently no-opping.
func (s *Service) EditPost(ctx context.Context, actor, postID primitive.ObjectID, edit PostEdit) (*models.Post, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, authz.ActionEdit, "post", post); err != nil {
		return nil, err
	}
	if edit.Content == nil && edit.Image == nil {
		return nil, errs.MissingFields("content or image")
	}

	updated := *post
	if edit.Content != nil {
		if *edit.Content == "" {
			return nil, errs.Validation("Content can't be empty.", "content")
		}
		updated.Content = *edit.Content
	}
	if edit.Image != nil {
		updated.Image = *edit.Image
	}
	if updated == *post {
		return nil, errs.NoChange("post")
	}

	if err := s.store.Posts().Update(ctx, &updated); err != nil {
		return nil, errs.Upstream("store", err)
	}
	return &updated, nil
}

// DeletePost removes the post and cascades to its comments and likes.
// The post image, if any, is released after the cascade commits.
func (s *Service) DeletePost(ctx context.Context, actor, postID primitive.ObjectID) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(actor, authz.ActionDelete, "post", post); err != nil {
		return err
	}
	if err := s.rel.DeletePostCascade(ctx, postID); err != nil {
		return err
	}
	if post.MediaID != "" {
		if err := s.media.Delete(ctx, post.MediaID); err != nil {
			s.logger.Printf("release post media %s: %v", post.MediaID, err)
		}
	}
	return nil
}

// GetPost returns a single post with denormalized owner summaries on the
// post and on each nested comment and like.
func (s *Service) GetPost(ctx context.Context, postID primitive.ObjectID) (*models.PostView, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	view, err := s.buildPostView(ctx, post)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListPosts returns every post, newest first.
func (s *Service) ListPosts(ctx context.Context) ([]models.PostView, error) {
	posts, err := s.store.Posts().ListAll(ctx)
	if err != nil {
		return nil, errs.Upstream("store", err)
	}
	return s.buildPostViews(ctx, posts)
}

// ListUserPosts returns the posts authored by userID, newest first.
func (s *Service) ListUserPosts(ctx context.Context, userID primitive.ObjectID) ([]models.PostView, error) {
	if _, err := s.store.Users().FindByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFoundMsg("User not found.")
		}
		return nil, errs.Upstream("store", err)
	}
	posts, err := s.store.Posts().ListByAuthor(ctx, userID)
	if err != nil {
		return nil, errs.Upstream("store", err)
	}
	return s.buildPostViews(ctx, posts)
}

// AddComment attaches a comment to an existing post, owned by the actor.
func (s *Service) AddComment(ctx context.Context, actor, postID primitive.ObjectID, content string) (*models.Comment, error) {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, errs.MissingFields("content")
	}

	comment := &models.Comment{
		PostID:    postID,
		UserID:    actor,
		Content:   content,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.Comments().Insert(ctx, comment); err != nil {
		return nil, errs.Upstream("store", err)
	}
	return comment, nil
}

// EditComment replaces a comment's content. Identical content fails with
// NoChange.
func (s *Service) EditComment(ctx context.Context, actor, postID, commentID primitive.ObjectID, content string) (*models.Comment, error) {
	comment, err := s.loadComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, authz.ActionEdit, "comment", comment); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, errs.MissingFields("content")
	}
	if content == comment.Content {
		return nil, errs.NoChange("comment")
	}

	updated := *comment
	updated.Content = content
	if err := s.store.Comments().Update(ctx, &updated); err != nil {
		return nil, errs.Upstream("store", err)
	}
	return &updated, nil
}

// DeleteComment removes a single comment; comments have no children, so no
// cascade is involved.
func (s *Service) DeleteComment(ctx context.Context, actor, postID, commentID primitive.ObjectID) error {
	comment, err := s.loadComment(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(actor, authz.ActionDelete, "comment", comment); err != nil {
		return err
	}
	if err := s.store.Comments().Delete(ctx, commentID); err != nil {
		return errs.Upstream("store", err)
	}
	return nil
}

// Like records the actor's endorsement of a post. At most one like per
// (user, post) pair: the duplicate check and insert run in one transaction,
// with the unique index as a backstop.
func (s *Service) Like(ctx context.Context, actor, postID primitive.ObjectID) (*models.Like, error) {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}

	like := &models.Like{
		PostID:    postID,
		UserID:    actor,
		CreatedAt: time.Now().Unix(),
	}
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Likes().FindByUserAndPost(ctx, actor, postID); err == nil {
			return errs.Conflict(errs.ReasonAlreadyLiked, "You already liked this post.")
		} else if !errors.Is(err, store.ErrNotFound) {
			return errs.Upstream("store", err)
		}
		if err := s.store.Likes().Insert(ctx, like); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return errs.Conflict(errs.ReasonAlreadyLiked, "You already liked this post.")
			}
			return errs.Upstream("store", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return like, nil
}

// Unlike removes a like by id; only its owner may do so.
func (s *Service) Unlike(ctx context.Context, actor, postID, likeID primitive.ObjectID) error {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return err
	}
	like, err := s.store.Likes().FindByID(ctx, likeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errs.NotFoundMsg("Like not found.")
		}
		return errs.Upstream("store", err)
	}
	if err := s.authz.Authorize(actor, authz.ActionDelete, "like", like); err != nil {
		return err
	}
	if err := s.store.Likes().Delete(ctx, likeID); err != nil {
		return errs.Upstream("store", err)
	}
	return nil
}

// ---- loading and view assembly ----

func (s *Service) loadPost(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFoundMsg("Post not found.")
		}
		return nil, errs.Upstream("store", err)
	}
	return post, nil
}

func (s *Service) loadComment(ctx context.Context, postID, commentID primitive.ObjectID) (*models.Comment, error) {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}
	comment, err := s.store.Comments().FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFoundMsg("Comment not found.")
		}
		return nil, errs.Upstream("store", err)
	}
	return comment, nil
}

func (s *Service) buildPostViews(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	for i := range posts {
		view, err := s.buildPostView(ctx, &posts[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) buildPostView(ctx context.Context, post *models.Post) (models.PostView, error) {
	view := models.PostView{
		ID:        post.ID,
		Content:   post.Content,
		Image:     post.Image,
		CreatedAt: post.CreatedAt,
		User:      s.ownerSummary(ctx, post.UserID),
		Comments:  []models.CommentView{},
		Likes:     []models.LikeView{},
	}

	comments, err := s.store.Comments().ListByPost(ctx, post.ID)
	if err != nil {
		return models.PostView{}, errs.Upstream("store", err)
	}
	for _, c := range comments {
		view.Comments = append(view.Comments, models.CommentView{
			ID:        c.ID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			User:      s.ownerSummary(ctx, c.UserID),
		})
	}

	likes, err := s.store.Likes().ListByPost(ctx, post.ID)
	if err != nil {
		return models.PostView{}, errs.Upstream("store", err)
	}
	for _, l := range likes {
		view.Likes = append(view.Likes, models.LikeView{
			ID:        l.ID,
			CreatedAt: l.CreatedAt,
			User:      s.ownerSummary(ctx, l.UserID),
		})
	}
	return view, nil
}

// ownerSummary resolves a user to its denormalized summary, falling back to
// an id-only summary when the owner record is gone.
func (s *Service) ownerSummary(ctx context.Context, userID primitive.ObjectID) models.UserSummary {
	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return models.UserSummary{ID: userID}
	}
	return u.Summary()
}
