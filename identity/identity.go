// Package identity covers registration, login, profile edits, blocking,
// profile images and account deletion. Hashing, signing and uploads are
// delegated to injected collaborators.
package identity

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/authz"
	"ripple/content"
	"ripple/errs"
	"ripple/media"
	"ripple/mailer"
	"ripple/models"
	"ripple/relationship"
	"ripple/store"
	"ripple/token"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type UserEdit struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type Service struct {
	store   store.Store
	authz   *authz.Engine
	rel     *relationship.Engine
	content *content.Service
	hasher  Hasher
	tokens  *token.Issuer
	media   media.Store
	mail    mailer.Sender
	logger  *log.Logger
}

func NewService(st store.Store, az *authz.Engine, rel *relationship.Engine, cs *content.Service,
	hasher Hasher, tokens *token.Issuer, md media.Store, mail mailer.Sender, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store: st, authz: az, rel: rel, content: cs,
		hasher: hasher, tokens: tokens, media: md, mail: mail, logger: logger,
	}
}

// Register creates an account. Username is checked before email, matching
// the documented conflict order; the store's unique indexes back both
// checks up. New accounts get the placeholder profile image.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, errs.MissingFields(missing...)
	}
	if !usernameRe.MatchString(username) {
		return nil, errs.Validation("The username contains invalid characters. Only alphanumeric characters and underscores are allowed.", "username")
	}
	if !strings.Contains(email, "@") {
		return nil, errs.Validation("Email invalid!", "email")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errs.Upstream("hasher", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		ProfileImage: media.PlaceholderImage,
		MediaID:      media.PlaceholderMediaID,
		CreatedAt:    time.Now().Unix(),
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Users().FindByUsername(ctx, username); err == nil {
			return errs.Conflict(errs.ReasonUsernameTaken, "The username is already taken. Please choose another one.")
		} else if !errors.Is(err, store.ErrNotFound) {
			return errs.Upstream("store", err)
		}
		if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
			return errs.Conflict(errs.ReasonEmailTaken, "The email is already in use. Please choose another one.")
		} else if !errors.Is(err, store.ErrNotFound) {
			return errs.Upstream("store", err)
		}
		if err := s.store.Users().Insert(ctx, user); err != nil {
			return errs.Upstream("store", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Fire and forget; registration does not depend on mail delivery.
	go func(to, name string) {
		if err := s.mail.Send(to, "Welcome!", "Hi "+name+", your account is ready."); err != nil {
			s.logger.Printf("welcome mail to %s: %v", to, err)
		}
	}(user.Email, user.Username)

	return user, nil
}

// Login verifies credentials and issues a 5-hour identity claim. Unknown
// username and wrong password stay distinct kinds for logging; the handler
// collapses both into one surface message.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	if username == "" || password == "" {
		return "", nil, errs.MissingFields("username", "password")
	}

	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, errs.NotFoundMsg("User not found.")
		}
		return "", nil, errs.Upstream("store", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", nil, errs.Unauthorized("Invalid credentials!")
	}
	if user.IsBlocked {
		return "", nil, errs.Forbidden("This account is blocked.")
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, errs.Upstream("token", err)
	}
	return signed, user, nil
}

// Get returns a user profile with follower/following summaries and the
// user's posts including nested comments and likes.
func (s *Service) Get(ctx context.Context, userID primitive.ObjectID) (*models.UserView, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	followers, err := s.rel.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.rel.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.content.ListUserPosts(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.UserView{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		ProfileImage: user.ProfileImage,
		IsBlocked:    user.IsBlocked,
		Followers:    followers,
		Following:    following,
		Posts:        posts,
	}, nil
}

// List pages through users ordered by username. Sort accepts "asc", "desc"
// or empty.
func (s *Service) List(ctx context.Context, opts store.ListOptions) ([]models.User, error) {
	if opts.Sort != "" && !strings.EqualFold(opts.Sort, "asc") && !strings.EqualFold(opts.Sort, "desc") {
		return nil, errs.Validation("Sort can only be 'asc' or 'desc'.", "sort")
	}
	users, err := s.store.Users().List(ctx, opts)
	if err != nil {
		return nil, errs.Upstream("store", err)
	}
	return users, nil
}

// Edit updates username, email and/or password for the actor's own account.
// A byte-identical result fails with NoChange.
func (s *Service) Edit(ctx context.Context, actor, userID primitive.ObjectID, edit UserEdit) (*models.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, authz.ActionEdit, "user", user); err != nil {
		return nil, err
	}
	if edit.Username == nil && edit.Email == nil && edit.Password == nil {
		return nil, errs.MissingFields("username, email or password")
	}

	updated := *user
	if edit.Username != nil {
		if !usernameRe.MatchString(*edit.Username) {
			return nil, errs.Validation("The username contains invalid characters. Only alphanumeric characters and underscores are allowed.", "username")
		}
		updated.Username = *edit.Username
	}
	if edit.Email != nil {
		if !strings.Contains(*edit.Email, "@") {
			return nil, errs.Validation("Email invalid!", "email")
		}
		updated.Email = *edit.Email
	}
	if edit.Password != nil {
		if *edit.Password == "" {
			return nil, errs.Validation("Password can't be empty.", "password")
		}
		if !s.hasher.Verify(*edit.Password, user.PasswordHash) {
			digest, err := s.hasher.Hash(*edit.Password)
			if err != nil {
				return nil, errs.Upstream("hasher", err)
			}
			updated.PasswordHash = digest
		}
	}
	if updated == *user {
		return nil, errs.NoChange("user")
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		if updated.Username != user.Username {
			if _, err := s.store.Users().FindByUsername(ctx, updated.Username); err == nil {
				return errs.Conflict(errs.ReasonUsernameTaken, "The username is already taken. Please choose another one.")
			} else if !errors.Is(err, store.ErrNotFound) {
				return errs.Upstream("store", err)
			}
		}
		if updated.Email != user.Email {
			if _, err := s.store.Users().FindByEmail(ctx, updated.Email); err == nil {
				return errs.Conflict(errs.ReasonEmailTaken, "The email is already in use. Please choose another one.")
			} else if !errors.Is(err, store.ErrNotFound) {
				return errs.Upstream("store", err)
			}
		}
		if err := s.store.Users().Update(ctx, &updated); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return errs.Conflict(errs.ReasonUsernameTaken, "The username or email is already in use.")
			}
			return errs.Upstream("store", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ToggleBlock flips isBlocked on the target account. Only actors with the
// admin capability may do this.
func (s *Service) ToggleBlock(ctx context.Context, actor, userID primitive.ObjectID) (bool, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	if err := s.authz.Authorize(actor, authz.ActionBlock, "user", user); err != nil {
		return false, err
	}

	updated := *user
	updated.IsBlocked = !user.IsBlocked
	if err := s.store.Users().Update(ctx, &updated); err != nil {
		return false, errs.Upstream("store", err)
	}
	return updated.IsBlocked, nil
}

// ChangeProfileImage uploads a new picture and releases the previous media
// unless it is the shared placeholder. Upload and release use different
// keys, so ordering does not affect correctness.
func (s *Service) ChangeProfileImage(ctx context.Context, actor, userID primitive.ObjectID, image content.Image) (*models.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, authz.ActionEdit, "user", user); err != nil {
		return nil, err
	}

	up, err := s.media.Upload(ctx, image.Data, image.MimeType)
	if err != nil {
		return nil, errs.Upstream("media", err)
	}

	oldMediaID := user.MediaID
	updated := *user
	updated.ProfileImage = up.URL
	updated.MediaID = up.MediaID
	if err := s.store.Users().Update(ctx, &updated); err != nil {
		return nil, errs.Upstream("store", err)
	}

	if oldMediaID != "" && oldMediaID != media.PlaceholderMediaID {
		if err := s.media.Delete(ctx, oldMediaID); err != nil {
			s.logger.Printf("release profile media %s: %v", oldMediaID, err)
		}
	}
	return &updated, nil
}

// Delete removes the actor's own account with the full transactional
// cascade: posts (and their comments/likes), the user's comments and likes
// elsewhere, and every follow edge touching the user.
func (s *Service) Delete(ctx context.Context, actor, userID primitive.ObjectID) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(actor, authz.ActionDelete, "user", user); err != nil {
		return err
	}

	// Capture media keys before the cascade removes the records that hold
	// them.
	var mediaIDs []string
	if user.MediaID != "" && user.MediaID != media.PlaceholderMediaID {
		mediaIDs = append(mediaIDs, user.MediaID)
	}
	posts, err := s.store.Posts().ListByAuthor(ctx, userID)
	if err != nil {
		return errs.Upstream("store", err)
	}
	for _, p := range posts {
		if p.MediaID != "" {
			mediaIDs = append(mediaIDs, p.MediaID)
		}
	}

	if err := s.rel.DeleteUserCascade(ctx, userID); err != nil {
		return err
	}

	for _, id := range mediaIDs {
		if err := s.media.Delete(ctx, id); err != nil {
			s.logger.Printf("release media %s: %v", id, err)
		}
	}
	return nil
}

// Find returns the bare user record, without the denormalized view.
func (s *Service) Find(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.load(ctx, userID)
}

func (s *Service) load(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFoundMsg("User not found.")
		}
		return nil, errs.Upstream("store", err)
	}
	return user, nil
}
