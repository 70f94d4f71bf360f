package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"ripple/authz"
	"ripple/content"
	"ripple/errs"
	"ripple/media"
	"ripple/models"
	"ripple/relationship"
	"ripple/store"
	"ripple/store/memstore"
	"ripple/token"
)

type fakeMedia struct {
	uploads int
	deleted []string
}

func (f *fakeMedia) Upload(ctx context.Context, data []byte, mimeType string) (media.Upload, error) {
	f.uploads++
	id := fmt.Sprintf("media-%d", f.uploads)
	return media.Upload{URL: "https://cdn.example.com/" + id, MediaID: id}, nil
}

func (f *fakeMedia) Delete(ctx context.Context, mediaID string) error {
	f.deleted = append(f.deleted, mediaID)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return nil
}

type fixture struct {
	svc    *Service
	store  *memstore.Memstore
	issuer *token.Issuer
	media  *fakeMedia
	mail   *fakeMailer
	authz  *authz.Engine
}

func setup(t *testing.T, adminIDs ...primitive.ObjectID) *fixture {
	t.Helper()
	st := memstore.New()
	az := authz.NewEngine(adminIDs)
	rel := relationship.NewEngine(st)
	md := &fakeMedia{}
	mail := &fakeMailer{}
	issuer := token.NewIssuer("test-secret", token.DefaultTTL)
	cs := content.NewService(st, az, rel, md, nil)
	svc := NewService(st, az, rel, cs, BcryptHasher{Cost: bcrypt.MinCost}, issuer, md, mail, nil)
	return &fixture{svc: svc, store: st, issuer: issuer, media: md, mail: mail, authz: az}
}

func register(t *testing.T, f *fixture, username string) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), username, username+"@example.com", "secret123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestRegisterThenLogin(t *testing.T) {
	f := setup(t)
	user := register(t, f, "alice")

	if user.PasswordHash == "secret123" || user.PasswordHash == "" {
		t.Fatal("password stored without hashing")
	}
	if user.ProfileImage != media.PlaceholderImage {
		t.Errorf("placeholder image not assigned: %q", user.ProfileImage)
	}

	signed, loggedIn, err := f.svc.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login returned wrong user")
	}
	subject, err := f.issuer.Verify(signed)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if subject != user.ID {
		t.Errorf("token subject %s does not resolve to registered user %s", subject.Hex(), user.ID.Hex())
	}
}

func TestRegisterValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, "", "a@example.com", "pw"); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("expected validation for missing username, got %v", err)
	}
	if _, err := f.svc.Register(ctx, "bad name!", "a@example.com", "pw"); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("expected validation for invalid username characters, got %v", err)
	}
	if _, err := f.svc.Register(ctx, "alice", "not-an-email", "pw"); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("expected validation for invalid email, got %v", err)
	}
}

func TestRegisterConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	register(t, f, "alice")

	_, err := f.svc.Register(ctx, "alice", "other@example.com", "pw123")
	if errs.KindOf(err) != errs.KindConflict || errs.ReasonOf(err) != errs.ReasonUsernameTaken {
		t.Errorf("expected username conflict, got %v", err)
	}

	_, err = f.svc.Register(ctx, "alice2", "alice@example.com", "pw123")
	if errs.KindOf(err) != errs.KindConflict || errs.ReasonOf(err) != errs.ReasonEmailTaken {
		t.Errorf("expected email conflict, got %v", err)
	}

	// Username collision wins when both collide.
	_, err = f.svc.Register(ctx, "alice", "alice@example.com", "pw123")
	if errs.ReasonOf(err) != errs.ReasonUsernameTaken {
		t.Errorf("expected username checked first, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	register(t, f, "alice")

	// Distinct kinds internally; the handler collapses them for callers.
	if _, _, err := f.svc.Login(ctx, "nobody", "pw"); errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("expected not found for unknown username, got %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "alice", "wrong"); errs.KindOf(err) != errs.KindUnauthorized {
		t.Errorf("expected unauthorized for wrong password, got %v", err)
	}
}

func TestBlockedUserCannotLogin(t *testing.T) {
	admin := primitive.NewObjectID()
	f := setup(t, admin)
	ctx := context.Background()
	user := register(t, f, "alice")

	blocked, err := f.svc.ToggleBlock(ctx, admin, user.ID)
	if err != nil || !blocked {
		t.Fatalf("block: blocked=%v err=%v", blocked, err)
	}
	if _, _, err := f.svc.Login(ctx, "alice", "secret123"); errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("expected forbidden login for blocked user, got %v", err)
	}

	blocked, err = f.svc.ToggleBlock(ctx, admin, user.ID)
	if err != nil || blocked {
		t.Fatalf("unblock: blocked=%v err=%v", blocked, err)
	}
	if _, _, err := f.svc.Login(ctx, "alice", "secret123"); err != nil {
		t.Errorf("unblocked user cannot log in: %v", err)
	}
}

func TestToggleBlockRequiresAdmin(t *testing.T) {
	f := setup(t)
	user := register(t, f, "alice")
	other := register(t, f, "bob")

	_, err := f.svc.ToggleBlock(context.Background(), other.ID, user.ID)
	if errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("expected forbidden for non-admin block, got %v", err)
	}
}

func TestEditUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := register(t, f, "alice")
	bob := register(t, f, "bob")

	// Empty body.
	if _, err := f.svc.Edit(ctx, alice.ID, alice.ID, UserEdit{}); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("expected validation for empty edit, got %v", err)
	}

	// Identical values produce NoChange.
	same := "alice"
	if _, err := f.svc.Edit(ctx, alice.ID, alice.ID, UserEdit{Username: &same}); errs.KindOf(err) != errs.KindNoChange {
		t.Errorf("expected no-change, got %v", err)
	}

	// Only the owner edits.
	newName := "alice_2"
	if _, err := f.svc.Edit(ctx, bob.ID, alice.ID, UserEdit{Username: &newName}); errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("expected forbidden for foreign edit, got %v", err)
	}

	// Taken username conflicts.
	taken := "bob"
	if _, err := f.svc.Edit(ctx, alice.ID, alice.ID, UserEdit{Username: &taken}); errs.KindOf(err) != errs.KindConflict {
		t.Errorf("expected conflict for taken username, got %v", err)
	}

	// Password change is re-hashed and usable.
	newPw := "newsecret"
	updated, err := f.svc.Edit(ctx, alice.ID, alice.ID, UserEdit{Username: &newName, Password: &newPw})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Username != "alice_2" {
		t.Errorf("username not updated: %q", updated.Username)
	}
	if updated.PasswordHash == alice.PasswordHash {
		t.Error("password digest unchanged after password edit")
	}
	if _, _, err := f.svc.Login(ctx, "alice_2", "newsecret"); err != nil {
		t.Errorf("login with new credentials: %v", err)
	}
}

func TestChangeProfileImageReleasesOldMedia(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := register(t, f, "alice")
	bob := register(t, f, "bob")

	img := content.Image{Data: []byte{1}, MimeType: "image/png"}

	if _, err := f.svc.ChangeProfileImage(ctx, bob.ID, alice.ID, img); errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("expected forbidden for foreign image change, got %v", err)
	}

	first, err := f.svc.ChangeProfileImage(ctx, alice.ID, alice.ID, img)
	if err != nil {
		t.Fatalf("first image change: %v", err)
	}
	// The placeholder is shared and must never be released.
	if len(f.media.deleted) != 0 {
		t.Errorf("placeholder media was released: %v", f.media.deleted)
	}

	second, err := f.svc.ChangeProfileImage(ctx, alice.ID, alice.ID, img)
	if err != nil {
		t.Fatalf("second image change: %v", err)
	}
	if len(f.media.deleted) != 1 || f.media.deleted[0] != first.MediaID {
		t.Errorf("old media not released: %v", f.media.deleted)
	}
	if second.MediaID == first.MediaID {
		t.Error("media id not replaced")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := register(t, f, "alice")
	bob := register(t, f, "bob")

	img := content.Image{Data: []byte{1}, MimeType: "image/png"}
	updated, err := f.svc.ChangeProfileImage(ctx, alice.ID, alice.ID, img)
	if err != nil {
		t.Fatalf("change profile image: %v", err)
	}
	f.store.Posts().Insert(ctx, &models.Post{UserID: alice.ID, Content: "hello", MediaID: "post-media"})

	if err := f.svc.Delete(ctx, bob.ID, alice.ID); errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("expected forbidden deleting another account, got %v", err)
	}
	if err := f.svc.Delete(ctx, alice.ID, alice.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := f.svc.Find(ctx, alice.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("account still resolvable after delete: %v", err)
	}

	released := map[string]bool{}
	for _, id := range f.media.deleted {
		released[id] = true
	}
	if !released[updated.MediaID] || !released["post-media"] {
		t.Errorf("media not released on account delete: %v", f.media.deleted)
	}
}

func TestListUsers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	register(t, f, "carol")
	register(t, f, "alice")
	register(t, f, "bob")

	users, err := f.svc.List(ctx, listOpts("asc", 0, 0))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 3 || users[0].Username != "alice" || users[2].Username != "carol" {
		t.Errorf("ascending order wrong: %v", usernames(users))
	}

	users, err = f.svc.List(ctx, listOpts("desc", 1, 2))
	if err != nil {
		t.Fatalf("list desc: %v", err)
	}
	if len(users) != 2 || users[0].Username != "carol" {
		t.Errorf("descending page wrong: %v", usernames(users))
	}

	if _, err := f.svc.List(ctx, listOpts("sideways", 0, 0)); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("expected validation for bad sort, got %v", err)
	}
}

func TestUserViewIncludesGraphAndPosts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := register(t, f, "alice")
	bob := register(t, f, "bob")

	rel := relationship.NewEngine(f.store)
	if _, err := rel.Follow(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	f.store.Posts().Insert(ctx, &models.Post{UserID: alice.ID, Content: "hello"})

	view, err := f.svc.Get(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Followers) != 1 || view.Followers[0].Username != "bob" {
		t.Errorf("followers wrong: %+v", view.Followers)
	}
	if len(view.Posts) != 1 || view.Posts[0].Content != "hello" {
		t.Errorf("posts wrong: %+v", view.Posts)
	}
}

func listOpts(sort string, page, limit int) store.ListOptions {
	return store.ListOptions{Sort: sort, Page: page, Limit: limit}
}

func usernames(users []models.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names
}
