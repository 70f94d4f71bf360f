package relationship

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/errs"
	"ripple/models"
	"ripple/store/memstore"
)

func setupEngine(t *testing.T) (*Engine, *memstore.Memstore) {
	t.Helper()
	st := memstore.New()
	return NewEngine(st), st
}

func seedUser(t *testing.T, st *memstore.Memstore, username string) primitive.ObjectID {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", CreatedAt: time.Now().Unix()}
	if err := st.Users().Insert(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u.ID
}

func TestFollowAndUnfollow(t *testing.T) {
	engine, st := setupEngine(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	edge, err := engine.Follow(ctx, alice, bob)
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	if edge.FollowerID != alice || edge.FollowingID != bob {
		t.Errorf("edge endpoints wrong: %+v", edge)
	}

	has, err := engine.HasEdge(ctx, alice, bob)
	if err != nil || !has {
		t.Errorf("expected edge alice->bob, has=%v err=%v", has, err)
	}
	if has, _ := engine.HasEdge(ctx, bob, alice); has {
		t.Error("follow must be directed, found reverse edge")
	}

	if err := engine.Unfollow(ctx, alice, bob); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if has, _ := engine.HasEdge(ctx, alice, bob); has {
		t.Error("edge still present after unfollow")
	}
}

func TestFollowSelfReference(t *testing.T) {
	engine, st := setupEngine(t)
	alice := seedUser(t, st, "alice")

	_, err := engine.Follow(context.Background(), alice, alice)
	if errs.KindOf(err) != errs.KindInvalidState || errs.ReasonOf(err) != errs.ReasonSelfReference {
		t.Errorf("expected self-reference invalid state, got %v", err)
	}
}

func TestFollowDuplicate(t *testing.T) {
	engine, st := setupEngine(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	if _, err := engine.Follow(ctx, alice, bob); err != nil {
		t.Fatalf("first follow: %v", err)
	}
	_, err := engine.Follow(ctx, alice, bob)
	if errs.KindOf(err) != errs.KindInvalidState || errs.ReasonOf(err) != errs.ReasonAlreadyFollowing {
		t.Errorf("expected already-following invalid state, got %v", err)
	}
}

func TestUnfollowWithoutEdge(t *testing.T) {
	engine, st := setupEngine(t)
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	err := engine.Unfollow(context.Background(), alice, bob)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFollowersAndFollowingSnapshots(t *testing.T) {
	engine, st := setupEngine(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	carol := seedUser(t, st, "carol")

	engine.Follow(ctx, bob, alice)
	engine.Follow(ctx, carol, alice)
	engine.Follow(ctx, alice, bob)

	followers, err := engine.Followers(ctx, alice)
	if err != nil {
		t.Fatalf("followers: %v", err)
	}
	if len(followers) != 2 {
		t.Errorf("expected 2 followers of alice, got %d", len(followers))
	}
	for _, f := range followers {
		if f.Username == "" {
			t.Error("follower summary missing username")
		}
	}

	following, err := engine.Following(ctx, alice)
	if err != nil {
		t.Fatalf("following: %v", err)
	}
	if len(following) != 1 || following[0].Username != "bob" {
		t.Errorf("expected alice following only bob, got %+v", following)
	}
}

func TestDeletePostCascade(t *testing.T) {
	engine, st := setupEngine(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	post := &models.Post{UserID: alice, Content: "hello"}
	st.Posts().Insert(ctx, post)
	st.Comments().Insert(ctx, &models.Comment{PostID: post.ID, UserID: bob, Content: "hi"})
	st.Likes().Insert(ctx, &models.Like{PostID: post.ID, UserID: bob})

	if err := engine.DeletePostCascade(ctx, post.ID); err != nil {
		t.Fatalf("delete post cascade: %v", err)
	}

	comments, _ := st.Comments().ListByPost(ctx, post.ID)
	likes, _ := st.Likes().ListByPost(ctx, post.ID)
	if len(comments) != 0 || len(likes) != 0 {
		t.Errorf("cascade left children: %d comments, %d likes", len(comments), len(likes))
	}
	if _, err := st.Posts().FindByID(ctx, post.ID); err == nil {
		t.Error("post still present after cascade")
	}
}

func TestDeleteUserCascade(t *testing.T) {
	engine, st := setupEngine(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	post := &models.Post{UserID: alice, Content: "alice post"}
	st.Posts().Insert(ctx, post)
	st.Comments().Insert(ctx, &models.Comment{PostID: post.ID, UserID: bob, Content: "bob comment"})
	st.Likes().Insert(ctx, &models.Like{PostID: post.ID, UserID: bob})

	bobPost := &models.Post{UserID: bob, Content: "bob post"}
	st.Posts().Insert(ctx, bobPost)
	st.Comments().Insert(ctx, &models.Comment{PostID: bobPost.ID, UserID: alice, Content: "alice elsewhere"})
	st.Likes().Insert(ctx, &models.Like{PostID: bobPost.ID, UserID: alice})

	engine.Follow(ctx, alice, bob)
	engine.Follow(ctx, bob, alice)

	if err := engine.DeleteUserCascade(ctx, alice); err != nil {
		t.Fatalf("delete user cascade: %v", err)
	}

	if _, err := st.Users().FindByID(ctx, alice); err == nil {
		t.Error("alice still present")
	}
	if posts, _ := st.Posts().ListByAuthor(ctx, alice); len(posts) != 0 {
		t.Errorf("alice posts remain: %d", len(posts))
	}
	// Children of alice's post are gone with it.
	if comments, _ := st.Comments().ListByPost(ctx, post.ID); len(comments) != 0 {
		t.Error("comments on alice's post survived the cascade")
	}
	// Alice's activity on other posts is gone too.
	if comments, _ := st.Comments().ListByPost(ctx, bobPost.ID); len(comments) != 0 {
		t.Error("alice's comment on bob's post survived")
	}
	if likes, _ := st.Likes().ListByPost(ctx, bobPost.ID); len(likes) != 0 {
		t.Error("alice's like on bob's post survived")
	}
	// Both directions of the follow relation are cleared.
	if has, _ := engine.HasEdge(ctx, alice, bob); has {
		t.Error("alice->bob edge survived")
	}
	if has, _ := engine.HasEdge(ctx, bob, alice); has {
		t.Error("bob->alice edge survived")
	}
	// Bob's own content is untouched.
	if _, err := st.Users().FindByID(ctx, bob); err != nil {
		t.Error("bob was deleted by alice's cascade")
	}
	if _, err := st.Posts().FindByID(ctx, bobPost.ID); err != nil {
		t.Error("bob's post was deleted by alice's cascade")
	}
}
