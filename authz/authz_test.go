package authz

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/errs"
	"ripple/models"
)

func TestOwnerMayEditAndDelete(t *testing.T) {
	engine := NewEngine(nil)
	owner := primitive.NewObjectID()
	post := &models.Post{ID: primitive.NewObjectID(), UserID: owner}

	if err := engine.Authorize(owner, ActionEdit, "post", post); err != nil {
		t.Errorf("owner edit denied: %v", err)
	}
	if err := engine.Authorize(owner, ActionDelete, "post", post); err != nil {
		t.Errorf("owner delete denied: %v", err)
	}
}

func TestNonOwnerIsForbidden(t *testing.T) {
	engine := NewEngine(nil)
	post := &models.Post{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}
	stranger := primitive.NewObjectID()

	for _, action := range []Action{ActionEdit, ActionDelete} {
		err := engine.Authorize(stranger, action, "post", post)
		if errs.KindOf(err) != errs.KindForbidden {
			t.Errorf("action %s: expected forbidden, got %v", action, err)
		}
	}
}

func TestMissingEntityIsNotFoundNotDeny(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.Authorize(primitive.NewObjectID(), ActionEdit, "post", nil)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("expected not found for absent entity, got %v", err)
	}
}

func TestBlockRequiresAdminCapability(t *testing.T) {
	admin := primitive.NewObjectID()
	engine := NewEngine([]primitive.ObjectID{admin})
	target := &models.User{ID: primitive.NewObjectID()}

	if err := engine.Authorize(admin, ActionBlock, "user", target); err != nil {
		t.Errorf("admin block denied: %v", err)
	}
	err := engine.Authorize(primitive.NewObjectID(), ActionBlock, "user", target)
	if errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("expected forbidden for non-admin block, got %v", err)
	}
	// Even the target cannot block themselves without the capability.
	err = engine.Authorize(target.ID, ActionBlock, "user", target)
	if errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("expected forbidden for self block, got %v", err)
	}
}

func TestUserOwnsItself(t *testing.T) {
	engine := NewEngine(nil)
	user := &models.User{ID: primitive.NewObjectID()}

	if err := engine.Authorize(user.ID, ActionEdit, "user", user); err != nil {
		t.Errorf("user edit of own record denied: %v", err)
	}
	err := engine.Authorize(primitive.NewObjectID(), ActionEdit, "user", user)
	if errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("expected forbidden editing someone else's record, got %v", err)
	}
}
