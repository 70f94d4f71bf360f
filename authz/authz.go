// Package authz decides, for an actor and a target entity, whether an
// action is permitted. Absence of the entity is the caller's NotFound, not
// a deny: services load first, authorize second.
package authz

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/errs"
)

type Action string

const (
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionBlock  Action = "block"
)

// Owned is any entity with a canonical owner: User (itself), Post, Comment
// and Like all implement it.
type Owned interface {
	OwnerID() primitive.ObjectID
}

// Engine holds the only role distinction the system has: owners versus
// everyone else, plus the admin capability gating block/unblock.
type Engine struct {
	admins map[primitive.ObjectID]bool
}

func NewEngine(adminIDs []primitive.ObjectID) *Engine {
	admins := make(map[primitive.ObjectID]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Engine{admins: admins}
}

// Authorize returns nil when actor may perform action on entity, or a
// Forbidden error naming the entity kind otherwise. A nil entity means the
// caller skipped the existence check; that is reported as NotFound to keep
// the precedence order intact.
func (e *Engine) Authorize(actor primitive.ObjectID, action Action, entityKind string, entity Owned) error {
	if entity == nil {
		return errs.NotFoundMsg(entityKind + " not found.")
	}
	switch action {
	case ActionBlock:
		if !e.admins[actor] {
			return errs.Forbidden("You don't have permission to block or unblock users.")
		}
		return nil
	case ActionEdit, ActionDelete:
		if entity.OwnerID() != actor {
			return errs.Forbidden("You don't have permission to " + string(action) + " this " + entityKind + ".")
		}
		return nil
	default:
		return errs.Forbidden("Unknown action.")
	}
}

// IsAdmin reports whether actor carries the admin capability.
func (e *Engine) IsAdmin(actor primitive.ObjectID) bool { return e.admins[actor] }
