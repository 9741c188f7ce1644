// Package policy decides who may do what to which resource.
//
// Decisions are made by a casbin enforcer over the tuple
// (role, resource, action, scope), where scope is "own" when the actor
// authored the object and "other" otherwise. Roles inherit downwards:
// admin > moderator > user > anonymous.
package policy

import (
	"fmt"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/pkg/apperror"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const (
	ResourceCategory = "category"
	ResourceGenre    = "genre"
	ResourceTitle    = "title"
	ResourceReview   = "review"
	ResourceComment  = "comment"
	ResourceUser     = "user"
	ResourceSelf     = "self"

	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	RoleAnonymous = "anonymous"

	scopeAny   = "any"
	scopeOwn   = "own"
	scopeOther = "other"
)

const modelText = `
[request_definition]
r = sub, obj, act, scope

[policy_definition]
p = sub, obj, act, scope

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act) && (p.scope == "any" || r.scope == p.scope)
`

var defaultPolicies = [][]string{
	{RoleAnonymous, ResourceCategory, ActionRead, scopeAny},
	{RoleAnonymous, ResourceGenre, ActionRead, scopeAny},
	{RoleAnonymous, ResourceTitle, ActionRead, scopeAny},
	{RoleAnonymous, ResourceReview, ActionRead, scopeAny},
	{RoleAnonymous, ResourceComment, ActionRead, scopeAny},

	{entity.RoleUser, ResourceReview, ActionCreate, scopeAny},
	{entity.RoleUser, ResourceReview, ActionUpdate, scopeOwn},
	{entity.RoleUser, ResourceReview, ActionDelete, scopeOwn},
	{entity.RoleUser, ResourceComment, ActionCreate, scopeAny},
	{entity.RoleUser, ResourceComment, ActionUpdate, scopeOwn},
	{entity.RoleUser, ResourceComment, ActionDelete, scopeOwn},
	{entity.RoleUser, ResourceSelf, ActionRead, scopeOwn},
	{entity.RoleUser, ResourceSelf, ActionUpdate, scopeOwn},

	{entity.RoleModerator, ResourceReview, ActionUpdate, scopeAny},
	{entity.RoleModerator, ResourceReview, ActionDelete, scopeAny},
	{entity.RoleModerator, ResourceComment, ActionUpdate, scopeAny},
	{entity.RoleModerator, ResourceComment, ActionDelete, scopeAny},

	{entity.RoleAdmin, "*", "*", scopeAny},
}

var roleHierarchy = [][]string{
	{entity.RoleUser, RoleAnonymous},
	{entity.RoleModerator, entity.RoleUser},
	{entity.RoleAdmin, entity.RoleModerator},
}

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

func New() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	if _, err := e.AddGroupingPolicies(roleHierarchy); err != nil {
		return nil, fmt.Errorf("failed to load role hierarchy: %w", err)
	}

	return &Enforcer{enforcer: e}, nil
}

// Authorize returns nil when actor may perform action on resource. ownerID is
// the author of the object, nil for collections or orphaned objects. A nil
// actor is anonymous; anonymous denials are ErrUnauthorized, the rest
// ErrForbidden.
func (p *Enforcer) Authorize(actor *entity.User, resource, action string, ownerID *uint) error {
	role := RoleAnonymous
	scope := scopeOther
	if actor != nil {
		role = actor.EffectiveRole()
		if ownerID != nil && *ownerID == actor.ID {
			scope = scopeOwn
		}
	}

	allowed, err := p.enforcer.Enforce(role, resource, action, scope)
	if err != nil {
		return fmt.Errorf("authorize %s %s: %w", action, resource, err)
	}
	if allowed {
		return nil
	}

	if actor == nil {
		return apperror.ErrUnauthorized
	}
	return fmt.Errorf("%w: %s cannot %s this %s", apperror.ErrForbidden, role, action, resource)
}
