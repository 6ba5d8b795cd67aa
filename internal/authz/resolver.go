package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/pkg/xcache"
)

// MembershipSource supplies the ownership edge and the membership roster.
// The store's project store satisfies it.
type MembershipSource interface {
	OwnerID(ctx context.Context, projectID int) (int, error)
	IsMember(ctx context.Context, projectID, userID int) (bool, error)
	VisibleProjectIDs(ctx context.Context, userID int) ([]int, error)
}

const defaultRelationshipTTL = 5 * time.Minute

// Resolver derives the relationship of a user to a project from the
// ownership edge and the roster. Results are cached per (user, project)
// pair and tagged so roster changes can drop every affected entry.
type Resolver struct {
	source MembershipSource
	cache  xcache.Cache[Relationship]
	ttl    time.Duration
	group  singleflight.Group
}

// NewResolver creates a resolver backed by the given source and cache.
// ttl bounds how long a cached relationship survives without invalidation.
func NewResolver(source MembershipSource, cache xcache.Cache[Relationship], ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = defaultRelationshipTTL
	}

	return &Resolver{source: source, cache: cache, ttl: ttl}
}

func relationshipKey(userID, projectID int) string {
	return fmt.Sprintf("authz:rel:%d:%d", userID, projectID)
}

func projectTag(projectID int) string {
	return fmt.Sprintf("authz:project:%d", projectID)
}

func userTag(userID int) string {
	return fmt.Sprintf("authz:user:%d", userID)
}

// Relationship resolves the relationship of the user to the project.
// Concurrent lookups for the same pair are collapsed into one source query.
func (r *Resolver) Relationship(ctx context.Context, userID, projectID int) (Relationship, error) {
	key := relationshipKey(userID, projectID)

	if rel, err := r.cache.Get(ctx, key); err == nil {
		return rel, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		rel, err := r.lookup(ctx, userID, projectID)
		if err != nil {
			return RelationshipNone, err
		}

		if err := r.cache.Set(ctx, key, rel,
			xcache.WithExpiration(r.ttl),
			xcache.WithTags([]string{projectTag(projectID), userTag(userID)}),
		); err != nil && !errors.Is(err, xcache.ErrCacheNotConfigured) {
			log.Warn(ctx, "authz: failed to cache relationship",
				log.Int("user_id", userID),
				log.Int("project_id", projectID),
				log.Cause(err),
			)
		}

		return rel, nil
	})
	if err != nil {
		return RelationshipNone, err
	}

	return v.(Relationship), nil
}

func (r *Resolver) lookup(ctx context.Context, userID, projectID int) (Relationship, error) {
	ownerID, err := r.source.OwnerID(ctx, projectID)
	if err != nil {
		return RelationshipNone, fmt.Errorf("authz: resolve owner of project %d: %w", projectID, err)
	}

	// Ownership wins when a user is both owner and roster member.
	if ownerID == userID {
		return RelationshipOwner, nil
	}

	isMember, err := r.source.IsMember(ctx, projectID, userID)
	if err != nil {
		return RelationshipNone, fmt.Errorf("authz: resolve membership in project %d: %w", projectID, err)
	}

	if isMember {
		return RelationshipMember, nil
	}

	return RelationshipNone, nil
}

// VisibleProjectIDs returns the IDs of every project the user owns or is a
// member of. The list is read straight from the source so roster changes
// are respected by the next request.
func (r *Resolver) VisibleProjectIDs(ctx context.Context, userID int) ([]int, error) {
	return r.source.VisibleProjectIDs(ctx, userID)
}

// InvalidateProject drops every cached relationship that involves the
// project. Call after roster changes, ownership transfer or deletion.
func (r *Resolver) InvalidateProject(ctx context.Context, projectID int) {
	r.invalidate(ctx, projectTag(projectID))
}

// InvalidateUser drops every cached relationship that involves the user.
// Call after user deactivation or deletion.
func (r *Resolver) InvalidateUser(ctx context.Context, userID int) {
	r.invalidate(ctx, userTag(userID))
}

func (r *Resolver) invalidate(ctx context.Context, tag string) {
	err := r.cache.Invalidate(ctx, xcache.WithInvalidateTags([]string{tag}))
	if err != nil && !errors.Is(err, xcache.ErrCacheNotConfigured) {
		log.Warn(ctx, "authz: failed to invalidate relationships", log.String("tag", tag), log.Cause(err))
	}
}
