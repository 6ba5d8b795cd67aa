package biz

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/objects"
	"github.com/bk-med/kanban/internal/pkg/xcache"
	"github.com/bk-med/kanban/internal/store"
)

type UserServiceParams struct {
	fx.In

	CacheConfig xcache.Config
	Store       *store.Store
	Engine      *authz.Engine
}

type UserService struct {
	*AbstractService

	UserCache xcache.Cache[store.User]
}

func NewUserService(params UserServiceParams) *UserService {
	return &UserService{
		AbstractService: &AbstractService{
			store:  params.Store,
			engine: params.Engine,
		},
		UserCache: xcache.NewFromConfig[store.User](params.CacheConfig),
	}
}

// GetUserByID gets a user by ID with caching. The token middleware calls it
// on every authenticated request.
func (s *UserService) GetUserByID(ctx context.Context, id int) (*store.User, error) {
	cacheKey := buildUserCacheKey(id)
	if user, err := s.UserCache.Get(ctx, cacheKey); err == nil {
		return &user, nil
	}

	user, err := s.store.Users.Get(ctx, id)
	if err != nil {
		if store.NotFound(err) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.UserCache.Set(ctx, cacheKey, *user); err != nil {
		log.Warn(ctx, "failed to cache user", log.Cause(err))
	}

	return user, nil
}

// ListUsers returns every account. Superauthority only.
func (s *UserService) ListUsers(ctx context.Context) ([]*store.User, error) {
	if err := requireSuperauthority(ctx); err != nil {
		return nil, err
	}

	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsAdmin   bool
	IsActive  *bool
}

func (in CreateUserInput) Validate() error {
	var f fieldErrors
	validateUsername(&f, in.Username)
	validateEmail(&f, in.Email)
	validatePassword(&f, in.Password)

	return f.Err()
}

// CreateUser creates an account with chosen flags. Superauthority only.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*store.User, error) {
	if err := requireSuperauthority(ctx); err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &store.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  hashedPassword,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		IsAdmin:   input.IsAdmin,
		IsActive:  lo.FromPtrOr(input.IsActive, true),
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if store.IsDuplicate(err) {
			return nil, fmt.Errorf("username %q is taken: %w", input.Username, ErrDuplicate)
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

type UpdateUserInput struct {
	Username  *string
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	IsAdmin   *bool
	IsActive  *bool
}

func (in UpdateUserInput) Validate() error {
	var f fieldErrors
	if in.Username != nil {
		validateUsername(&f, *in.Username)
	}

	if in.Email != nil {
		validateEmail(&f, *in.Email)
	}

	if in.Password != nil {
		validatePassword(&f, *in.Password)
	}

	return f.Err()
}

// UpdateUser updates an existing account. Superauthority only.
func (s *UserService) UpdateUser(ctx context.Context, id int, input UpdateUserInput) (*store.User, error) {
	if err := requireSuperauthority(ctx); err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.store.Users.Get(ctx, id)
	if err != nil {
		if store.NotFound(err) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if input.Username != nil {
		user.Username = *input.Username
	}

	if input.Email != nil {
		user.Email = *input.Email
	}

	if input.Password != nil {
		hashedPassword, err := HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}

		user.Password = hashedPassword
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}

	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.store.Users.Update(ctx, user); err != nil {
		if store.IsDuplicate(err) {
			return nil, fmt.Errorf("username %q is taken: %w", user.Username, ErrDuplicate)
		}

		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.invalidateUserCache(ctx, id)

	return user, nil
}

// DeleteUser removes an account. Projects the user owns are deleted by the
// ownership cascade, so cached relationships touching them are dropped too.
// Superauthority only.
func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	if err := requireSuperauthority(ctx); err != nil {
		return err
	}

	reachable, err := s.store.Projects.VisibleProjectIDs(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list user projects: %w", err)
	}

	if err := s.store.Users.Delete(ctx, id); err != nil {
		if store.NotFound(err) {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}

		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.invalidateUserCache(ctx, id)
	s.engine.Resolver().InvalidateUser(ctx, id)

	for _, projectID := range reachable {
		s.engine.Resolver().InvalidateProject(ctx, projectID)
	}

	log.Info(ctx, "user deleted", log.Int("user_id", id))

	return nil
}

func buildUserCacheKey(id int) string {
	return fmt.Sprintf("user:%d", id)
}

// invalidateUserCache removes a user from cache.
func (s *UserService) invalidateUserCache(ctx context.Context, id int) {
	cacheKey := buildUserCacheKey(id)
	_ = s.UserCache.Delete(ctx, cacheKey)
}

// ConvertUserToUserInfo converts a store user to its public API shape.
// It panics if the provided user is nil.
func ConvertUserToUserInfo(u *store.User) *objects.UserInfo {
	return &objects.UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}
