package biz

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/pkg/xtime"
	"github.com/bk-med/kanban/internal/store"
)

type ProjectServiceParams struct {
	fx.In

	Store  *store.Store
	Engine *authz.Engine
}

type ProjectService struct {
	*AbstractService
}

func NewProjectService(params ProjectServiceParams) *ProjectService {
	return &ProjectService{
		AbstractService: &AbstractService{
			store:  params.Store,
			engine: params.Engine,
		},
	}
}

// ProjectDetail pairs a project with its expanded owner and roster, the
// shape the API returns.
type ProjectDetail struct {
	Project *store.Project
	Owner   *store.User
	Members []*store.User
}

type CreateProjectInput struct {
	Name        string
	Description string
}

func (in CreateProjectInput) Validate() error {
	var f fieldErrors
	if strings.TrimSpace(in.Name) == "" {
		f.Add("name", "is required")
	}

	return f.Err()
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// CreateProject creates a project owned by the calling user.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*ProjectDetail, error) {
	principal, ok := authz.GetPrincipal(ctx)
	if !ok || !principal.IsUser() || principal.UserID == nil {
		return nil, fmt.Errorf("project owner must be a user: %w", ErrPermissionDenied)
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	project := &store.Project{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     *principal.UserID,
	}

	if err := s.store.Projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	log.Info(ctx, "project created",
		log.Int("project_id", project.ID),
		log.Int("owner_id", project.OwnerID),
	)

	return s.expand(ctx, project)
}

// GetProject returns the project when the caller can read it. Invisible and
// missing projects are indistinguishable.
func (s *ProjectService) GetProject(ctx context.Context, id int) (*ProjectDetail, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireRead(ctx, project); err != nil {
		return nil, err
	}

	return s.expand(ctx, project)
}

// ListProjects returns the projects visible to the caller.
func (s *ProjectService) ListProjects(ctx context.Context) ([]*ProjectDetail, error) {
	scope, err := s.visibleScope(ctx)
	if err != nil {
		return nil, err
	}

	projects, err := s.store.Projects.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	details := make([]*ProjectDetail, 0, len(projects))

	for _, project := range projects {
		detail, err := s.expand(ctx, project)
		if err != nil {
			return nil, err
		}

		details = append(details, detail)
	}

	return details, nil
}

// UpdateProject updates name and description. Only the owner may write a
// project; members get a permission error, outsiders a missing one.
func (s *ProjectService) UpdateProject(ctx context.Context, id int, input UpdateProjectInput) (*ProjectDetail, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.require(ctx, authz.ActionWrite, project); err != nil {
		return nil, err
	}

	var f fieldErrors
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		f.Add("name", "is required")
	}

	if err := f.Err(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		project.Name = *input.Name
	}

	if input.Description != nil {
		project.Description = *input.Description
	}

	if err := s.store.Projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.expand(ctx, project)
}

// DeleteProject removes the project and everything under it.
func (s *ProjectService) DeleteProject(ctx context.Context, id int) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.require(ctx, authz.ActionWrite, project); err != nil {
		return err
	}

	if err := s.store.Projects.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.engine.Resolver().InvalidateProject(ctx, id)

	log.Info(ctx, "project deleted", log.Int("project_id", id))

	return nil
}

// AddMember puts a user on the roster. Roster changes are MANAGE actions,
// reserved for the owner.
func (s *ProjectService) AddMember(ctx context.Context, projectID, userID int) error {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}

	if err := s.require(ctx, authz.ActionManage, project); err != nil {
		return err
	}

	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		if store.NotFound(err) {
			return fmt.Errorf("%w: user %d does not exist", ErrValidation, userID)
		}

		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.store.Projects.AddMember(ctx, projectID, userID); err != nil {
		if store.IsDuplicate(err) {
			return fmt.Errorf("user %d is already a member: %w", userID, ErrDuplicate)
		}

		return fmt.Errorf("failed to add member: %w", err)
	}

	s.engine.Resolver().InvalidateProject(ctx, projectID)

	log.Info(ctx, "member added",
		log.Int("project_id", projectID),
		log.Int("user_id", userID),
	)

	return nil
}

// RemoveMember takes a user off the roster. The owner cannot be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID int) error {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}

	if err := s.require(ctx, authz.ActionManage, project); err != nil {
		return err
	}

	if userID == project.OwnerID {
		return fmt.Errorf("%w: the project owner cannot be removed", ErrValidation)
	}

	if err := s.store.Projects.RemoveMember(ctx, projectID, userID); err != nil {
		if store.NotFound(err) {
			return fmt.Errorf("user %d is not a member: %w", userID, ErrNotFound)
		}

		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.engine.Resolver().InvalidateProject(ctx, projectID)

	log.Info(ctx, "member removed",
		log.Int("project_id", projectID),
		log.Int("user_id", userID),
	)

	return nil
}

// Stats aggregates the project's task workload.
func (s *ProjectService) Stats(ctx context.Context, projectID int) (*store.ProjectStats, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.requireRead(ctx, project); err != nil {
		return nil, err
	}

	stats, err := s.store.Tasks.ProjectStats(ctx, projectID, xtime.UTCNow())
	if err != nil {
		return nil, fmt.Errorf("failed to compute project stats: %w", err)
	}

	return stats, nil
}

func (s *ProjectService) load(ctx context.Context, id int) (*store.Project, error) {
	project, err := s.store.Projects.Get(ctx, id)
	if err != nil {
		if store.NotFound(err) {
			return nil, notFound(authz.KindProject)
		}

		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

func (s *ProjectService) expand(ctx context.Context, project *store.Project) (*ProjectDetail, error) {
	owner, err := s.store.Users.Get(ctx, project.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project owner: %w", err)
	}

	members, err := s.store.Projects.Members(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project members: %w", err)
	}

	return &ProjectDetail{
		Project: project,
		Owner:   owner,
		Members: members,
	}, nil
}
