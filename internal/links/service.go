package links

import (
	"context"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/rbac"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateRequest struct {
	Label       string  `json:"label" validate:"required,label,max=64"`
	URL         string  `json:"url" validate:"required,http_url,max=2048"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

type UpdateRequest struct {
	ID          string  `json:"id" validate:"required"`
	Label       string  `json:"label" validate:"required,label,max=64"`
	URL         string  `json:"url" validate:"required,http_url,max=2048"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

// UserFinder confirms a target user exists.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type Service struct {
	db    *gorm.DB
	links *Store
	roles *rbac.Store
	authz *rbac.Authorizer
	users UserFinder
}

func NewService(d *gorm.DB, links *Store, roles *rbac.Store, authz *rbac.Authorizer, users UserFinder) *Service {
	return &Service{db: d, links: links, roles: roles, authz: authz, users: users}
}

// Create stores the link and gives its author rw on it, atomically.
func (s *Service) Create(ctx context.Context, author *models.User, req CreateRequest) (*models.Link, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	link := &models.Link{
		ID:          uuid.NewString(),
		Label:       req.Label,
		URL:         req.URL,
		Description: req.Description,
		UserID:      author.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		links := s.links.WithTx(tx)
		taken, err := links.LabelTaken(ctx, link.Label, "")
		if err != nil {
			return err
		}
		if taken {
			return errDuplicateLabel
		}
		if err := links.Create(ctx, link); err != nil {
			return err
		}
		_, err = s.roles.WithTx(tx).CreateRole(ctx, nil, []string{author.ID},
			rbac.On(rbac.ActionReadWrite, rbac.ResourceLink, link.ID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Link, error) {
	return s.links.Get(ctx, id)
}

func (s *Service) GetByLabel(ctx context.Context, label string) (*models.Link, error) {
	if !utils.ValidLabel(label) {
		return nil, apperr.Validation("label may only contain letters, digits and dashes")
	}
	return s.links.GetByLabel(ctx, label)
}

// ResolveLabel maps a public label to its link. Malformed labels are simply
// not found.
func (s *Service) ResolveLabel(ctx context.Context, label string) (*models.Link, error) {
	if !utils.ValidLabel(label) {
		return nil, apperr.NotFound("Link not found.")
	}
	return s.links.GetByLabel(ctx, label)
}

func (s *Service) ListMine(ctx context.Context, user *models.User, page utils.Page) ([]models.Link, error) {
	return s.links.ListByUser(ctx, user.ID, page)
}

// ListForUser lists another user's links. It needs global link r or rw.
func (s *Service) ListForUser(ctx context.Context, caller *models.User, targetID string, page utils.Page) ([]models.Link, error) {
	err := s.authz.Require(ctx, caller, rbac.Policy{
		AnyOf: []rbac.Grant{
			rbac.Global(rbac.ActionRead, rbac.ResourceLink),
			rbac.Global(rbac.ActionReadWrite, rbac.ResourceLink),
		},
		AdminBypass: true,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		return nil, err
	}
	return s.links.ListByUser(ctx, targetID, page)
}

// Update rewrites a link the caller holds rw on.
func (s *Service) Update(ctx context.Context, caller *models.User, req UpdateRequest) (*models.Link, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	link, err := s.links.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	err = s.authz.Require(ctx, caller, rbac.Policy{
		AnyOf: []rbac.Grant{rbac.On(rbac.ActionReadWrite, rbac.ResourceLink, link.ID)},
	})
	if err != nil {
		return nil, err
	}

	taken, err := s.links.LabelTaken(ctx, req.Label, link.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errDuplicateLabel
	}

	link.Label = req.Label
	link.URL = req.URL
	link.Description = req.Description
	if err := s.links.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Delete removes a link and every permission scoped to it.
func (s *Service) Delete(ctx context.Context, caller *models.User, id string) error {
	link, err := s.links.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.authz.Require(ctx, caller, rbac.Policy{
		AnyOf:       []rbac.Grant{rbac.On(rbac.ActionReadWrite, rbac.ResourceLink, link.ID)},
		AdminBypass: true,
	})
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return DeleteWithPermissions(ctx, s.links.WithTx(tx), s.roles.WithTx(tx), link.ID)
	})
}

// DeleteWithPermissions deletes one link and its scoped permissions using the
// given (usually transaction bound) stores.
func DeleteWithPermissions(ctx context.Context, links *Store, roles *rbac.Store, id string) error {
	if err := roles.DeleteResourcePermissions(ctx, rbac.ResourceLink, id); err != nil {
		return err
	}
	return links.Delete(ctx, id)
}
