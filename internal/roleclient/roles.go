package roleclient

import (
	"context"

	"github.com/nebari-dev/roster/internal/models"
)

// Operations understood by the role endpoint.
const (
	OpGetAll = "GetAll"
	OpUpdate = "Update"
	OpCreate = "Create"
	OpDelete = "Delete"
)

type roleList struct {
	Roles []models.Role `json:"roles"`
}

type roleRef struct {
	Name string `json:"name"`
}

// GetAllRoles returns every role of the project.
func (c *Client) GetAllRoles(ctx context.Context) ([]models.Role, error) {
	var list roleList
	_, err := c.post(ctx, OpGetAll, struct{}{}, &list)
	if err != nil {
		return nil, err
	}
	if list.Roles == nil {
		return []models.Role{}, nil
	}
	return list.Roles, nil
}

// RefreshRole fetches the authoritative copy of a role. Posting only the
// name to the update op changes nothing and returns the full role.
func (c *Client) RefreshRole(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	_, err := c.post(ctx, OpUpdate, roleRef{Name: name}, &role)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateRole applies the fields present in role and returns the result.
func (c *Client) UpdateRole(ctx context.Context, role *models.Role) (*models.Role, error) {
	var updated models.Role
	_, err := c.post(ctx, OpUpdate, role, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CreateRole creates a new role.
func (c *Client) CreateRole(ctx context.Context, role *models.Role) (*models.Role, error) {
	var created models.Role
	_, err := c.post(ctx, OpCreate, role, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteRole deletes a role by name.
func (c *Client) DeleteRole(ctx context.Context, role *models.Role) error {
	_, err := c.post(ctx, OpDelete, roleRef{Name: role.Name}, nil)
	return err
}
