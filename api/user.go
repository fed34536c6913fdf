package api

import (
	"context"
	"net/http"

	"cryptics.app/cryptics-client/model"
)

type UserUpdate struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.get(ctx, c.baseURL, "/user/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, update UserUpdate) (*model.User, error) {
	var out model.User
	if err := c.doJSON(ctx, http.MethodPut, c.baseURL, "/user/update", nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
