package estrapi

import (
	"context"

	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/valyala/fasthttp"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a back-office user and returns their profile
func (c *Client) Login(ctx context.Context, username, password string) (*entity.Profile, error) {
	var profile entity.Profile
	err := c.call(ctx, "login", fasthttp.MethodPost, "/auth/login", nil, "",
		loginRequest{Username: username, Password: password}, &profile)
	if err != nil {
		return nil, err
	}
	if profile.UserID == "" {
		profile.UserID = username
	}
	return &profile, nil
}
