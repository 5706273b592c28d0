package courseapi

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

func (c *HTTPClient) Signup(ctx context.Context, in models.SignupInput) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/signup/", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token. A 401 here is a bad password, not
// an expired session, so it never triggers the session guard.
func (c *HTTPClient) Login(ctx context.Context, in models.LoginInput) (*models.LoginResult, error) {
	var res models.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/login/", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, "/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) EditAccount(ctx context.Context, in models.AccountEdit) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPut, "/edit/", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteAccount sends the password confirmation in the DELETE body.
func (c *HTTPClient) DeleteAccount(ctx context.Context, password string) error {
	return c.doJSON(ctx, http.MethodDelete, "/delete/", map[string]string{"password": password}, nil)
}
