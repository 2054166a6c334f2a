package auth

import (
	"context"
	"net/http"
)

// LoginPath is the backend endpoint exchanging credentials for a token
const LoginPath = "/auth/login"

// APIAuthenticator logs in against the backend over HTTP
type APIAuthenticator struct {
	client *Client
}

var _ Authenticator = (*APIAuthenticator)(nil)

// NewAPIAuthenticator creates an authenticator using client
func NewAPIAuthenticator(client *Client) *APIAuthenticator {
	return &APIAuthenticator{client: client}
}

// Login posts the credentials and returns the issued token
func (a *APIAuthenticator) Login(ctx context.Context, credentials Credentials) (*AuthToken, error) {
	out := &AuthToken{}
	err := a.client.Send(ctx, Request{
		Method:    http.MethodPost,
		Path:      LoginPath,
		Body:      credentials,
		Anonymous: true,
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
