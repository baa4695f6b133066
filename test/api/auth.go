/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	HeaderAPIKey        = "X-API-KEY"
	HeaderAuthorization = "Authorization"

	tokenTypeBearer = "bearer"
)

// Session owns the bearer token for one account. It is created unauthenticated
// and logs in lazily the first time headers are requested.
type Session struct {
	client   *APIClient
	username string
	password string

	lock  sync.Mutex
	token string
	user  *AccountUser
}

// NewSession binds credentials to the client used to exchange them.
func NewSession(client *APIClient, username, password string) *Session {
	return &Session{
		client:   client,
		username: username,
		password: password,
	}
}

// TokenRequest returns the login request for the given credentials. Scenarios
// use it directly to probe rejection paths.
func (c *APIClient) TokenRequest(username, password string) Request {
	return Request{
		Method: http.MethodPost,
		Path:   c.endpoints.Token(),
		Auth:   AuthAPIKey,
		Form: url.Values{
			"username": []string{username},
			"password": []string{password},
		},
	}
}

// Authenticate exchanges the credentials for a token, replacing any cached one.
func (s *Session) Authenticate(ctx context.Context) (*TokenResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.authenticate(ctx)
}

func (s *Session) authenticate(ctx context.Context) (*TokenResponse, error) {
	s.client.log.Step("authenticating", "username", s.username)

	req := s.client.TokenRequest(s.username, s.password)
	req.ExpectStatus = http.StatusOK

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("authenticating %s: %w", s.username, err)
	}

	var token TokenResponse
	if err := resp.Decode(&token); err != nil {
		return nil, err
	}

	if token.AccessToken == "" || !strings.EqualFold(token.TokenType, tokenTypeBearer) {
		return nil, fmt.Errorf("%w: token_type %q", ErrMissingToken, token.TokenType)
	}

	s.token = token.AccessToken
	s.user = &token.User

	s.client.log.Success("authenticated", "username", s.username, "user_id", token.User.ID)

	return &token, nil
}

// Headers returns the headers every authenticated call carries.
func (s *Session) Headers(ctx context.Context) (map[string]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.token == "" {
		if _, err := s.authenticate(ctx); err != nil {
			return nil, err
		}
	}

	return map[string]string{
		HeaderAuthorization: "Bearer " + s.token,
		"Content-Type":      "application/json",
		HeaderAPIKey:        s.client.config.APIKey,
	}, nil
}

// Token returns the cached token, empty if not yet authenticated.
func (s *Session) Token() string {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.token
}

// User returns the principal from the last successful login, or nil.
func (s *Session) User() *AccountUser {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.user == nil {
		return nil
	}

	user := *s.user

	return &user
}

// Invalidate drops the cached token so the next request logs in again.
func (s *Session) Invalidate() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.token = ""
	s.user = nil
}

// Me returns the account the session is authenticated as.
func (s *Session) Me(ctx context.Context) (*AccountUser, error) {
	resp, err := s.client.WithSession(s).Do(ctx, Request{
		Method:       http.MethodGet,
		Path:         s.client.endpoints.Me(),
		ExpectStatus: http.StatusOK,
	})
	if err != nil {
		return nil, err
	}

	var user AccountUser
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}
