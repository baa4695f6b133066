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
	"slices"

	"github.com/spjmurray/go-util/pkg/set"
)

// AddFavorite marks a song as a favorite of a user. Adding a song that is
// already a favorite is not an error, the current user is returned instead.
func (c *APIClient) AddFavorite(ctx context.Context, userID, songID int) (*User, error) {
	c.log.Step("adding favorite", "user_id", userID, "song_id", songID)

	req := Request{
		Method: http.MethodPost,
		Path:   c.endpoints.Favorite(userID, songID),
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("adding favorite: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return c.decodeUser(resp)
	case http.StatusConflict:
		c.log.Info("song already in favorites, fetching current user state", "user_id", userID, "song_id", songID)
		return c.currentUser(ctx, userID)
	case http.StatusNotFound:
		c.log.Error("failed to add favorite", "detail", resp.ErrorDetail())
	}

	return nil, newStatusError(&req, resp)
}

// RemoveFavorite unmarks a song. The user is looked up first so a missing
// user is reported as ErrUserNotFound, a 404 after that means the song was
// not a favorite and the current user is returned.
func (c *APIClient) RemoveFavorite(ctx context.Context, userID, songID int) (*User, error) {
	c.log.Step("removing favorite", "user_id", userID, "song_id", songID)

	if _, err := c.currentUser(ctx, userID); err != nil {
		return nil, err
	}

	req := Request{
		Method: http.MethodDelete,
		Path:   c.endpoints.Favorite(userID, songID),
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("removing favorite: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return c.decodeUser(resp)
	case http.StatusNotFound:
		c.log.Info("song not in favorites, fetching current user state", "user_id", userID, "song_id", songID)
		return c.currentUser(ctx, userID)
	}

	return nil, newStatusError(&req, resp)
}

func (c *APIClient) currentUser(ctx context.Context, userID int) (*User, error) {
	result, err := c.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !result.Found() {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}

	return result.Value, nil
}

func (c *APIClient) decodeUser(resp *Response) (*User, error) {
	object, err := resp.Object()
	if err != nil {
		return nil, err
	}

	ValidateUser(c.g, object)

	var user User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

// FavoritesDiff compares a user's favorites with the expected songs as sets,
// returning the expected songs that are missing and the ones that should not
// be there, both sorted.
func FavoritesDiff(user *User, expected ...int) ([]int, []int) {
	have := set.New[int](user.Favorites...)
	want := set.New[int](expected...)

	missing := slices.Sorted(want.Difference(have).All())
	extra := slices.Sorted(have.Difference(want).All())

	return missing, extra
}

// SharedFavorites returns the songs both users have marked, sorted.
func SharedFavorites(a, b *User) []int {
	return slices.Sorted(set.New[int](a.Favorites...).Intersection(set.New[int](b.Favorites...)).All())
}
