/*
Copyright 2024-2025 the Unikorn Authors.
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
	"fmt"
	"net/url"
	"strconv"

	"github.com/oapi-codegen/runtime"
)

// Endpoints contains all API endpoint patterns. Paths are relative to the
// versioned API prefix unless noted otherwise.
type Endpoints struct{}

// NewEndpoints creates a new Endpoints instance.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

// Authentication endpoints.
func (e *Endpoints) Token() string {
	return "/auth/token"
}

func (e *Endpoints) Me() string {
	return "/me"
}

// Health endpoints.
func (e *Endpoints) HealthCheck() string {
	return "/healthcheck"
}

// Root is relative to the bare base URL, it is what wakes a sleeping deployment.
func (e *Endpoints) Root() string {
	return "/"
}

// Collection endpoints, the trailing slash is significant to the API router.
func (e *Endpoints) Collection(kind Kind) string {
	return fmt.Sprintf("/%s/", kind)
}

func (e *Endpoints) Item(kind Kind, id int) string {
	return e.RawItem(kind, strconv.Itoa(id))
}

// RawItem allows malformed identifiers to be sent verbatim (escaped).
func (e *Endpoints) RawItem(kind Kind, id string) string {
	return fmt.Sprintf("/%s/%s", kind, url.PathEscape(id))
}

// Favorites endpoints.
func (e *Endpoints) Favorite(userID, songID int) string {
	return e.RawFavorite(strconv.Itoa(userID), strconv.Itoa(songID))
}

func (e *Endpoints) RawFavorite(userID, songID string) string {
	return fmt.Sprintf("/users/%s/favorites/%s", url.PathEscape(userID), url.PathEscape(songID))
}

// Page builds the skip/limit query for list endpoints.
func (e *Endpoints) Page(skip, limit int) (url.Values, error) {
	query := url.Values{}

	params := []struct {
		name  string
		value int
	}{
		{"skip", skip},
		{"limit", limit},
	}

	for _, p := range params {
		fragment, err := runtime.StyleParamWithLocation("form", true, p.name, runtime.ParamLocationQuery, p.value)
		if err != nil {
			return nil, fmt.Errorf("styling %s parameter: %w", p.name, err)
		}

		parsed, err := url.ParseQuery(fragment)
		if err != nil {
			return nil, fmt.Errorf("parsing %s parameter: %w", p.name, err)
		}

		for k, values := range parsed {
			for _, v := range values {
				query.Add(k, v)
			}
		}
	}

	return query, nil
}
