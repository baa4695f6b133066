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

	"github.com/onsi/gomega"
)

const lookupPageSize = 100

// Resource is the command set for one collection of the music API. T is the
// resource as returned by the server and P the payload used to create it.
type Resource[T any, P any] struct {
	client *APIClient
	kind   Kind

	id   func(*T) int
	echo func(g gomega.Gomega, payload P, created *T)

	// key and keyOf name the natural key used to find an existing resource
	// after a create conflict. Kinds without one treat a conflict as fatal.
	key    func(P) string
	keyOf  func(*T) string
	unique func(P) P
}

func (c *APIClient) Artists() *Resource[Artist, ArtistPayload] {
	return &Resource[Artist, ArtistPayload]{
		client: c,
		kind:   KindArtists,
		id:     func(a *Artist) int { return a.ID },
		echo: func(g gomega.Gomega, p ArtistPayload, a *Artist) {
			g.Expect(a.Name).To(gomega.Equal(p.Name))
			g.Expect(a.Bio).To(gomega.Equal(p.Bio))
		},
		key:   func(p ArtistPayload) string { return p.Name },
		keyOf: func(a *Artist) string { return a.Name },
		unique: func(p ArtistPayload) ArtistPayload {
			p.Name = Unique(p.Name)
			return p
		},
	}
}

func (c *APIClient) Albums() *Resource[Album, AlbumPayload] {
	return &Resource[Album, AlbumPayload]{
		client: c,
		kind:   KindAlbums,
		id:     func(a *Album) int { return a.ID },
		echo: func(g gomega.Gomega, p AlbumPayload, a *Album) {
			g.Expect(a.Title).To(gomega.Equal(p.Title))

			if p.ArtistID != nil {
				g.Expect(a.ArtistID).To(gomega.Equal(*p.ArtistID))
			}
		},
	}
}

func (c *APIClient) Songs() *Resource[Song, SongPayload] {
	return &Resource[Song, SongPayload]{
		client: c,
		kind:   KindSongs,
		id:     func(s *Song) int { return s.ID },
		echo: func(g gomega.Gomega, p SongPayload, s *Song) {
			g.Expect(s.Title).To(gomega.Equal(p.Title))

			if p.AlbumID != nil {
				g.Expect(s.AlbumID).To(gomega.Equal(*p.AlbumID))
			}
		},
	}
}

func (c *APIClient) Playlists() *Resource[Playlist, PlaylistPayload] {
	return &Resource[Playlist, PlaylistPayload]{
		client: c,
		kind:   KindPlaylists,
		id:     func(p *Playlist) int { return p.ID },
		echo: func(g gomega.Gomega, p PlaylistPayload, pl *Playlist) {
			g.Expect(pl.Name).To(gomega.Equal(p.Name))
		},
	}
}

func (c *APIClient) Users() *Resource[User, UserPayload] {
	return &Resource[User, UserPayload]{
		client: c,
		kind:   KindUsers,
		id:     func(u *User) int { return u.ID },
		echo: func(g gomega.Gomega, p UserPayload, u *User) {
			g.Expect(u.Username).To(gomega.Equal(p.Username))
			g.Expect(u.Email).To(gomega.Equal(p.Email))
		},
		key:   func(p UserPayload) string { return p.Username },
		keyOf: func(u *User) string { return u.Username },
		unique: func(p UserPayload) UserPayload {
			p.Username = Unique(p.Username)
			p.Email = "unique_" + UniqueSuffix() + "@example.com"

			return p
		},
	}
}

func (r *Resource[T, P]) Kind() Kind {
	return r.kind
}

func (r *Resource[T, P]) post(ctx context.Context, payload P) (*Request, *Response, error) {
	req := &Request{
		Method: http.MethodPost,
		Path:   r.client.endpoints.Collection(r.kind),
		JSON:   payload,
	}

	resp, err := r.client.Do(ctx, *req)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", r.kind, err)
	}

	return req, resp, nil
}

// accept validates a 201 response and records the new ID for teardown.
func (r *Resource[T, P]) accept(resp *Response, payload P) (*T, error) {
	object, err := resp.Object()
	if err != nil {
		return nil, err
	}

	g := r.client.g
	validatorFor(r.kind)(g, object)

	var created T
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}

	id := r.id(&created)
	g.Expect(id).To(gomega.BeNumerically(">", 0), "created %s has no id", r.kind)
	r.echo(g, payload, &created)

	r.client.registry.Track(r.kind, id)
	r.client.log.Success("created", "kind", r.kind, "id", id)

	return &created, nil
}

// Get fetches one resource, a 404 is an expected outcome rather than an error.
func (r *Resource[T, P]) Get(ctx context.Context, id int) (Result[T], error) {
	req := Request{
		Method: http.MethodGet,
		Path:   r.client.endpoints.Item(r.kind, id),
	}

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return Result[T]{}, fmt.Errorf("getting %s %d: %w", r.kind, id, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		value, err := r.decodeOne(resp)
		if err != nil {
			return Result[T]{}, err
		}

		r.client.g.Expect(r.id(value)).To(gomega.Equal(id))

		return found(value, resp), nil
	case http.StatusNotFound:
		r.client.log.Info("not found", "kind", r.kind, "id", id)
		return notFound[T](resp), nil
	}

	return Result[T]{}, newStatusError(&req, resp)
}

// Update replaces a resource. A conflict is returned as a *StatusError so the
// caller can read the detail.
func (r *Resource[T, P]) Update(ctx context.Context, id int, payload P) (Result[T], error) {
	r.client.log.Step("updating", "kind", r.kind, "id", id)

	req := Request{
		Method: http.MethodPut,
		Path:   r.client.endpoints.Item(r.kind, id),
		JSON:   payload,
	}

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return Result[T]{}, fmt.Errorf("updating %s %d: %w", r.kind, id, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		value, err := r.decodeOne(resp)
		if err != nil {
			return Result[T]{}, err
		}

		r.client.g.Expect(r.id(value)).To(gomega.Equal(id))
		r.client.log.Success("updated", "kind", r.kind, "id", id)

		return found(value, resp), nil
	case http.StatusNotFound:
		r.client.log.Info("not found", "kind", r.kind, "id", id)
		return notFound[T](resp), nil
	case http.StatusConflict:
		r.client.log.Warning("update conflict", "kind", r.kind, "id", id, "detail", resp.ErrorDetail())
	}

	return Result[T]{}, newStatusError(&req, resp)
}

// Delete removes a resource and returns the observed status, zero if the
// request never completed. Failures are logged and never returned.
func (r *Resource[T, P]) Delete(ctx context.Context, id int) int {
	r.client.log.Step("deleting", "kind", r.kind, "id", id)

	resp, err := r.client.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   r.client.endpoints.Item(r.kind, id),
	})
	if err != nil {
		r.client.log.Warning("note: could not delete", "kind", r.kind, "id", id, "error", err)
		return 0
	}

	if resp.StatusCode == http.StatusNoContent {
		r.client.log.Success("deleted", "kind", r.kind, "id", id)
	} else {
		r.client.log.Info("note: could not delete", "kind", r.kind, "id", id, "status", resp.StatusCode)
	}

	return resp.StatusCode
}

// List returns one page, every item is validated.
func (r *Resource[T, P]) List(ctx context.Context, skip, limit int) ([]T, error) {
	resp, objects, err := r.client.listObjects(ctx, r.kind, skip, limit)
	if err != nil {
		return nil, err
	}

	validate := validatorFor(r.kind)
	for _, object := range objects {
		validate(r.client.g, object)
	}

	var items []T
	if err := resp.Decode(&items); err != nil {
		return nil, err
	}

	return items, nil
}

// listObjects fetches one page of a collection as plain objects, without
// checking their shape.
func (c *APIClient) listObjects(ctx context.Context, kind Kind, skip, limit int) (*Response, []map[string]any, error) {
	query, err := c.endpoints.Page(skip, limit)
	if err != nil {
		return nil, nil, err
	}

	req := Request{
		Method: http.MethodGet,
		Path:   c.endpoints.Collection(kind),
		Query:  query,
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("listing %s: %w", kind, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, newStatusError(&req, resp)
	}

	var objects []map[string]any
	if err := resp.Decode(&objects); err != nil {
		return nil, nil, err
	}

	return resp, objects, nil
}

// FindByKey searches the first page for a resource with the given natural key.
func (r *Resource[T, P]) FindByKey(ctx context.Context, key string) (*T, bool, error) {
	if r.keyOf == nil {
		return nil, false, fmt.Errorf("%w: %s has no lookup key", ErrUnknownVariant, r.kind)
	}

	items, err := r.List(ctx, 0, lookupPageSize)
	if err != nil {
		return nil, false, err
	}

	for i := range items {
		if r.keyOf(&items[i]) == key {
			return &items[i], true, nil
		}
	}

	return nil, false, nil
}

func (r *Resource[T, P]) decodeOne(resp *Response) (*T, error) {
	object, err := resp.Object()
	if err != nil {
		return nil, err
	}

	validatorFor(r.kind)(r.client.g, object)

	var value T
	if err := resp.Decode(&value); err != nil {
		return nil, err
	}

	return &value, nil
}
