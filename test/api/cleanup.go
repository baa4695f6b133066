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
	"math"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// Registry records the IDs created during a run, in creation order per kind.
type Registry struct {
	lock sync.Mutex
	ids  map[Kind][]int
}

func NewRegistry() *Registry {
	return &Registry{
		ids: map[Kind][]int{},
	}
}

// Track records a created ID. Zero means no ID and is ignored.
func (r *Registry) Track(kind Kind, id int) {
	if id == 0 {
		return
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.ids[kind] = append(r.ids[kind], id)
}

// Forget removes an ID that a scenario deleted itself, reporting whether it
// was recorded.
func (r *Registry) Forget(kind Kind, id int) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	before := len(r.ids[kind])
	r.ids[kind] = slices.DeleteFunc(r.ids[kind], func(v int) bool { return v == id })

	return len(r.ids[kind]) != before
}

func (r *Registry) IDs(kind Kind) []int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return slices.Clone(r.ids[kind])
}

// Drain returns everything recorded and empties the registry.
func (r *Registry) Drain() map[Kind][]int {
	r.lock.Lock()
	defer r.lock.Unlock()

	drained := r.ids
	r.ids = map[Kind][]int{}

	return drained
}

// CleanupReport summarises one deletion pass over a kind.
type CleanupReport struct {
	Kind    Kind
	Deleted []int
	Failed  []int
	Skipped int
}

// Cleaner deletes fixtures through the API.
type Cleaner struct {
	client *APIClient
}

func NewCleaner(client *APIClient) *Cleaner {
	return &Cleaner{client: client}
}

func (c *Cleaner) delete(ctx context.Context, kind Kind, id int) int {
	switch kind {
	case KindArtists:
		return c.client.Artists().Delete(ctx, id)
	case KindAlbums:
		return c.client.Albums().Delete(ctx, id)
	case KindSongs:
		return c.client.Songs().Delete(ctx, id)
	case KindPlaylists:
		return c.client.Playlists().Delete(ctx, id)
	case KindUsers:
		return c.client.Users().Delete(ctx, id)
	}

	return 0
}

// CleanupList deletes ids one at a time, in order. Every ID is attempted
// whatever happened to the previous one and nothing is returned as an error.
func (c *Cleaner) CleanupList(ctx context.Context, kind Kind, ids []int) CleanupReport {
	report := CleanupReport{Kind: kind}

	c.client.log.Step("cleaning up", "kind", kind)

	if len(ids) == 0 {
		c.client.log.Info("no ids provided for cleanup", "kind", kind)
		return report
	}

	for _, id := range ids {
		if id == 0 {
			c.client.log.Info("skipping empty id", "kind", kind)

			report.Skipped++

			continue
		}

		if status := c.delete(ctx, kind, id); status == http.StatusNoContent {
			report.Deleted = append(report.Deleted, id)
		} else {
			report.Failed = append(report.Failed, id)
		}
	}

	c.client.log.Success("cleanup completed", "kind", kind, "ids", len(ids), "deleted", len(report.Deleted))

	return report
}

// CleanupAll drains the registry, deleting dependents before their parents.
func (c *Cleaner) CleanupAll(ctx context.Context, registry *Registry) []CleanupReport {
	drained := registry.Drain()

	reports := make([]CleanupReport, 0, len(TeardownOrder))

	for _, kind := range TeardownOrder {
		ids := drained[kind]
		if len(ids) == 0 {
			continue
		}

		reports = append(reports, c.CleanupList(ctx, kind, ids))
	}

	return reports
}

// Sweep deletes resources on the first page whose natural key starts with
// prefix, used to remove fixtures leaked by aborted runs.
func (c *Cleaner) Sweep(ctx context.Context, kind Kind, prefix string) (CleanupReport, error) {
	ids, err := c.matching(ctx, kind, prefix)
	if err != nil {
		return CleanupReport{Kind: kind}, err
	}

	return c.CleanupList(ctx, kind, ids), nil
}

// sweepKeys names the field each kind is swept by.
//
//nolint:gochecknoglobals
var sweepKeys = map[Kind]string{
	KindArtists:   "name",
	KindAlbums:    "title",
	KindSongs:     "title",
	KindPlaylists: "name",
	KindUsers:     "username",
}

// matching reads items without validating them, a leaked row with an odd
// shape is skipped rather than aborting the sweep.
func (c *Cleaner) matching(ctx context.Context, kind Kind, prefix string) ([]int, error) {
	key, ok := sweepKeys[kind]
	if !ok {
		return nil, fmt.Errorf("%w: cannot sweep %q", ErrUnknownVariant, kind)
	}

	_, objects, err := c.client.listObjects(ctx, kind, 0, lookupPageSize)
	if err != nil {
		return nil, err
	}

	var ids []int

	for _, object := range objects {
		value, _ := object[key].(string)
		id, _ := object["id"].(float64)

		if id <= 0 || id != math.Trunc(id) {
			c.client.log.Warning("skipping item without a usable id", "kind", kind, "key", value)
			continue
		}

		if strings.HasPrefix(strings.ToLower(value), strings.ToLower(prefix)) {
			ids = append(ids, int(id))
		}
	}

	return ids, nil
}
