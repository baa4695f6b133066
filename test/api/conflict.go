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
)

// createState is a step of conflict-tolerant creation:
//
//	create -> conflict -> lookup -> (found: done | missing: retry) -> create
//
// The retry edge is taken at most once.
type createState int

const (
	stateCreate createState = iota
	stateConflict
	stateLookup
	stateRetryWithSuffix
)

func (s createState) String() string {
	switch s {
	case stateCreate:
		return "create"
	case stateConflict:
		return "conflict"
	case stateLookup:
		return "lookup"
	case stateRetryWithSuffix:
		return "retry-with-suffix"
	}

	return "unknown"
}

// Create posts payload. On 201 the result is validated and its ID recorded in
// the registry. On 409 kinds with a natural key return the existing resource
// if it is on the first page, otherwise the payload is made unique and posted
// once more. Resources found this way are not recorded in the registry and
// are never cleaned up by the fixture helpers, the run did not create them.
//
//nolint:cyclop // the state machine reads best in one place
func (r *Resource[T, P]) Create(ctx context.Context, payload P) (*T, error) {
	state := stateCreate
	retried := false

	var (
		req  *Request
		resp *Response
		err  error
	)

	for {
		r.client.log.Debug("create state", "kind", r.kind, "state", state)

		switch state {
		case stateCreate:
			if !retried {
				r.client.log.Step("creating", "kind", r.kind, "key", r.describe(payload))
			}

			req, resp, err = r.post(ctx, payload)
			if err != nil {
				return nil, err
			}

			switch resp.StatusCode {
			case http.StatusCreated:
				return r.accept(resp, payload)
			case http.StatusConflict:
				state = stateConflict
			default:
				return nil, newStatusError(req, resp)
			}
		case stateConflict:
			if r.key == nil {
				return nil, newStatusError(req, resp)
			}

			if retried {
				return nil, fmt.Errorf("%w: %s %q: %w", ErrConflictRetryExhausted, r.kind, r.key(payload), newStatusError(req, resp))
			}

			r.client.log.Info("already exists, attempting to retrieve it", "kind", r.kind, "key", r.key(payload))

			state = stateLookup
		case stateLookup:
			existing, ok, err := r.FindByKey(ctx, r.key(payload))
			if err != nil {
				return nil, err
			}

			if ok {
				r.client.log.Success("found existing", "kind", r.kind, "id", r.id(existing))
				return existing, nil
			}

			state = stateRetryWithSuffix
		case stateRetryWithSuffix:
			payload = r.unique(payload)
			retried = true

			r.client.log.Info("creating with unique key", "kind", r.kind, "key", r.key(payload))

			state = stateCreate
		}
	}
}

func (r *Resource[T, P]) describe(payload P) string {
	if r.key == nil {
		return ""
	}

	return r.key(payload)
}
