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

	"golang.org/x/sync/errgroup"
)

// Step is one operation of a chain.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Chain runs steps in the order given and stops at the first failure. Each
// step observes everything the previous ones did.
func Chain(ctx context.Context, steps ...Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}

		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}
	}

	return nil
}

// FanOut runs fn for every input concurrently, at most limit at a time
// (limit <= 0 means unbounded), and waits for all of them. Results are in
// input order. The first error cancels the context passed to the rest.
func FanOut[In, Out any](ctx context.Context, limit int, inputs []In, fn func(ctx context.Context, input In) (Out, error)) ([]Out, error) {
	group, ctx := errgroup.WithContext(ctx)

	if limit > 0 {
		group.SetLimit(limit)
	}

	results := make([]Out, len(inputs))

	for i, input := range inputs {
		group.Go(func() error {
			out, err := fn(ctx, input)
			if err != nil {
				return err
			}

			results[i] = out

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
