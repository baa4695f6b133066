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

// Outcome distinguishes the two expected answers to a lookup by ID.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeFound
)

func (o Outcome) String() string {
	if o == OutcomeFound {
		return "found"
	}

	return "not found"
}

// Result is the answer to a get or update. Value is only set when found.
type Result[T any] struct {
	Outcome  Outcome
	Value    *T
	Response *Response
}

func (r Result[T]) Found() bool {
	return r.Outcome == OutcomeFound
}

func found[T any](value *T, resp *Response) Result[T] {
	return Result[T]{Outcome: OutcomeFound, Value: value, Response: resp}
}

func notFound[T any](resp *Response) Result[T] {
	return Result[T]{Outcome: OutcomeNotFound, Response: resp}
}
