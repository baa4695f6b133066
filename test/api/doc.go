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

// Package api provides end-to-end test utilities for the music catalog API.
//
// # Separate Client Implementation
//
// This package intentionally talks to the API through its own small HTTP
// client (APIClient) rather than a generated one. Any change to the API
// contract must have a compensating change here, which keeps API evolution
// explicit and reviewable.
//
// The client includes features tailored for end-to-end testing:
//   - W3C trace context propagation for request correlation
//   - Detailed error logging with trace IDs for debugging
//   - An explicit Session owning the bearer token
//   - Per-request timeouts and optional client-side pacing
//   - Direct access to HTTP status codes and response bodies
//
// # Fixtures
//
// Payloads come from a seeded Generator. Every successful create records the
// new ID in the client's Registry, and a Cleaner drains the registry after
// each spec, dependents first. Creates that conflict are resolved by looking
// the resource up by its natural key, falling back to a single retry with a
// unique suffix.
//
// # Layout
//
// The Ginkgo suites live in test/api/suites and run against a live
// deployment configured through the environment or a .env file. Pact
// consumer contracts live in test/contracts/consumer. The music-api-probe
// command reuses this package to wake a deployment and sweep leftover
// fixtures outside of a test run. Unit tests in this package run against
// the in-memory server in the fake subpackage.
//
// # Future Improvements
//
//   - List lookups only inspect the first page. Large deployments may need
//     to page through collections when resolving conflicts.
package api
