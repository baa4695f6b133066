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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/defect-wtf/music-api-e2e/test/api"
)

// object decodes a response body as a JSON object, failing the spec otherwise.
func object(resp *api.Response) map[string]any {
	GinkgoHelper()

	body, err := resp.Object()
	Expect(err).NotTo(HaveOccurred(), "response body: %s", string(resp.Body))

	return body
}

// expectRejected asserts the status is one of codes and the body is an error envelope.
func expectRejected(resp *api.Response, codes ...int) {
	GinkgoHelper()

	Expect(resp.StatusCode).To(BeElementOf(codes), "response body: %s", string(resp.Body))
	api.ValidateErrorEnvelope(Default, object(resp))
}

// meRequest builds GET /me with only the API key, callers add the credential under test.
func meRequest(authorization string) api.Request {
	return api.Request{
		Method:  http.MethodGet,
		Path:    client.Endpoints().Me(),
		Auth:    api.AuthAPIKey,
		Headers: map[string]string{api.HeaderAuthorization: authorization},
	}
}

// createRaw posts body to a collection and tracks whatever the service creates,
// so scenarios can assert on the raw status of unusual payloads.
func createRaw(kind api.Kind, body any) *api.Response {
	GinkgoHelper()

	resp, err := client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   client.Endpoints().Collection(kind),
		JSON:   body,
	})
	Expect(err).NotTo(HaveOccurred())

	if resp.StatusCode == http.StatusCreated {
		var created struct {
			ID int `json:"id"`
		}

		Expect(resp.Decode(&created)).To(Succeed())
		client.Registry().Track(kind, created.ID)
	}

	return resp
}

// expectStatusError asserts err is an unexpected status with the given code and detail.
func expectStatusError(err error, code int, detail string) {
	GinkgoHelper()

	var statusErr *api.StatusError

	Expect(errors.As(err, &statusErr)).To(BeTrue(), "expected a status error, got %v", err)
	Expect(statusErr.StatusCode).To(Equal(code))
	Expect(statusErr.Body).To(ContainSubstring(detail))
}
