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
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/defect-wtf/music-api-e2e/test/api"
)

var _ = Describe("User Management", func() {
	Context("When managing a user", func() {
		Describe("Given valid user data", func() {
			It("should create, read, update and delete the user", func() {
				payload := gen.User()
				user := api.CreateUserWithCleanup(client, ctx, payload)

				Expect(user.Username).To(Equal(payload.Username))
				Expect(user.Email).To(Equal(payload.Email))
				Expect(user.Favorites).To(BeEmpty())

				got, err := client.Users().Get(ctx, user.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Found()).To(BeTrue())
				Expect(got.Value.ID).To(Equal(user.ID))
				Expect(got.Value.Username).To(Equal(payload.Username))

				payload.Username += "_updated"

				updated, err := client.Users().Update(ctx, user.ID, payload)
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Found()).To(BeTrue())
				Expect(updated.Value.Username).To(Equal(payload.Username))

				Expect(client.Users().Delete(ctx, user.ID)).To(Equal(http.StatusNoContent))

				gone, err := client.Users().Get(ctx, user.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(gone.Outcome).To(Equal(api.OutcomeNotFound))
			})
		})

		Describe("Given a username that is taken", func() {
			It("should reject the duplicate", func() {
				user := api.CreateUserWithCleanup(client, ctx, gen.User())

				resp := createRaw(api.KindUsers, api.UserPayload{
					Username:  user.Username,
					Email:     "different@example.com",
					Favorites: []int{},
				})
				expectRejected(resp, http.StatusConflict)
				Expect(resp.ErrorDetail()).To(ContainSubstring("Username already registered"))
			})
		})

		Describe("Given an invalid email", func() {
			It("should reject the user", func() {
				payload := gen.User()
				payload.Email = "not-an-email"

				resp := createRaw(api.KindUsers, payload)
				expectRejected(resp, http.StatusUnprocessableEntity)
				Expect(resp.ErrorDetail()).To(ContainSubstring("Validation error"))
			})
		})
	})

	Context("When listing users", func() {
		It("should include a newly created user", func() {
			user := api.CreateUserWithCleanup(client, ctx, gen.User())

			var found bool

			for skip := 0; !found; skip += 10 {
				users, err := client.Users().List(ctx, skip, 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(len(users)).To(BeNumerically("<=", 10))

				if len(users) == 0 {
					break
				}

				for _, listed := range users {
					if listed.ID == user.ID {
						found = true
					}
				}
			}

			Expect(found).To(BeTrue(), "user %d was not listed", user.ID)
		})

		It("should reject unauthenticated requests", func() {
			resp, err := client.Do(ctx, api.Request{
				Method: http.MethodGet,
				Path:   client.Endpoints().Collection(api.KindUsers),
				Auth:   api.AuthAPIKey,
			})
			Expect(err).NotTo(HaveOccurred())
			expectRejected(resp, http.StatusUnauthorized)
		})
	})
})
