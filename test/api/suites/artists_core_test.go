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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/defect-wtf/music-api-e2e/test/api"
)

const missingID = 99999

var _ = Describe("Core Artist Management", func() {
	Context("When creating a new artist", func() {
		Describe("Given valid artist data", func() {
			It("should successfully create the artist", func() {
				payload := gen.Artist()

				resp := createRaw(api.KindArtists, payload)
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				body := object(resp)
				api.ValidateArtist(Default, body)
				Expect(body).To(HaveKeyWithValue("name", payload.Name))
				Expect(body).To(HaveKeyWithValue("bio", payload.Bio))
			})

			It("should reject a duplicate name", func() {
				artist := api.CreateArtistWithCleanup(client, ctx, gen.Artist())

				duplicate := gen.Artist()
				duplicate.Name = artist.Name

				resp := createRaw(api.KindArtists, duplicate)
				expectRejected(resp, http.StatusConflict)
				Expect(resp.ErrorDetail()).To(ContainSubstring("already exists"))
			})
		})

		Describe("Given no bearer token", func() {
			It("should reject the creation", func() {
				resp, err := client.Do(ctx, api.Request{
					Method: http.MethodPost,
					Path:   client.Endpoints().Collection(api.KindArtists),
					Auth:   api.AuthAPIKey,
					JSON:   gen.Artist(),
				})
				Expect(err).NotTo(HaveOccurred())
				expectRejected(resp, http.StatusUnauthorized)
			})
		})

		Describe("Given incomplete or unusual fields", func() {
			DescribeTable("should answer with a defined status",
				func(mutate func(body map[string]any)) {
					valid := gen.Artist()
					body := map[string]any{"name": valid.Name, "bio": valid.Bio}
					mutate(body)

					resp := createRaw(api.KindArtists, body)
					Expect(resp.StatusCode).To(BeElementOf(
						http.StatusCreated, http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity))

					if resp.StatusCode >= http.StatusBadRequest {
						api.ValidateErrorEnvelope(Default, object(resp))
					}

					client.Logger().Info("field validation", "status", resp.StatusCode)
				},
				Entry("empty name", func(b map[string]any) { b["name"] = "" }),
				Entry("empty bio", func(b map[string]any) { b["bio"] = "" }),
				Entry("missing name", func(b map[string]any) { delete(b, "name") }),
				Entry("missing bio", func(b map[string]any) { delete(b, "bio") }),
				Entry("whitespace name", func(b map[string]any) { b["name"] = "   " }),
				Entry("whitespace bio", func(b map[string]any) { b["bio"] = "   " }),
				Entry("null name", func(b map[string]any) { b["name"] = nil }),
				Entry("null bio", func(b map[string]any) { b["bio"] = nil }),
			)

			It("should reject a body without a name", func() {
				resp := createRaw(api.KindArtists, map[string]any{"bio": gen.Artist().Bio})
				expectRejected(resp, http.StatusUnprocessableEntity)
			})
		})

		Describe("Given edge case content", func() {
			DescribeTable("should store or reject it cleanly",
				func(category string, codes []int) {
					payload, err := api.EdgeCase(category)
					Expect(err).NotTo(HaveOccurred())

					resp := createRaw(api.KindArtists, payload)
					Expect(resp.StatusCode).To(BeElementOf(codes))

					if resp.StatusCode == http.StatusCreated {
						Expect(object(resp)).To(HaveKeyWithValue("name", payload.Name))
					}
				},
				Entry("minimal content", api.EdgeMinimalContent,
					[]int{http.StatusCreated, http.StatusConflict}),
				Entry("long content", api.EdgeLongContent,
					[]int{http.StatusCreated, http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity}),
				Entry("special characters", api.EdgeSpecialCharacters,
					[]int{http.StatusCreated, http.StatusBadRequest, http.StatusConflict}),
				Entry("unicode", api.EdgeUnicode,
					[]int{http.StatusCreated, http.StatusConflict}),
			)
		})
	})

	Context("When listing artists", func() {
		Describe("Given artists exist", func() {
			var created []*api.Artist

			BeforeEach(func() {
				created = []*api.Artist{
					api.CreateArtistWithCleanup(client, ctx, gen.Artist()),
					api.CreateArtistWithCleanup(client, ctx, gen.Artist()),
				}
			})

			It("should return schema valid artists", func() {
				artists, err := client.Artists().List(ctx, 0, 1000)
				Expect(err).NotTo(HaveOccurred())
				Expect(artists).NotTo(BeEmpty())

				ids := make([]int, len(created))
				for i, artist := range created {
					ids[i] = artist.ID
				}

				api.VerifyArtistPresence(artists, ids)
			})

			It("should honour skip and limit", func() {
				limited, err := client.Artists().List(ctx, 0, 2)
				Expect(err).NotTo(HaveOccurred())
				Expect(len(limited)).To(BeNumerically("<=", 2))

				skipped, err := client.Artists().List(ctx, 1, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(len(skipped)).To(BeNumerically("<=", 1))

				if len(limited) == 2 && len(skipped) == 1 {
					Expect(skipped[0].ID).To(Equal(limited[1].ID))
				}
			})
		})

		Describe("Given no bearer token", func() {
			It("should reject the listing", func() {
				resp, err := client.Do(ctx, api.Request{
					Method: http.MethodGet,
					Path:   client.Endpoints().Collection(api.KindArtists),
					Auth:   api.AuthAPIKey,
				})
				Expect(err).NotTo(HaveOccurred())
				expectRejected(resp, http.StatusUnauthorized)
			})
		})
	})

	Context("When retrieving a specific artist", func() {
		Describe("Given the artist exists", func() {
			It("should return complete artist details", func() {
				artist := api.CreateArtistWithCleanup(client, ctx, gen.Artist())

				result, err := client.Artists().Get(ctx, artist.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Found()).To(BeTrue())
				Expect(*result.Value).To(Equal(*artist))
			})
		})

		Describe("Given the artist does not exist", func() {
			It("should return a not found error", func() {
				result, err := client.Artists().Get(ctx, missingID)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(api.OutcomeNotFound))
				Expect(result.Response.ErrorDetail()).To(ContainSubstring("Artist with ID 99999 not found"))
			})
		})

		Describe("Given a malformed identifier", func() {
			DescribeTable("should reject it",
				func(id string) {
					resp, err := client.Do(ctx, api.Request{
						Method: http.MethodGet,
						Path:   client.Endpoints().RawItem(api.KindArtists, id),
					})
					Expect(err).NotTo(HaveOccurred())
					expectRejected(resp, http.StatusNotFound, http.StatusUnprocessableEntity)
				},
				Entry("letters", "abc"),
				Entry("trailing letters", "123abc"),
				Entry("null", "null"),
				Entry("zero", "0"),
				Entry("negative", "-1"),
			)
		})
	})

	Context("When updating an artist", func() {
		var artist *api.Artist

		BeforeEach(func() {
			artist = api.CreateArtistWithCleanup(client, ctx, gen.Artist())
		})

		Describe("Given valid update parameters", func() {
			It("should successfully update the artist", func() {
				update := gen.Artist()

				result, err := client.Artists().Update(ctx, artist.ID, update)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Found()).To(BeTrue())
				Expect(result.Value.ID).To(Equal(artist.ID))
				Expect(result.Value.Name).To(Equal(update.Name))
				Expect(result.Value.Bio).To(Equal(update.Bio))
			})
		})

		Describe("Given invalid update parameters", func() {
			It("should reject a name that belongs to another artist", func() {
				other := api.CreateArtistWithCleanup(client, ctx, gen.Artist())

				update := gen.Artist()
				update.Name = other.Name

				_, err := client.Artists().Update(ctx, artist.ID, update)
				expectStatusError(err, http.StatusConflict, "already exists")
			})

			It("should return not found for a missing artist", func() {
				result, err := client.Artists().Update(ctx, missingID, gen.Artist())
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Found()).To(BeFalse())
				Expect(result.Response.ErrorDetail()).To(ContainSubstring("Artist with ID 99999 not found"))
			})

			DescribeTable("should reject invalid bodies",
				func(body map[string]any) {
					resp, err := client.Do(ctx, api.Request{
						Method: http.MethodPut,
						Path:   client.Endpoints().Item(api.KindArtists, artist.ID),
						JSON:   body,
					})
					Expect(err).NotTo(HaveOccurred())
					expectRejected(resp, http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity)
				},
				Entry("empty name", map[string]any{"name": "", "bio": "Updated bio"}),
				Entry("null name", map[string]any{"name": nil, "bio": "Updated bio"}),
			)
		})
	})

	Context("When deleting an artist", func() {
		Describe("Given the artist exists", func() {
			It("should successfully delete the artist", func() {
				artist := api.CreateArtistWithCleanup(client, ctx, gen.Artist())

				Expect(client.Artists().Delete(ctx, artist.ID)).To(Equal(http.StatusNoContent))

				result, err := client.Artists().Get(ctx, artist.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Found()).To(BeFalse())
			})
		})

		Describe("Given the artist does not exist", func() {
			It("should return not found", func() {
				Expect(client.Artists().Delete(ctx, missingID)).To(Equal(http.StatusNotFound))
			})
		})
	})

	Context("When repeating API operations", func() {
		Describe("Given idempotent operations", func() {
			It("should handle repeated delete operations", func() {
				artist := api.CreateArtistWithCleanup(client, ctx, gen.Artist())

				Expect(client.Artists().Delete(ctx, artist.ID)).To(Equal(http.StatusNoContent))
				Expect(client.Artists().Delete(ctx, artist.ID)).To(Equal(http.StatusNotFound))
			})

			It("should find an artist by its name", func() {
				artist := api.CreateArtistWithCleanup(client, ctx, gen.Artist())

				found, ok, err := client.Artists().FindByKey(ctx, artist.Name)
				Expect(err).NotTo(HaveOccurred())

				if !ok {
					Skip("artist is beyond the first page of results")
				}

				Expect(found.ID).To(Equal(artist.ID))
			})
		})
	})
})
