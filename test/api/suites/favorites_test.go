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
	"context"
	"net/http"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/defect-wtf/music-api-e2e/test/api"
)

// favoriteRaw calls the favorites endpoint with unvalidated path segments.
func favoriteRaw(method, userID, songID string, auth api.AuthMode) *api.Response {
	GinkgoHelper()

	resp, err := client.Do(ctx, api.Request{
		Method: method,
		Path:   client.Endpoints().RawFavorite(userID, songID),
		Auth:   auth,
	})
	Expect(err).NotTo(HaveOccurred())

	return resp
}

var _ = Describe("User Favorites", func() {
	var (
		catalog *api.MusicCatalog
		user    *api.User
		songs   []int
	)

	BeforeEach(func() {
		catalog = api.CreateMusicCatalogWithCleanup(client, ctx, gen.MusicTestData())
		user = api.CreateUserWithCleanup(client, ctx, gen.User())
		songs = catalog.SongIDs()
	})

	Context("When adding favorites", func() {
		Describe("Given existing songs", func() {
			It("should add a single song", func() {
				updated, err := client.AddFavorite(ctx, user.ID, songs[0])
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.ID).To(Equal(user.ID))
				api.VerifyFavorites(updated, songs[0])
			})

			It("should add several songs", func() {
				for _, id := range songs {
					updated, err := client.AddFavorite(ctx, user.ID, id)
					Expect(err).NotTo(HaveOccurred())
					Expect(updated.HasFavorite(id)).To(BeTrue())
				}

				result, err := client.Users().Get(ctx, user.ID)
				Expect(err).NotTo(HaveOccurred())
				api.VerifyFavorites(result.Value, songs...)
			})

			It("should treat a duplicate add as already present", func() {
				_, err := client.AddFavorite(ctx, user.ID, songs[0])
				Expect(err).NotTo(HaveOccurred())

				resp := favoriteRaw(http.MethodPost, strconv.Itoa(user.ID), strconv.Itoa(songs[0]), api.AuthSession)
				expectRejected(resp, http.StatusConflict, http.StatusUnprocessableEntity)
				Expect(resp.ErrorDetail()).To(ContainSubstring("already"))

				again, err := client.AddFavorite(ctx, user.ID, songs[0])
				Expect(err).NotTo(HaveOccurred())
				api.VerifyFavorites(again, songs[0])
			})
		})

		Describe("Given missing entities", func() {
			It("should reject a song that does not exist", func() {
				_, err := client.AddFavorite(ctx, user.ID, missingID)
				expectStatusError(err, http.StatusNotFound, "Song with ID 99999 not found")
			})

			It("should reject a user that does not exist", func() {
				_, err := client.AddFavorite(ctx, missingID, songs[0])
				expectStatusError(err, http.StatusNotFound, "User with ID 99999 not found")
			})
		})

		Describe("Given malformed identifiers", func() {
			It("should reject a malformed song ID", func() {
				resp := favoriteRaw(http.MethodPost, strconv.Itoa(user.ID), "invalid", api.AuthSession)
				expectRejected(resp, http.StatusNotFound, http.StatusUnprocessableEntity)
			})

			It("should reject a malformed user ID", func() {
				resp := favoriteRaw(http.MethodPost, "invalid", strconv.Itoa(songs[0]), api.AuthSession)
				expectRejected(resp, http.StatusNotFound, http.StatusUnprocessableEntity)
			})
		})

		Describe("Given no bearer token", func() {
			It("should reject the request", func() {
				resp := favoriteRaw(http.MethodPost, strconv.Itoa(user.ID), strconv.Itoa(songs[0]), api.AuthAPIKey)
				expectRejected(resp, http.StatusUnauthorized)
			})
		})
	})

	Context("When removing favorites", func() {
		BeforeEach(func() {
			for _, id := range songs {
				_, err := client.AddFavorite(ctx, user.ID, id)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		Describe("Given songs in the favorites", func() {
			It("should remove a single song", func() {
				updated, err := client.RemoveFavorite(ctx, user.ID, songs[0])
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.ID).To(Equal(user.ID))
				api.VerifyFavorites(updated, songs[1:]...)
			})

			It("should remove every song", func() {
				for _, id := range songs {
					updated, err := client.RemoveFavorite(ctx, user.ID, id)
					Expect(err).NotTo(HaveOccurred())
					Expect(updated.HasFavorite(id)).To(BeFalse())
				}

				result, err := client.Users().Get(ctx, user.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Value.Favorites).To(BeEmpty())
			})
		})

		Describe("Given a song that is not a favorite", func() {
			It("should report it missing and leave favorites unchanged", func() {
				_, err := client.RemoveFavorite(ctx, user.ID, songs[0])
				Expect(err).NotTo(HaveOccurred())

				resp := favoriteRaw(http.MethodDelete, strconv.Itoa(user.ID), strconv.Itoa(songs[0]), api.AuthSession)
				expectRejected(resp, http.StatusNotFound)
				Expect(resp.ErrorDetail()).To(ContainSubstring("in favorites not found"))

				current, err := client.RemoveFavorite(ctx, user.ID, songs[0])
				Expect(err).NotTo(HaveOccurred())
				api.VerifyFavorites(current, songs[1:]...)
			})
		})

		Describe("Given missing or malformed entities", func() {
			It("should report a missing user", func() {
				_, err := client.RemoveFavorite(ctx, missingID, songs[0])
				Expect(err).To(MatchError(api.ErrUserNotFound))

				resp := favoriteRaw(http.MethodDelete, strconv.Itoa(missingID), strconv.Itoa(songs[0]), api.AuthSession)
				expectRejected(resp, http.StatusNotFound)
				Expect(resp.ErrorDetail()).To(ContainSubstring("User with ID 99999 not found"))
			})

			It("should reject a malformed song ID", func() {
				resp := favoriteRaw(http.MethodDelete, strconv.Itoa(user.ID), "invalid", api.AuthSession)
				expectRejected(resp, http.StatusNotFound, http.StatusUnprocessableEntity)
			})

			It("should reject a malformed user ID", func() {
				resp := favoriteRaw(http.MethodDelete, "invalid", strconv.Itoa(songs[0]), api.AuthSession)
				expectRejected(resp, http.StatusNotFound, http.StatusUnprocessableEntity)
			})

			It("should reject a request without a bearer token", func() {
				resp := favoriteRaw(http.MethodDelete, strconv.Itoa(user.ID), strconv.Itoa(songs[0]), api.AuthAPIKey)
				expectRejected(resp, http.StatusUnauthorized)
			})
		})
	})

	Context("When favorites change repeatedly", func() {
		It("should survive add and remove cycles", func() {
			for range 2 {
				added, err := client.AddFavorite(ctx, user.ID, songs[0])
				Expect(err).NotTo(HaveOccurred())
				Expect(added.HasFavorite(songs[0])).To(BeTrue())

				removed, err := client.RemoveFavorite(ctx, user.ID, songs[0])
				Expect(err).NotTo(HaveOccurred())
				Expect(removed.HasFavorite(songs[0])).To(BeFalse())
			}

			final, err := client.AddFavorite(ctx, user.ID, songs[0])
			Expect(err).NotTo(HaveOccurred())
			api.VerifyFavorites(final, songs[0])
		})

		It("should converge after concurrent adds", func() {
			_, err := api.FanOut(ctx, len(songs), songs, func(ctx context.Context, id int) (*api.User, error) {
				return client.AddFavorite(ctx, user.ID, id)
			})
			Expect(err).NotTo(HaveOccurred())

			result, err := client.Users().Get(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			api.VerifyFavorites(result.Value, songs...)
		})

		It("should keep the other favorites when one song comes and goes", func() {
			base := songs[:len(songs)-1]
			extra := songs[len(songs)-1]

			for _, id := range base {
				_, err := client.AddFavorite(ctx, user.ID, id)
				Expect(err).NotTo(HaveOccurred())
			}

			added, err := client.AddFavorite(ctx, user.ID, extra)
			Expect(err).NotTo(HaveOccurred())
			Expect(added.Favorites).To(HaveLen(len(base) + 1))

			removed, err := client.RemoveFavorite(ctx, user.ID, extra)
			Expect(err).NotTo(HaveOccurred())
			api.VerifyFavorites(removed, base...)
		})

		It("should keep the user identity stable across operations", func() {
			added, err := client.AddFavorite(ctx, user.ID, songs[0])
			Expect(err).NotTo(HaveOccurred())

			removed, err := client.RemoveFavorite(ctx, user.ID, songs[0])
			Expect(err).NotTo(HaveOccurred())

			for _, snapshot := range []*api.User{added, removed} {
				Expect(snapshot.ID).To(Equal(user.ID))
				Expect(snapshot.Username).To(Equal(user.Username))
				Expect(snapshot.Email).To(Equal(user.Email))
			}
		})
	})

	Context("When two users share songs", func() {
		It("should report the common favorites", func() {
			other := api.CreateUserWithCleanup(client, ctx, gen.User())

			_, err := client.AddFavorite(ctx, user.ID, songs[0])
			Expect(err).NotTo(HaveOccurred())

			first, err := client.AddFavorite(ctx, user.ID, songs[1])
			Expect(err).NotTo(HaveOccurred())

			second, err := client.AddFavorite(ctx, other.ID, songs[1])
			Expect(err).NotTo(HaveOccurred())

			Expect(api.SharedFavorites(first, second)).To(Equal([]int{songs[1]}))
		})
	})
})
