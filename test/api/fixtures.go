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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"k8s.io/utils/ptr"
)

// MusicCatalog is an artist with one album of songs, created in dependency order.
type MusicCatalog struct {
	Artist *Artist
	Album  *Album
	Songs  []*Song
}

// SongIDs returns the IDs of the catalog songs in creation order.
func (m *MusicCatalog) SongIDs() []int {
	ids := make([]int, len(m.Songs))
	for i, song := range m.Songs {
		ids[i] = song.ID
	}

	return ids
}

// DeferRegistryCleanup schedules deletion of everything the client records
// during the current spec. It runs whether the spec passes or fails.
func DeferRegistryCleanup(client *APIClient) {
	DeferCleanup(func(ctx SpecContext) {
		reports := NewCleaner(client).CleanupAll(ctx, client.Registry())
		for _, report := range reports {
			if len(report.Failed) > 0 {
				GinkgoWriter.Printf("Warning: Failed to delete %s %v\n", report.Kind, report.Failed)
			}
		}
	})
}

// CreateArtistWithCleanup creates an artist, failing the spec on error.
func CreateArtistWithCleanup(client *APIClient, ctx context.Context, payload ArtistPayload) *Artist {
	artist, err := client.Artists().Create(ctx, payload)
	Expect(err).NotTo(HaveOccurred())

	scheduleDelete(client, KindArtists, artist.ID)

	return artist
}

// CreateUserWithCleanup creates a catalog user, failing the spec on error.
func CreateUserWithCleanup(client *APIClient, ctx context.Context, payload UserPayload) *User {
	user, err := client.Users().Create(ctx, payload)
	Expect(err).NotTo(HaveOccurred())

	scheduleDelete(client, KindUsers, user.ID)

	return user
}

// CreateMusicCatalogWithCleanup creates artist, album and songs as one
// ordered chain, wiring each child to its parent.
func CreateMusicCatalogWithCleanup(client *APIClient, ctx context.Context, data MusicTestData) *MusicCatalog {
	catalog := &MusicCatalog{}

	err := Chain(ctx,
		Step{
			Name: "create artist",
			Run: func(ctx context.Context) error {
				artist, err := client.Artists().Create(ctx, data.Artist)
				catalog.Artist = artist

				return err
			},
		},
		Step{
			Name: "create album",
			Run: func(ctx context.Context) error {
				data.Album.ArtistID = ptr.To(catalog.Artist.ID)

				album, err := client.Albums().Create(ctx, data.Album)
				catalog.Album = album

				return err
			},
		},
		Step{
			Name: "create songs",
			Run: func(ctx context.Context) error {
				for _, song := range data.Songs {
					song.AlbumID = ptr.To(catalog.Album.ID)

					created, err := client.Songs().Create(ctx, song)
					if err != nil {
						return err
					}

					catalog.Songs = append(catalog.Songs, created)
				}

				return nil
			},
		},
	)

	// Anything created before a failure still needs removing.
	if catalog.Artist != nil {
		scheduleDelete(client, KindArtists, catalog.Artist.ID)
	}

	if catalog.Album != nil {
		scheduleDelete(client, KindAlbums, catalog.Album.ID)
	}

	for _, song := range catalog.Songs {
		scheduleDelete(client, KindSongs, song.ID)
	}

	Expect(err).NotTo(HaveOccurred())

	return catalog
}

// scheduleDelete moves an ID from the registry to a spec scoped cleanup.
// Cleanups run in reverse order of registration so children created after
// their parents are deleted first. Resources the run did not create, such as
// an existing artist returned after a conflict, are left alone.
func scheduleDelete(client *APIClient, kind Kind, id int) {
	if !client.Registry().Forget(kind, id) {
		GinkgoWriter.Printf("Not cleaning up %s %d, it existed before the run\n", kind, id)
		return
	}

	DeferCleanup(func(ctx SpecContext) {
		GinkgoWriter.Printf("Cleaning up %s: %d\n", kind, id)

		report := NewCleaner(client).CleanupList(ctx, kind, []int{id})
		if len(report.Failed) > 0 {
			GinkgoWriter.Printf("Warning: Failed to delete %s %d, it may already be gone\n", kind, id)
		} else {
			GinkgoWriter.Printf("Successfully deleted %s: %d\n", kind, id)
		}
	})
}

// VerifyFavorites asserts the user's favorites are exactly the expected songs.
func VerifyFavorites(user *User, expected ...int) {
	missing, extra := FavoritesDiff(user, expected...)

	Expect(missing).To(BeEmpty(), "favorites of user %d are missing songs", user.ID)
	Expect(extra).To(BeEmpty(), "favorites of user %d have unexpected songs", user.ID)
	Expect(user.Favorites).To(HaveLen(len(expected)), "favorites of user %d contain duplicates", user.ID)
}

// VerifyArtistPresence asserts every expected artist is in the list.
func VerifyArtistPresence(artists []Artist, expectedIDs []int) {
	ids := make([]int, len(artists))
	for i := range artists {
		ids[i] = artists[i].ID
	}

	for _, id := range expectedIDs {
		Expect(ids).To(ContainElement(id), "artist %d should be listed", id)
	}
}
