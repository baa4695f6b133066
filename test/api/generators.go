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
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// Edge case categories understood by EdgeCase.
const (
	EdgeSpecialCharacters = "special-characters"
	EdgeLongContent       = "long-content"
	EdgeMinimalContent    = "minimal-content"
	EdgeUnicode           = "unicode"
)

const (
	apiUserPasswordLength = 12
	musicTestDataSongs    = 3
	longContentNameLength = 255
	longContentParagraphs = 10
)

//nolint:gochecknoglobals
var (
	genres = []string{
		"Rock", "Pop", "Hip-Hop", "Jazz", "Blues", "Country",
		"Electronic", "Classical", "R&B", "Folk", "Reggae",
		"Punk", "Metal", "Alternative", "Indie", "Dance",
	}

	coreGenres = []string{"Rock", "Pop", "Jazz", "Blues"}
	bulkGenres = []string{"Rock", "Pop", "Jazz", "Electronic"}

	// runID identifies this process in unique suffixes so parallel runs
	// against one deployment never collide.
	runID     = strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	uniqueSeq atomic.Uint64
)

// RunID returns the identifier embedded in every unique suffix of this run.
func RunID() string {
	return runID
}

// UniqueSuffix returns a string that is never repeated, within or across runs.
func UniqueSuffix() string {
	return fmt.Sprintf("%s_%d_%d", runID, time.Now().UnixMilli(), uniqueSeq.Add(1))
}

// Unique appends a unique suffix to s.
func Unique(s string) string {
	return s + "_" + UniqueSuffix()
}

// Generator produces randomised, schema-shaped payloads. It is safe for
// concurrent use.
type Generator struct {
	lock   sync.Mutex
	faker  *gofakeit.Faker
	prefix string
}

type GeneratorOption func(*Generator)

// WithPrefix marks every generated name so leaked fixtures can be swept.
func WithPrefix(prefix string) GeneratorOption {
	return func(g *Generator) {
		g.prefix = prefix
	}
}

// NewGenerator returns a generator seeded with seed, zero picks a random seed.
func NewGenerator(seed uint64, opts ...GeneratorOption) *Generator {
	g := &Generator{
		faker: gofakeit.New(seed),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Generator) name(s string) string {
	if g.prefix == "" {
		return s
	}

	return g.prefix + " " + s
}

func (g *Generator) username(s string) string {
	s = strings.ToLower(s)

	if g.prefix == "" {
		return s
	}

	return strings.ToLower(g.prefix) + "_" + s
}

func (g *Generator) words(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = g.faker.LoremIpsumWord()
	}

	return strings.Join(words, " ")
}

func capitalise(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

func (g *Generator) pick(templates ...func() string) string {
	return templates[g.faker.IntRange(0, len(templates)-1)]()
}

func (g *Generator) year(from int) int {
	return g.faker.IntRange(from, time.Now().Year())
}

func (g *Generator) duration(lower, upper float64) float64 {
	return math.Round(g.faker.Float64Range(lower, upper)*10) / 10
}

func (g *Generator) paragraph(sentences int) string {
	return g.faker.LoremIpsumParagraph(1, sentences, 8, " ")
}

func (g *Generator) artist() ArtistPayload {
	return ArtistPayload{
		Name: g.name(g.faker.Name() + " Band"),
		Bio:  g.paragraph(2),
	}
}

func (g *Generator) album() AlbumPayload {
	title := g.pick(
		func() string { return g.words(2) + " Album" },
		func() string { return capitalise(g.faker.LoremIpsumWord()) },
		func() string { return "The " + g.words(2) },
		func() string { return g.words(3) },
		func() string { return g.faker.LoremIpsumWord() + " & " + g.faker.LoremIpsumWord() },
	)

	return AlbumPayload{
		Title:       g.name(title),
		ReleaseYear: g.year(1960),
	}
}

func (g *Generator) song() SongPayload {
	title := g.pick(
		func() string { return g.words(2) },
		func() string { return g.words(3) },
		func() string { return "The " + g.faker.LoremIpsumWord() },
		func() string { return g.faker.LoremIpsumWord() + " Song" },
		func() string { return g.faker.LoremIpsumWord() + " " + g.faker.LoremIpsumWord() },
	)

	return SongPayload{
		Title:    g.name(title),
		Duration: g.duration(120, 360),
		Genre:    g.faker.RandomString(genres),
	}
}

func (g *Generator) playlist() PlaylistPayload {
	name := g.pick(
		func() string { return g.words(2) + " Mix" },
		func() string { return "Best of " + g.faker.LoremIpsumWord() },
		func() string { return g.faker.LoremIpsumWord() + " Vibes" },
		func() string { return g.words(2) + " Playlist" },
		func() string { return "My " + g.words(2) },
		func() string { return g.faker.LoremIpsumWord() + " Collection" },
	)

	return PlaylistPayload{
		Name:        g.name(name),
		Description: g.faker.LoremIpsumSentence(8),
		SongIDs:     []int{},
	}
}

func (g *Generator) user() UserPayload {
	return UserPayload{
		Username:  g.username(g.faker.Username()),
		Email:     g.faker.Email(),
		Favorites: []int{},
	}
}

func (g *Generator) apiUser() APIUserPayload {
	return APIUserPayload{
		Username: g.username(g.faker.Username()),
		Email:    g.faker.Email(),
		Password: g.faker.Password(true, true, true, false, false, apiUserPasswordLength),
		IsAdmin:  g.faker.Bool(),
	}
}

func many[T any](g *Generator, n int, one func() T) []T {
	g.lock.Lock()
	defer g.lock.Unlock()

	out := make([]T, 0, max(n, 0))
	for range n {
		out = append(out, one())
	}

	return out
}

func single[T any](g *Generator, one func() T) T {
	g.lock.Lock()
	defer g.lock.Unlock()

	return one()
}

func (g *Generator) Artist() ArtistPayload {
	return single(g, g.artist)
}

func (g *Generator) Artists(n int) []ArtistPayload {
	return many(g, n, g.artist)
}

func (g *Generator) Album() AlbumPayload {
	return single(g, g.album)
}

func (g *Generator) Albums(n int) []AlbumPayload {
	return many(g, n, g.album)
}

func (g *Generator) Song() SongPayload {
	return single(g, g.song)
}

func (g *Generator) Songs(n int) []SongPayload {
	return many(g, n, g.song)
}

func (g *Generator) Playlist() PlaylistPayload {
	return single(g, g.playlist)
}

func (g *Generator) Playlists(n int) []PlaylistPayload {
	return many(g, n, g.playlist)
}

func (g *Generator) User() UserPayload {
	return single(g, g.user)
}

func (g *Generator) Users(n int) []UserPayload {
	return many(g, n, g.user)
}

func (g *Generator) APIUser() APIUserPayload {
	return single(g, g.apiUser)
}

func (g *Generator) APIUsers(n int) []APIUserPayload {
	return many(g, n, g.apiUser)
}

// MusicTestData returns a coherent set for integration flows: an artist, a
// modern album, three songs in core genres and a playlist.
func (g *Generator) MusicTestData() MusicTestData {
	g.lock.Lock()
	defer g.lock.Unlock()

	data := MusicTestData{
		Artist: ArtistPayload{
			Name: g.name(g.faker.Name() + " Band"),
			Bio:  g.paragraph(2),
		},
		Album: AlbumPayload{
			Title:       g.name(g.words(2) + " Album"),
			ReleaseYear: g.year(1990),
		},
		Playlist: PlaylistPayload{
			Name:        g.name(g.words(2) + " Mix"),
			Description: g.faker.LoremIpsumSentence(8),
			SongIDs:     []int{},
		},
	}

	for range musicTestDataSongs {
		data.Songs = append(data.Songs, SongPayload{
			Title:    g.name(g.words(2)),
			Duration: g.duration(180, 300),
			Genre:    g.faker.RandomString(coreGenres),
		})
	}

	return data
}

// BulkData holds the output of Bulk, only the slice for the requested kind is set.
type BulkData struct {
	Artists []ArtistPayload
	Albums  []AlbumPayload
	Songs   []SongPayload
	Users   []UserPayload
}

// Len returns the number of generated items.
func (b *BulkData) Len() int {
	return len(b.Artists) + len(b.Albums) + len(b.Songs) + len(b.Users)
}

// Bulk generates n indexed items of one kind for volume scenarios.
func (g *Generator) Bulk(kind Kind, n int) (*BulkData, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	switch kind {
	case KindArtists, KindAlbums, KindSongs, KindUsers:
	default:
		return nil, fmt.Errorf("%w: bulk kind %q", ErrUnknownVariant, kind)
	}

	data := &BulkData{}

	for i := range max(n, 0) {
		switch kind {
		case KindArtists:
			data.Artists = append(data.Artists, ArtistPayload{
				Name: g.name(fmt.Sprintf("%s Band %d", g.faker.Name(), i)),
				Bio:  g.paragraph(1),
			})
		case KindAlbums:
			data.Albums = append(data.Albums, AlbumPayload{
				Title:       g.name(fmt.Sprintf("%s Album %d", g.words(2), i)),
				ReleaseYear: g.year(1980),
			})
		case KindSongs:
			data.Songs = append(data.Songs, SongPayload{
				Title:    g.name(fmt.Sprintf("%s Song %d", g.words(2), i)),
				Duration: g.duration(120, 400),
				Genre:    g.faker.RandomString(bulkGenres),
			})
		case KindUsers:
			data.Users = append(data.Users, UserPayload{
				Username:  g.username(fmt.Sprintf("%s%d", g.faker.Username(), i)),
				Email:     g.faker.Email(),
				Favorites: []int{},
			})
		}
	}

	return data, nil
}

const longContentParagraph = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. " +
	"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. " +
	"Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat."

// EdgeCase returns a fixed artist payload exercising one boundary of the
// name and bio fields.
func EdgeCase(category string) (ArtistPayload, error) {
	switch category {
	case EdgeSpecialCharacters:
		return ArtistPayload{
			Name: "Björk & The Über Band's 'Special' Characters",
			Bio:  "Bio with émojis 🎵, quotes \"test\", and symbols: @#$%^&*()",
		}, nil
	case EdgeLongContent:
		paragraphs := make([]string, longContentParagraphs)
		for i := range paragraphs {
			paragraphs[i] = longContentParagraph
		}

		return ArtistPayload{
			Name: strings.Repeat("A", longContentNameLength),
			Bio:  strings.Join(paragraphs, "\n"),
		}, nil
	case EdgeMinimalContent:
		return ArtistPayload{
			Name: "A",
			Bio:  "B",
		}, nil
	case EdgeUnicode:
		return ArtistPayload{
			Name: "пользователь тест 用户测试",
			Bio:  "Biography with unicode: café, naïve, 北京, Москва",
		}, nil
	}

	return ArtistPayload{}, fmt.Errorf("%w: edge case %q", ErrUnknownVariant, category)
}
