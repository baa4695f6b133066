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
	"encoding/json"
	"fmt"
)

// Kind names a resource collection of the music API.
type Kind string

const (
	KindArtists   Kind = "artists"
	KindAlbums    Kind = "albums"
	KindSongs     Kind = "songs"
	KindPlaylists Kind = "playlists"
	KindUsers     Kind = "users"
)

// TeardownOrder deletes dependents before the things they depend on.
//
//nolint:gochecknoglobals
var TeardownOrder = []Kind{KindPlaylists, KindSongs, KindAlbums, KindArtists, KindUsers}

// ParseKind converts a user supplied collection name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindArtists, KindAlbums, KindSongs, KindPlaylists, KindUsers:
		return k, nil
	}

	return "", fmt.Errorf("%w: resource kind %q", ErrUnknownVariant, s)
}

// Request payloads.

type ArtistPayload struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

type AlbumPayload struct {
	Title       string `json:"title"`
	ReleaseYear int    `json:"release_year"`
	ArtistID    *int   `json:"artist_id,omitempty"`
}

type SongPayload struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Genre    string  `json:"genre"`
	AlbumID  *int    `json:"album_id,omitempty"`
}

type PlaylistPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SongIDs     []int  `json:"song_ids"`
}

type UserPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Favorites []int  `json:"favorites"`
}

// APIUserPayload is an account that can log in, as opposed to a catalog user.
type APIUserPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// MusicTestData is a coherent artist/album/songs/playlist set for integration flows.
type MusicTestData struct {
	Artist   ArtistPayload
	Album    AlbumPayload
	Songs    []SongPayload
	Playlist PlaylistPayload
}

// Resources as returned by the API.

type Artist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

type Album struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseYear int    `json:"release_year"`
	ArtistID    int    `json:"artist_id"`
}

type Song struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Genre    string  `json:"genre"`
	AlbumID  int     `json:"album_id"`
}

type Playlist struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Songs       []json.RawMessage `json:"songs"`
}

type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Favorites []int  `json:"favorites"`
}

// HasFavorite reports whether songID is one of the user's favorites.
func (u *User) HasFavorite(songID int) bool {
	for _, id := range u.Favorites {
		if id == songID {
			return true
		}
	}

	return false
}

// AccountUser is the authenticated principal embedded in a token response.
type AccountUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        AccountUser `json:"user"`
}

type Health struct {
	Status             string `json:"status"`
	DatabaseConnection any    `json:"database_connection"`
}

// ErrorEnvelope is the body of every 4xx/5xx response.
type ErrorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

// Text renders the detail whether the server sent a string or a structure.
func (e *ErrorEnvelope) Text() string {
	if len(e.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}

	return string(e.Detail)
}
