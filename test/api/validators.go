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
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/types"
)

type fieldType int

const (
	numberField fieldType = iota
	parentField
	stringField
	booleanField
	arrayField
	objectField
)

func (t fieldType) matcher() types.GomegaMatcher {
	switch t {
	case numberField:
		return gomega.BeAssignableToTypeOf(float64(0))
	case parentField:
		return gomega.Or(gomega.BeNil(), gomega.BeAssignableToTypeOf(float64(0)))
	case stringField:
		return gomega.BeAssignableToTypeOf("")
	case booleanField:
		return gomega.BeAssignableToTypeOf(false)
	case arrayField:
		return gomega.BeAssignableToTypeOf([]any{})
	case objectField:
		return gomega.BeAssignableToTypeOf(map[string]any{})
	}

	return gomega.BeNil()
}

type field struct {
	name string
	kind fieldType
}

//nolint:gochecknoglobals
var (
	userFields = []field{
		{"id", numberField},
		{"username", stringField},
		{"email", stringField},
		{"favorites", arrayField},
	}

	artistFields = []field{
		{"id", numberField},
		{"name", stringField},
		{"bio", stringField},
	}

	albumFields = []field{
		{"id", numberField},
		{"title", stringField},
		{"release_year", numberField},
		{"artist_id", parentField},
	}

	songFields = []field{
		{"id", numberField},
		{"title", stringField},
		{"duration", numberField},
		{"genre", stringField},
		{"album_id", parentField},
	}

	playlistFields = []field{
		{"id", numberField},
		{"name", stringField},
		{"description", stringField},
		{"songs", arrayField},
	}

	tokenFields = []field{
		{"access_token", stringField},
		{"token_type", stringField},
		{"user", objectField},
	}

	accountFields = []field{
		{"id", numberField},
		{"username", stringField},
		{"email", stringField},
		{"is_admin", booleanField},
		{"is_active", booleanField},
	}
)

func expectFields(g gomega.Gomega, resource string, object map[string]any, fields []field) {
	for _, f := range fields {
		g.Expect(object).To(gomega.HaveKey(f.name), "%s is missing field %q", resource, f.name)
		g.Expect(object[f.name]).To(f.kind.matcher(), "%s field %q has the wrong type", resource, f.name)
	}
}

func ValidateUser(g gomega.Gomega, object map[string]any) {
	expectFields(g, "user", object, userFields)
}

func ValidateArtist(g gomega.Gomega, object map[string]any) {
	expectFields(g, "artist", object, artistFields)
}

func ValidateAlbum(g gomega.Gomega, object map[string]any) {
	expectFields(g, "album", object, albumFields)
}

func ValidateSong(g gomega.Gomega, object map[string]any) {
	expectFields(g, "song", object, songFields)
}

func ValidatePlaylist(g gomega.Gomega, object map[string]any) {
	expectFields(g, "playlist", object, playlistFields)
}

// ValidateToken checks a login response including the embedded principal.
func ValidateToken(g gomega.Gomega, object map[string]any) {
	expectFields(g, "token", object, tokenFields)
	g.Expect(object["token_type"]).To(gomega.Equal(tokenTypeBearer))

	user, _ := object["user"].(map[string]any)
	expectFields(g, "token user", user, accountFields)
}

// ValidateErrorEnvelope checks the body every rejection carries.
func ValidateErrorEnvelope(g gomega.Gomega, object map[string]any) {
	g.Expect(object).To(gomega.HaveKey("detail"), "error response is missing detail")
}

func validatorFor(kind Kind) func(gomega.Gomega, map[string]any) {
	switch kind {
	case KindArtists:
		return ValidateArtist
	case KindAlbums:
		return ValidateAlbum
	case KindSongs:
		return ValidateSong
	case KindPlaylists:
		return ValidatePlaylist
	case KindUsers:
		return ValidateUser
	}

	return func(gomega.Gomega, map[string]any) {}
}
