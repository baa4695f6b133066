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

// Package fake is an in-memory stand-in for the music API, used only by the
// harness's own unit tests. It speaks just enough of the HTTP contract for
// the harness to exercise every status it branches on.
package fake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

const (
	KindArtists   = "artists"
	KindAlbums    = "albums"
	KindSongs     = "songs"
	KindPlaylists = "playlists"
	KindUsers     = "users"
)

type record map[string]any

type account struct {
	id       int
	username string
	password string
	admin    bool
}

type injection struct {
	status int
	times  int
}

// Server holds all state behind a single lock.
type Server struct {
	lock sync.Mutex

	apiKey   string
	accounts map[string]account
	tokens   map[string]string

	nextID  int
	records map[string]map[int]record

	unhealthy  int
	requests   int
	injections map[string]*injection
}

// New returns a server accepting the given admin credentials and API key.
func New(username, password, apiKey string) *Server {
	s := &Server{
		apiKey:     apiKey,
		accounts:   map[string]account{},
		tokens:     map[string]string{},
		records:    map[string]map[int]record{},
		injections: map[string]*injection{},
	}

	for _, kind := range []string{KindArtists, KindAlbums, KindSongs, KindPlaylists, KindUsers} {
		s.records[kind] = map[int]record{}
	}

	s.AddAccount(username, password, true)

	return s
}

// AddAccount registers a login.
func (s *Server) AddAccount(username, password string, admin bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.nextID++
	s.accounts[username] = account{id: s.nextID, username: username, password: password, admin: admin}
}

// SetUnhealthy makes the next n healthchecks report unavailable.
func (s *Server) SetUnhealthy(n int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.unhealthy = n
}

// Inject answers the next times requests matching method and path with status.
func (s *Server) Inject(method, path string, status, times int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.injections[method+" "+path] = &injection{status: status, times: times}
}

// Requests returns the number of requests served.
func (s *Server) Requests() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.requests
}

// Count returns the number of stored resources of a kind.
func (s *Server) Count(kind string) int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.records[kind])
}

// Exists reports whether a resource is stored.
func (s *Server) Exists(kind string, id int) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, ok := s.records[kind][id]

	return ok
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.middleware)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "music catalog api"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/token", s.token)
		r.Get("/healthcheck", s.health)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticated)

			r.Get("/me", s.me)

			for _, kind := range []string{KindArtists, KindAlbums, KindSongs, KindPlaylists, KindUsers} {
				r.Post("/"+kind+"/", s.create(kind))
				r.Get("/"+kind+"/", s.list(kind))
				r.Get("/"+kind+"/{id}", s.get(kind))
				r.Put("/"+kind+"/{id}", s.update(kind))
				r.Delete("/"+kind+"/{id}", s.remove(kind))
			}

			r.Post("/users/{id}/favorites/{songID}", s.addFavorite)
			r.Delete("/users/{id}/favorites/{songID}", s.removeFavorite)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func detail(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]any{"detail": fmt.Sprintf(format, args...)})
}

func validationError(w http.ResponseWriter, location ...string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{
			{"loc": location, "msg": "invalid value", "type": "value_error"},
		},
	})
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.requests++

		key := r.Method + " " + r.URL.Path
		inj, ok := s.injections[key]

		if ok {
			inj.times--
			if inj.times <= 0 {
				delete(s.injections, key)
			}
		}
		s.lock.Unlock()

		if ok {
			detail(w, inj.status, "injected failure")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != s.apiKey {
			detail(w, http.StatusForbidden, "Invalid or missing API key")
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		s.lock.Lock()
		_, ok = s.tokens[token]
		s.lock.Unlock()

		if !ok {
			detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) accountJSON(a account) map[string]any {
	return map[string]any{
		"id":        a.id,
		"username":  a.username,
		"email":     a.username + "@example.com",
		"is_admin":  a.admin,
		"is_active": true,
	}
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-API-KEY") != s.apiKey {
		detail(w, http.StatusForbidden, "Invalid or missing API key")
		return
	}

	if err := r.ParseForm(); err != nil {
		validationError(w, "body")
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	if username == "" || password == "" {
		validationError(w, "body", "username")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	a, ok := s.accounts[username]
	if !ok || a.password != password {
		detail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token := fmt.Sprintf("token-%d-%d", a.id, len(s.tokens)+1)
	s.tokens[token] = username

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         s.accountJSON(a),
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.lock.Lock()
	defer s.lock.Unlock()

	writeJSON(w, http.StatusOK, s.accountJSON(s.accounts[s.tokens[token]]))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.unhealthy > 0 {
		s.unhealthy--
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "starting"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "database_connection": "connected"})
}

//nolint:gochecknoglobals
var (
	required = map[string][]string{
		KindArtists:   {"name"},
		KindAlbums:    {"title", "release_year"},
		KindSongs:     {"title", "duration", "genre"},
		KindPlaylists: {"name"},
		KindUsers:     {"username", "email"},
	}

	// uniqueKeys are the fields the API enforces uniqueness on.
	uniqueKeys = map[string]string{
		KindArtists: "name",
		KindUsers:   "username",
	}

	conflictMessages = map[string]string{
		KindArtists: "Artist with this name already exists",
		KindUsers:   "User with this username already exists",
	}
)

func decodeBody(r *http.Request) (record, bool) {
	var body record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, false
	}

	return body, body != nil
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, false
	}

	return id, true
}

// conflicts returns true if another record of kind has the same unique key.
func (s *Server) conflicts(kind string, body record, self int) bool {
	key, ok := uniqueKeys[kind]
	if !ok {
		return false
	}

	for id, existing := range s.records[kind] {
		if id != self && existing[key] == body[key] {
			return true
		}
	}

	return false
}

func validFields(kind string, body record) bool {
	for _, field := range required[kind] {
		value, ok := body[field]
		if !ok {
			return false
		}

		if s, isString := value.(string); isString && s == "" {
			return false
		}
	}

	if kind == KindUsers {
		email, _ := body["email"].(string)
		if !strings.Contains(email, "@") {
			return false
		}
	}

	return true
}

func normalise(kind string, id int, body record) record {
	out := record{}
	for k, v := range body {
		out[k] = v
	}

	out["id"] = id

	switch kind {
	case KindArtists:
		if _, ok := out["bio"]; !ok {
			out["bio"] = ""
		}
	case KindAlbums:
		if _, ok := out["artist_id"]; !ok {
			out["artist_id"] = nil
		}
	case KindSongs:
		if _, ok := out["album_id"]; !ok {
			out["album_id"] = nil
		}
	case KindPlaylists:
		if _, ok := out["description"]; !ok {
			out["description"] = ""
		}

		delete(out, "song_ids")
		out["songs"] = []any{}
	case KindUsers:
		out["favorites"] = []int{}
	}

	return out
}

func (s *Server) create(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(r)
		if !ok || !validFields(kind, body) {
			validationError(w, "body")
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()

		if s.conflicts(kind, body, 0) {
			detail(w, http.StatusConflict, "%s", conflictMessages[kind])
			return
		}

		s.nextID++
		rec := normalise(kind, s.nextID, body)
		s.records[kind][s.nextID] = rec

		writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) list(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit := 0, 100

		if v := r.URL.Query().Get("skip"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				validationError(w, "query", "skip")
				return
			}

			skip = n
		}

		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				validationError(w, "query", "limit")
				return
			}

			limit = n
		}

		s.lock.Lock()
		defer s.lock.Unlock()

		ids := make([]int, 0, len(s.records[kind]))
		for id := range s.records[kind] {
			ids = append(ids, id)
		}

		slices.Sort(ids)

		items := []record{}

		for i, id := range ids {
			if i < skip {
				continue
			}

			if len(items) >= limit {
				break
			}

			items = append(items, s.records[kind][id])
		}

		writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) get(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			validationError(w, "path", "id")
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()

		rec, ok := s.records[kind][id]
		if !ok {
			detail(w, http.StatusNotFound, "%s not found", kind)
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) update(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			validationError(w, "path", "id")
			return
		}

		body, ok := decodeBody(r)
		if !ok {
			validationError(w, "body")
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()

		rec, ok := s.records[kind][id]
		if !ok {
			detail(w, http.StatusNotFound, "%s not found", kind)
			return
		}

		if s.conflicts(kind, body, id) {
			detail(w, http.StatusConflict, "%s", conflictMessages[kind])
			return
		}

		for k, v := range body {
			if k == "id" || k == "favorites" || k == "song_ids" {
				continue
			}

			rec[k] = v
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) remove(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			validationError(w, "path", "id")
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()

		if _, ok := s.records[kind][id]; !ok {
			detail(w, http.StatusNotFound, "%s not found", kind)
			return
		}

		s.cascade(kind, id)

		w.WriteHeader(http.StatusNoContent)
	}
}

// cascade deletes a record and everything that depends on it.
func (s *Server) cascade(kind string, id int) {
	delete(s.records[kind], id)

	child, parentField := "", ""

	switch kind {
	case KindArtists:
		child, parentField = KindAlbums, "artist_id"
	case KindAlbums:
		child, parentField = KindSongs, "album_id"
	default:
		return
	}

	for childID, rec := range s.records[child] {
		if parentID, ok := rec[parentField].(float64); ok && int(parentID) == id {
			s.cascade(child, childID)
		}
	}
}

func (s *Server) favoriteIDs(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	userID, ok := pathID(r, "id")
	if !ok {
		validationError(w, "path", "id")
		return 0, 0, false
	}

	songID, ok := pathID(r, "songID")
	if !ok {
		validationError(w, "path", "song_id")
		return 0, 0, false
	}

	return userID, songID, true
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	userID, songID, ok := s.favoriteIDs(w, r)
	if !ok {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	user, ok := s.records[KindUsers][userID]
	if !ok {
		detail(w, http.StatusNotFound, "User not found")
		return
	}

	if _, ok := s.records[KindSongs][songID]; !ok {
		detail(w, http.StatusNotFound, "Song not found")
		return
	}

	favorites, _ := user["favorites"].([]int)
	if slices.Contains(favorites, songID) {
		detail(w, http.StatusConflict, "Song already in favorites")
		return
	}

	user["favorites"] = append(favorites, songID)

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	userID, songID, ok := s.favoriteIDs(w, r)
	if !ok {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	user, ok := s.records[KindUsers][userID]
	if !ok {
		detail(w, http.StatusNotFound, "User not found")
		return
	}

	favorites, _ := user["favorites"].([]int)

	index := slices.Index(favorites, songID)
	if index < 0 {
		detail(w, http.StatusNotFound, "Song not in favorites")
		return
	}

	user["favorites"] = slices.Delete(slices.Clone(favorites), index, index+1)

	writeJSON(w, http.StatusOK, user)
}
