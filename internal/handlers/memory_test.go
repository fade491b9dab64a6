package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/life-master/apiserver/internal/pagination"
	"github.com/life-master/apiserver/internal/services"
	"github.com/life-master/apiserver/internal/storage"
	"github.com/life-master/apiserver/internal/store"
	"github.com/life-master/apiserver/types"
)

// In-memory fakes standing in for the Postgres repositories. They apply the
// same owner-scoping rules so handler behavior matches production.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]types.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsernameOrEmail(_ context.Context, identifier string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return types.User{}, store.ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) UpdateEmail(_ context.Context, id int64, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	for _, existing := range r.users {
		if existing.ID != id && existing.Email == email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.Email = email
	r.users[id] = user
	return user, nil
}

func (r *fakeUserRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.LastLogin = &at
	r.users[id] = user
	return nil
}

// fakeLinks stores join-table rows keyed orientation-independently, the way
// RelationBetween resolves either direction onto the same table.
type fakeLinks struct {
	mu    sync.Mutex
	pairs map[string]bool
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{pairs: make(map[string]bool)}
}

func linkKey(table, colA string, idA int64, colB string, idB int64) string {
	a := fmt.Sprintf("%s=%d", colA, idA)
	b := fmt.Sprintf("%s=%d", colB, idB)
	if a > b {
		a, b = b, a
	}
	return table + "|" + a + "|" + b
}

func (l *fakeLinks) Add(_ context.Context, joinTable, parentColumn, childColumn string, parentID, childID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pairs[linkKey(joinTable, parentColumn, parentID, childColumn, childID)] = true
	return nil
}

func (l *fakeLinks) Remove(_ context.Context, joinTable, parentColumn, childColumn string, parentID, childID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pairs, linkKey(joinTable, parentColumn, parentID, childColumn, childID))
	return nil
}

func (l *fakeLinks) linked(rel types.Relation, parentID, childID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pairs[linkKey(rel.JoinTable, rel.ParentColumn, parentID, rel.ChildColumn, childID)]
}

type fakeResourceRepo[T types.Entity] struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]T
	setID  func(T, int64) T
	links  *fakeLinks
}

func newFakeResourceRepo[T types.Entity](links *fakeLinks, setID func(T, int64) T) *fakeResourceRepo[T] {
	return &fakeResourceRepo[T]{
		items: make(map[int64]T),
		setID: setID,
		links: links,
	}
}

func (r *fakeResourceRepo[T]) owned(ownerID int64) []T {
	var out []T
	for _, item := range r.items {
		if item.OwnerID() == ownerID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID() < out[j].EntityID() })
	return out
}

func (r *fakeResourceRepo[T]) count(ownerID int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.owned(ownerID)))
}

func paginate[T any](items []T, pr types.PageRequest) ([]T, int64) {
	total := int64(len(items))
	offset := pr.Offset()
	if offset >= len(items) {
		return nil, total
	}
	end := offset + pr.Size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], total
}

func (r *fakeResourceRepo[T]) List(_ context.Context, ownerID int64, pr types.PageRequest) (types.Page[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, total := paginate(r.owned(ownerID), pr)
	return pagination.NewPage(content, pr, total), nil
}

func (r *fakeResourceRepo[T]) ListRelated(_ context.Context, ownerID int64, rel types.Relation, parentID int64, pr types.PageRequest) (types.Page[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var related []T
	for _, item := range r.owned(ownerID) {
		if r.links.linked(rel, parentID, item.EntityID()) {
			related = append(related, item)
		}
	}
	content, total := paginate(related, pr)
	return pagination.NewPage(content, pr, total), nil
}

func (r *fakeResourceRepo[T]) Get(_ context.Context, ownerID, id int64) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.OwnerID() != ownerID {
		var zero T
		return zero, store.ErrNotFound
	}
	return item, nil
}

func (r *fakeResourceRepo[T]) Create(_ context.Context, item T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item = r.setID(item, r.nextID)
	r.items[item.EntityID()] = item
	return item, nil
}

func (r *fakeResourceRepo[T]) Update(_ context.Context, item T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[item.EntityID()]
	if !ok || existing.OwnerID() != item.OwnerID() {
		var zero T
		return zero, store.ErrNotFound
	}
	r.items[item.EntityID()] = item
	return item, nil
}

func (r *fakeResourceRepo[T]) Delete(_ context.Context, ownerID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.OwnerID() != ownerID {
		return store.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// fakeEntities answers owner-scoped existence across all four kinds.
type fakeEntities struct {
	categories *fakeResourceRepo[types.Category]
	tasks      *fakeResourceRepo[types.Task]
	notes      *fakeResourceRepo[types.Note]
	habits     *fakeResourceRepo[types.Habit]
}

func (e *fakeEntities) Exists(ctx context.Context, ownerID int64, kind types.Kind, id int64) (bool, error) {
	var err error
	switch kind {
	case types.KindCategory:
		_, err = e.categories.Get(ctx, ownerID, id)
	case types.KindTask:
		_, err = e.tasks.Get(ctx, ownerID, id)
	case types.KindNote:
		_, err = e.notes.Get(ctx, ownerID, id)
	case types.KindHabit:
		_, err = e.habits.Get(ctx, ownerID, id)
	default:
		return false, nil
	}
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (e *fakeEntities) CountByOwner(_ context.Context, ownerID int64) (map[types.Kind]int64, error) {
	return map[types.Kind]int64{
		types.KindCategory: e.categories.count(ownerID),
		types.KindTask:     e.tasks.count(ownerID),
		types.KindNote:     e.notes.count(ownerID),
		types.KindHabit:    e.habits.count(ownerID),
	}, nil
}

type fakeFileRepo struct {
	mu     sync.Mutex
	nextID int64
	files  map[int64]types.FileAttachment
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[int64]types.FileAttachment)}
}

func (r *fakeFileRepo) Create(_ context.Context, file types.FileAttachment) (types.FileAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	file.ID = r.nextID
	file.UploadDate = time.Now()
	r.files[file.ID] = file
	return file, nil
}

func (r *fakeFileRepo) Get(_ context.Context, ownerID, id int64) (types.FileAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok || file.UserID != ownerID {
		return types.FileAttachment{}, store.ErrNotFound
	}
	return file, nil
}

func (r *fakeFileRepo) ListByEntity(_ context.Context, ownerID int64, kind types.Kind, entityID int64) ([]types.FileAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.FileAttachment
	for _, file := range r.files {
		if file.UserID == ownerID && file.EntityType == kind && file.EntityID == entityID {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFileRepo) Delete(_ context.Context, ownerID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok || file.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

// testEnv wires the full API router over the fakes, mirroring the server
// package's production wiring.
type testEnv struct {
	router *chi.Mux
}

const testMaxUpload = 1 << 20

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	links := newFakeLinks()
	categories := newFakeResourceRepo(links, func(c types.Category, id int64) types.Category { c.ID = id; return c })
	tasks := newFakeResourceRepo(links, func(v types.Task, id int64) types.Task { v.ID = id; return v })
	notes := newFakeResourceRepo(links, func(n types.Note, id int64) types.Note { n.ID = id; return n })
	habits := newFakeResourceRepo(links, func(h types.Habit, id int64) types.Habit { h.ID = id; return h })

	entities := &fakeEntities{categories: categories, tasks: tasks, notes: notes, habits: habits}

	resources := &Resources{
		Categories: services.NewResourceService[types.Category](categories, types.KindCategory, nil),
		Tasks:      services.NewResourceService[types.Task](tasks, types.KindTask, nil),
		Notes:      services.NewResourceService[types.Note](notes, types.KindNote, nil),
		Habits:     services.NewResourceService[types.Habit](habits, types.KindHabit, nil),
		Relations:  services.NewRelationService(entities, links),
	}

	fileService := services.NewFileService(
		newFakeFileRepo(),
		entities,
		storage.NewStorage(storage.NewMemoryStore("test")),
		testMaxUpload,
		nil,
	)

	userService := services.NewUserService(newFakeUserRepo())
	authHandler := NewAuthHandler(userService, "test-secret", time.Hour)

	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			AuthRouter(r, authHandler)
		})
		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireAuth)
			ResourceRoutes(r, resources)
			r.Route("/users", func(r chi.Router) {
				UserRouter(r, NewUserHandler(userService))
			})
			r.Get("/dashboard-stats", NewDashboardHandler(entities).Stats)
			r.Route("/files", func(r chi.Router) {
				FileRouter(r, NewFileHandler(fileService))
			})
		})
	})

	return &testEnv{router: router}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) register(t *testing.T, username string) {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, rec.Code, rec.Body.String())
	}
}

func (env *testEnv) login(t *testing.T, username string) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"usernameOrEmail": username,
		"password":        "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", username, rec.Code, rec.Body.String())
	}

	var parsed LoginResponse
	decodeResponse(t, rec, &parsed)
	if parsed.Token == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return parsed.Token
}

func (env *testEnv) signup(t *testing.T, username string) string {
	t.Helper()
	env.register(t, username)
	return env.login(t, username)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decode response %q: %v", strings.TrimSpace(rec.Body.String()), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var parsed ErrorResponse
	decodeResponse(t, rec, &parsed)
	return parsed.Error
}
