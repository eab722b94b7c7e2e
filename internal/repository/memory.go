package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/novelfinder/novelfinder-go/internal/model"
)

// memoryState is shared by the in-memory user and favorite stores so that
// favorites can check the user exists, like the foreign key does in SQL.
type memoryState struct {
	mu        sync.RWMutex
	nextID    int64
	users     map[int64]*model.User
	byName    map[string]int64
	favorites map[int64]map[string]model.Favorite
}

// NewMemoryStores returns process-local stores. Data is lost on restart.
func NewMemoryStores() *Stores {
	st := &memoryState{
		users:     make(map[int64]*model.User),
		byName:    make(map[string]int64),
		favorites: make(map[int64]map[string]model.Favorite),
	}
	return &Stores{
		Users:     &memoryUsers{st: st},
		Favorites: &memoryFavorites{st: st},
	}
}

type memoryUsers struct {
	st *memoryState
}

func (m *memoryUsers) Create(_ context.Context, user *model.User) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()

	if _, exists := m.st.byName[user.Username]; exists {
		return ErrDuplicateUsername
	}

	m.st.nextID++
	user.ID = m.st.nextID

	stored := *user
	m.st.users[user.ID] = &stored
	m.st.byName[user.Username] = user.ID
	return nil
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.st.mu.RLock()
	defer m.st.mu.RUnlock()

	id, ok := m.st.byName[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *m.st.users[id]
	return &u, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.st.mu.RLock()
	defer m.st.mu.RUnlock()

	stored, ok := m.st.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *stored
	return &u, nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	return m.update(id, func(u *model.User) { u.PasswordHash = hash })
}

func (m *memoryUsers) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	return m.update(id, func(u *model.User) { u.LastLogin = at })
}

func (m *memoryUsers) IncrementDownloads(_ context.Context, id int64) error {
	return m.update(id, func(u *model.User) { u.DownloadCount++ })
}

func (m *memoryUsers) update(id int64, fn func(*model.User)) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()

	u, ok := m.st.users[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(u)
	return nil
}

type memoryFavorites struct {
	st *memoryState
}

func (m *memoryFavorites) Upsert(_ context.Context, fav *model.Favorite) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()

	if _, ok := m.st.users[fav.UserID]; !ok {
		return ErrUserNotFound
	}

	byTitle, ok := m.st.favorites[fav.UserID]
	if !ok {
		byTitle = make(map[string]model.Favorite)
		m.st.favorites[fav.UserID] = byTitle
	}
	byTitle[fav.NovelTitle] = *fav
	return nil
}

func (m *memoryFavorites) Delete(_ context.Context, userID int64, title string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()

	delete(m.st.favorites[userID], title)
	return nil
}

func (m *memoryFavorites) ListByUser(_ context.Context, userID int64) ([]model.Favorite, error) {
	m.st.mu.RLock()
	defer m.st.mu.RUnlock()

	byTitle := m.st.favorites[userID]
	favs := make([]model.Favorite, 0, len(byTitle))
	for _, f := range byTitle {
		favs = append(favs, f)
	}

	sort.Slice(favs, func(i, j int) bool {
		if !favs[i].AddedAt.Equal(favs[j].AddedAt) {
			return favs[i].AddedAt.After(favs[j].AddedAt)
		}
		return favs[i].NovelTitle < favs[j].NovelTitle
	})
	return favs, nil
}

func (m *memoryFavorites) CountByUser(_ context.Context, userID int64) (int, error) {
	m.st.mu.RLock()
	defer m.st.mu.RUnlock()

	return len(m.st.favorites[userID]), nil
}
