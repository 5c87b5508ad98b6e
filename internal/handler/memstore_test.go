package handler

import (
    "context"
    "sync"
    "time"

    "github.com/iliyamo/learning-platform/internal/model"
    "github.com/iliyamo/learning-platform/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories.
type memStore struct {
    mu       sync.Mutex
    users    map[string]model.User
    sessions map[string]model.Session
    resets   []model.PasswordReset
    profiles map[string]model.Profile
    progress map[string]map[string]bool
}

func newMemStore() *memStore {
    return &memStore{
        users:    map[string]model.User{},
        sessions: map[string]model.Session{},
        profiles: map[string]model.Profile{},
        progress: map[string]map[string]bool{},
    }
}

type memUsers struct{ *memStore }
type memSessions struct{ *memStore }
type memResets struct{ *memStore }
type memProfiles struct{ *memStore }
type memProgress struct{ *memStore }

func (m memUsers) Create(_ context.Context, u model.User) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, x := range m.users {
        if x.Email == u.Email {
            return repository.ErrEmailExists
        }
    }
    m.users[u.ID] = u
    return nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, x := range m.users {
        if x.Email == repository.NormalizeEmail(email) {
            return x, nil
        }
    }
    return model.User{}, repository.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id string) (model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    u, ok := m.users[id]
    if !ok {
        return model.User{}, repository.ErrNotFound
    }
    return u, nil
}

func (m memUsers) List(_ context.Context, limit int) ([]model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.User{}
    for _, u := range m.users {
        if len(out) == limit {
            break
        }
        out = append(out, u)
    }
    return out, nil
}

func (m memUsers) UpdatePassword(_ context.Context, id, hash string, now time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    u := m.users[id]
    u.PasswordHash, u.UpdatedAt = hash, now
    m.users[id] = u
    return nil
}

func (m memSessions) Create(_ context.Context, s model.Session) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.sessions[s.ID] = s
    return nil
}

func (m memSessions) Get(_ context.Context, id string) (model.Session, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.sessions[id]
    if !ok {
        return model.Session{}, repository.ErrNotFound
    }
    return s, nil
}

func (m memSessions) Delete(_ context.Context, id string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.sessions, id)
    return nil
}

func (m memSessions) DeleteAllForUser(_ context.Context, userID, exceptID string) (int64, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var n int64
    for id, s := range m.sessions {
        if s.UserID == userID && id != exceptID {
            delete(m.sessions, id)
            n++
        }
    }
    return n, nil
}

func (m memResets) Create(_ context.Context, pr model.PasswordReset) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.resets = append(m.resets, pr)
    return nil
}

func (m memResets) Latest(_ context.Context, userID, code string) (model.PasswordReset, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for i := len(m.resets) - 1; i >= 0; i-- {
        if r := m.resets[i]; r.UserID == userID && r.Code == code {
            return r, nil
        }
    }
    return model.PasswordReset{}, repository.ErrNotFound
}

func (m memResets) MarkUsed(_ context.Context, id string, now time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for i, r := range m.resets {
        if r.ID == id && !r.Used && !now.After(r.ExpiresAt) {
            m.resets[i].Used = true
            return nil
        }
    }
    return repository.ErrConflict
}

func (m memResets) Release(_ context.Context, id string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for i, r := range m.resets {
        if r.ID == id {
            m.resets[i].Used = false
        }
    }
    return nil
}

func (m memProfiles) Get(_ context.Context, userID string) (model.Profile, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    p, ok := m.profiles[userID]
    if !ok {
        return model.Profile{}, repository.ErrNotFound
    }
    return p, nil
}

func (m memProfiles) Upsert(_ context.Context, p model.Profile) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.profiles[p.UserID] = p
    return nil
}

func (m memProgress) List(_ context.Context, userID, trackID string) ([]string, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []string{}
    for task := range m.progress[userID+"/"+trackID] {
        out = append(out, task)
    }
    return out, nil
}

func (m memProgress) Set(_ context.Context, userID, trackID, taskID string, completed bool) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    k := userID + "/" + trackID
    if m.progress[k] == nil {
        m.progress[k] = map[string]bool{}
    }
    if completed {
        m.progress[k][taskID] = true
    } else {
        delete(m.progress[k], taskID)
    }
    return nil
}

func (m *memStore) userCount() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    return len(m.users)
}

func (m *memStore) sessionCount() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    return len(m.sessions)
}
