package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/learning-platform/internal/model"
	"github.com/iliyamo/learning-platform/internal/repository"
)

type memUsers struct {
	mu        sync.Mutex
	byID      map[string]model.User
	err       error
	updateErr error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]model.User{}} }

func (m *memUsers) Create(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, x := range m.byID {
		if x.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	for _, x := range m.byID {
		if x.Email == repository.NormalizeEmail(email) {
			return x, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash, u.UpdatedAt = hash, now
	m.byID[id] = u
	return nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memSessions struct {
	mu   sync.Mutex
	rows map[string]model.Session
}

func newMemSessions() *memSessions { return &memSessions{rows: map[string]model.Session{}} }

func (m *memSessions) Create(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return model.Session{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memSessions) DeleteAllForUser(_ context.Context, userID, exceptID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.rows {
		if s.UserID == userID && id != exceptID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.rows {
		if s.ExpiresAt.Before(now) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) forUser(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.rows {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

type memResets struct {
	mu   sync.Mutex
	rows []model.PasswordReset
}

func (m *memResets) Create(_ context.Context, pr model.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, pr)
	return nil
}

func (m *memResets) Latest(_ context.Context, userID, code string) (model.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var match []model.PasswordReset
	for _, r := range m.rows {
		if r.UserID == userID && r.Code == code {
			match = append(match, r)
		}
	}
	if len(match) == 0 {
		return model.PasswordReset{}, repository.ErrNotFound
	}
	sort.Slice(match, func(i, j int) bool { return match[i].CreatedAt.After(match[j].CreatedAt) })
	return match[0], nil
}

func (m *memResets) MarkUsed(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id && !r.Used && !now.After(r.ExpiresAt) {
			m.rows[i].Used = true
			return nil
		}
	}
	return repository.ErrConflict
}

func (m *memResets) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id {
			m.rows[i].Used = false
		}
	}
	return nil
}

func (m *memResets) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (a *recordingAuditor) Record(_ context.Context, e model.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingNotifier struct {
	codes []string
}

func (n *recordingNotifier) ResetCodeIssued(_ context.Context, _ string, code string, _ time.Time) {
	n.codes = append(n.codes, code)
}
