package user

import (
	"context"
	"strings"
	"sync"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/services/gamification"
)

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	// afterGet runs once after the next GetByID, outside the lock
	afterGet func()
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[string]*models.User{}}
}

func clone(u *models.User) *models.User {
	cp := *u
	cp.Sessions = append([]models.Session(nil), u.Sessions...)
	return &cp
}

func (m *memoryUserRepo) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	m.users[u.ID] = clone(u)
	return nil
}

func (m *memoryUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	u, ok := m.users[id]
	var cp *models.User
	if ok {
		cp = clone(u)
	}
	hook := m.afterGet
	m.afterGet = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return nil, database.ErrNotFound
	}
	return cp, nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memoryUserRepo) UpdateProfile(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[u.ID]
	if !ok {
		return nil, database.ErrNotFound
	}
	stored.Name = u.Name
	stored.PhoneNumber = u.PhoneNumber
	stored.Province = u.Province
	stored.City = u.City
	stored.ProfileImage = u.ProfileImage
	stored.FCMToken = u.FCMToken
	return clone(stored), nil
}

func (m *memoryUserRepo) SetPassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[id]
	if !ok {
		return database.ErrNotFound
	}
	stored.PasswordHash = passwordHash
	return nil
}

func (m *memoryUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryUserRepo) List(_ context.Context, filter models.UserListFilter) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, *clone(u))
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryUserRepo) SaveSession(_ context.Context, userID string, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	kept := []models.Session{}
	for _, existing := range u.Sessions {
		if existing.DeviceID != s.DeviceID {
			kept = append(kept, existing)
		}
	}
	u.Sessions = append(kept, s)
	return nil
}

func (m *memoryUserRepo) RemoveSession(_ context.Context, userID, deviceID string) error {
	_, err := m.RemoveSessionsMatching(userID, func(d string) bool { return d == deviceID })
	return err
}

func (m *memoryUserRepo) RemoveSessions(_ context.Context, userID, keepDeviceID string) ([]string, error) {
	return m.RemoveSessionsMatching(userID, func(d string) bool { return d != keepDeviceID })
}

func (m *memoryUserRepo) RemoveSessionsMatching(userID string, drop func(string) bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	var removed []string
	kept := []models.Session{}
	for _, s := range u.Sessions {
		if drop(s.DeviceID) {
			removed = append(removed, s.DeviceID)
		} else {
			kept = append(kept, s)
		}
	}
	u.Sessions = kept
	return removed, nil
}

type fakeRewarder struct {
	profiles []string
	awards   []string
	removed  []string
}

func (f *fakeRewarder) RemoveProfile(_ context.Context, userID string) error {
	f.removed = append(f.removed, userID)
	return nil
}

type fakeTechnicianProfiles struct {
	techs map[string]*models.Technician
}

func (f *fakeTechnicianProfiles) GetByUserID(_ context.Context, userID string) (*models.Technician, error) {
	for _, t := range f.techs {
		if t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeTechnicianProfiles) SetActive(_ context.Context, id string, active bool) error {
	t, ok := f.techs[id]
	if !ok {
		return database.ErrNotFound
	}
	t.Active = active
	return nil
}

func (f *fakeRewarder) EnsureProfile(_ context.Context, u models.User) error {
	f.profiles = append(f.profiles, u.ID)
	return nil
}

func (f *fakeRewarder) Award(_ context.Context, userID, event, _ string) (*gamification.AwardResult, error) {
	f.awards = append(f.awards, userID+":"+event)
	return &gamification.AwardResult{Points: gamification.PointsFor[event]}, nil
}
