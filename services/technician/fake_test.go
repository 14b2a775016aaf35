package technician

import (
	"context"
	"io"
	"sync"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/services/storage"
)

type memoryRepo struct {
	mu    sync.Mutex
	techs map[string]models.Technician
	// afterGet runs once after the next GetByID, outside the lock
	afterGet func()
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{techs: map[string]models.Technician{}}
}

func (m *memoryRepo) Create(_ context.Context, t *models.Technician) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.techs {
		if existing.UserID == t.UserID {
			return database.ErrDuplicate
		}
	}
	m.techs[t.ID] = *t
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*models.Technician, error) {
	m.mu.Lock()
	t, ok := m.techs[id]
	hook := m.afterGet
	m.afterGet = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return nil, database.ErrNotFound
	}
	return &t, nil
}

func (m *memoryRepo) GetByUserID(_ context.Context, userID string) (*models.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.techs {
		if t.UserID == userID {
			cp := t
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memoryRepo) GetByIDs(_ context.Context, ids []string) ([]models.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Technician
	for _, id := range ids {
		if t, ok := m.techs[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateProfile(_ context.Context, t *models.Technician) (*models.Technician, error) {
	return m.mutate(t.ID, func(stored *models.Technician) {
		stored.DisplayName = t.DisplayName
		stored.Bio = t.Bio
		stored.Specializations = t.Specializations
		stored.Province = t.Province
		stored.City = t.City
		stored.Location = t.Location
		stored.HourlyRate = t.HourlyRate
		stored.YearsExperience = t.YearsExperience
		stored.Active = t.Active
	})
}

func (m *memoryRepo) SetAvailability(_ context.Context, id string, windows []models.AvailabilityWindow) (*models.Technician, error) {
	return m.mutate(id, func(t *models.Technician) { t.Availability = windows })
}

func (m *memoryRepo) SetVerification(_ context.Context, id string, verified bool, status string) (*models.Technician, error) {
	return m.mutate(id, func(t *models.Technician) {
		t.Verified = verified
		t.VerificationStatus = status
	})
}

func (m *memoryRepo) SetProfileImage(_ context.Context, id, url string) (*models.Technician, error) {
	return m.mutate(id, func(t *models.Technician) { t.ProfileImage = url })
}

func (m *memoryRepo) SetActive(_ context.Context, id string, active bool) error {
	_, err := m.mutate(id, func(t *models.Technician) { t.Active = active })
	return err
}

func (m *memoryRepo) mutate(id string, fn func(*models.Technician)) (*models.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.techs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	fn(&t)
	m.techs[id] = t
	return &t, nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.techs[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.techs, id)
	return nil
}

func (m *memoryRepo) Search(_ context.Context, c models.TechnicianSearchCriteria) ([]models.Technician, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Technician
	for _, t := range m.techs {
		if c.Province != "" && t.Province != c.Province {
			continue
		}
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) IncrementCompletedJobs(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.techs[id]
	if !ok {
		return database.ErrNotFound
	}
	t.CompletedJobs += delta
	m.techs[id] = t
	return nil
}

func (m *memoryRepo) ApplyRating(_ context.Context, id string, rating int) (*models.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.techs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	t.AddRating(rating)
	m.techs[id] = t
	return &t, nil
}

type stubUsers map[string]*models.User

func (s stubUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

type fakeStorage struct {
	uploads []string
}

func (f *fakeStorage) UploadImage(_ context.Context, file io.Reader, folder, name string) (*storage.UploadedImage, error) {
	if _, err := io.ReadAll(file); err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, folder+"/"+name)
	return &storage.UploadedImage{PublicID: folder + "/" + name, URL: "https://img.example/" + folder + "/" + name}, nil
}

func (f *fakeStorage) DeleteFile(context.Context, string) error { return nil }
