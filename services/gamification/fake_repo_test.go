package gamification

import (
	"context"
	"errors"
	"sort"
	"sync"

	"tecnicosrd/database"
	"tecnicosrd/models"
)

type memoryRepo struct {
	mu          sync.Mutex
	profiles    map[string]*models.GamificationProfile
	ledger      []models.PointTransaction
	rewards     map[string]*models.Reward
	redemptions []models.Redemption

	// failIncrements makes the next n IncrementProfile calls fail
	failIncrements  int
	failRedemptions int
	refundErr       error
}

var errStoreDown = errors.New("mongo: write timeout")

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		profiles: map[string]*models.GamificationProfile{},
		rewards:  map[string]*models.Reward{},
	}
}

func cloneProfile(p *models.GamificationProfile) *models.GamificationProfile {
	cp := *p
	cp.Counters = map[string]int{}
	for k, v := range p.Counters {
		cp.Counters[k] = v
	}
	cp.Achievements = append([]models.EarnedAchievement(nil), p.Achievements...)
	return &cp
}

func (m *memoryRepo) EnsureProfile(_ context.Context, p *models.GamificationProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; ok {
		return nil
	}
	cp := cloneProfile(p)
	m.profiles[p.UserID] = cp
	return nil
}

func (m *memoryRepo) GetProfile(_ context.Context, userID string) (*models.GamificationProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (m *memoryRepo) DeleteProfile(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; !ok {
		return database.ErrNotFound
	}
	delete(m.profiles, userID)
	return nil
}

func (m *memoryRepo) IncrementProfile(_ context.Context, userID string, points int, counters map[string]int) (*models.GamificationProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIncrements > 0 {
		m.failIncrements--
		return nil, errStoreDown
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	p.Points += points
	p.LifetimePoints += points
	for k, v := range counters {
		p.Counters[k] += v
	}
	return cloneProfile(p), nil
}

func (m *memoryRepo) SetLevel(_ context.Context, userID, level string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		p.Level = level
	}
	return nil
}

func (m *memoryRepo) AddAchievement(_ context.Context, userID string, a models.EarnedAchievement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok || p.HasAchievement(a.Code) {
		return false, nil
	}
	p.Achievements = append(p.Achievements, a)
	return true, nil
}

func (m *memoryRepo) SpendPoints(_ context.Context, userID string, cost int) (*models.GamificationProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok || p.Points < cost {
		return nil, database.ErrConflict
	}
	p.Points -= cost
	return cloneProfile(p), nil
}

func (m *memoryRepo) RefundPoints(_ context.Context, userID string, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refundErr != nil {
		return m.refundErr
	}
	if p, ok := m.profiles[userID]; ok {
		p.Points += amount
	}
	return nil
}

func (m *memoryRepo) TopProfiles(_ context.Context, role string, limit int) ([]models.GamificationProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GamificationProfile
	for _, p := range m.profiles {
		if role == "" || p.Role == role {
			out = append(out, *cloneProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LifetimePoints == out[j].LifetimePoints {
			return out[i].UserID < out[j].UserID
		}
		return out[i].LifetimePoints > out[j].LifetimePoints
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) AddTransaction(_ context.Context, tx *models.PointTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.ledger {
		if t.UserID == tx.UserID && t.Reason == tx.Reason && t.RefID == tx.RefID {
			return database.ErrDuplicate
		}
	}
	m.ledger = append(m.ledger, *tx)
	return nil
}

func (m *memoryRepo) RemoveTransaction(_ context.Context, userID, reason, refID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.ledger {
		if t.UserID == userID && t.Reason == reason && t.RefID == refID {
			m.ledger = append(m.ledger[:i], m.ledger[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memoryRepo) ListTransactions(_ context.Context, userID string, _ models.Page) ([]models.PointTransaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PointTransaction
	for _, t := range m.ledger {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) ListRewards(_ context.Context, activeOnly bool) ([]models.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reward
	for _, r := range m.rewards {
		if !activeOnly || r.Active {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryRepo) GetReward(_ context.Context, id string) (*models.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rewards[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memoryRepo) CreateReward(_ context.Context, reward *models.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *reward
	m.rewards[reward.ID] = &cp
	return nil
}

func (m *memoryRepo) UpdateReward(_ context.Context, reward *models.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rewards[reward.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *reward
	m.rewards[reward.ID] = &cp
	return nil
}

func (m *memoryRepo) ReserveRewardStock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rewards[id]
	if !ok || !r.Active || r.Stock == 0 {
		return database.ErrConflict
	}
	if r.Stock > 0 {
		r.Stock--
	}
	return nil
}

func (m *memoryRepo) ReleaseRewardStock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rewards[id]; ok && r.Stock >= 0 {
		r.Stock++
	}
	return nil
}

func (m *memoryRepo) CreateRedemption(_ context.Context, r *models.Redemption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRedemptions > 0 {
		m.failRedemptions--
		return errStoreDown
	}
	m.redemptions = append(m.redemptions, *r)
	return nil
}

func (m *memoryRepo) ListRedemptions(_ context.Context, userID string) ([]models.Redemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Redemption
	for _, r := range m.redemptions {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}
