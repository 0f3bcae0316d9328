package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nutrition-bot/internal/models"
)

// MemoryStore keeps profiles and meals in process. It backs tests, the CLI
// and deployments without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.UserProfile
	meals    map[string]models.Meal
	payments map[string]models.Payment
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]models.UserProfile),
		meals:    make(map[string]models.Meal),
		payments: make(map[string]models.Payment),
	}
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, models.ErrNotFound)
	}
	return &p, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, p *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.profiles[p.UserID] = *p
	return nil
}

func (s *MemoryStore) SetPremium(_ context.Context, userID string, premium bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return fmt.Errorf("profile %s: %w", userID, models.ErrNotFound)
	}
	p.IsPremium = premium
	s.profiles[userID] = p
	return nil
}

func (s *MemoryStore) SaveMeal(_ context.Context, m *models.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meals[m.ID]; ok {
		return fmt.Errorf("meal %s already exists", m.ID)
	}
	s.meals[m.ID] = cloneMeal(*m)
	return nil
}

func (s *MemoryStore) GetMeal(_ context.Context, mealID string) (*models.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meals[mealID]
	if !ok {
		return nil, fmt.Errorf("meal %s: %w", mealID, models.ErrNotFound)
	}
	out := cloneMeal(m)
	return &out, nil
}

func (s *MemoryStore) SaveGrade(_ context.Context, mealID string, grade models.GradeData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meals[mealID]
	if !ok {
		return fmt.Errorf("meal %s: %w", mealID, models.ErrNotFound)
	}
	m.Grade = &grade
	s.meals[mealID] = m
	return nil
}

func (s *MemoryStore) userMeals(userID string) []models.Meal {
	var out []models.Meal
	for _, m := range s.meals {
		if m.UserID == userID {
			out = append(out, cloneMeal(m))
		}
	}
	return out
}

func (s *MemoryStore) MealsSince(_ context.Context, userID string, since time.Time) ([]models.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Meal
	for _, m := range s.userMeals(userID) {
		if !m.LoggedAt.Before(since) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoggedAt.Before(out[j].LoggedAt) })
	return out, nil
}

func (s *MemoryStore) RecentMeals(_ context.Context, userID string, limit int) ([]models.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.userMeals(userID)
	sort.Slice(out, func(i, j int) bool { return out[i].LoggedAt.After(out[j].LoggedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SavePayment(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.payments[p.StripePaymentID] = *p
	return nil
}

func (s *MemoryStore) UpdatePaymentStatus(_ context.Context, stripePaymentID string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[stripePaymentID]
	if !ok {
		return fmt.Errorf("payment %s: %w", stripePaymentID, models.ErrNotFound)
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	s.payments[stripePaymentID] = p
	return nil
}

// Payment returns a stored payment by its Stripe session ID.
func (s *MemoryStore) Payment(stripePaymentID string) (models.Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[stripePaymentID]
	return p, ok
}

func cloneMeal(m models.Meal) models.Meal {
	m.Items = append([]models.MealItem(nil), m.Items...)
	if m.Grade != nil {
		g := *m.Grade
		m.Grade = &g
	}
	return m
}
