package repotest

import (
	"context"
	"sort"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// AchievementRepository is an in-memory IAchievementRepository.
type AchievementRepository struct{ s *Store }

func (r *AchievementRepository) titleTaken(title string, except int64) bool {
	for _, a := range r.s.achievements {
		if a.Title == title && a.ID != except {
			return true
		}
	}
	return false
}

func (r *AchievementRepository) Create(ctx context.Context, a *models.Achievement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.titleTaken(a.Title, 0) {
		return apperrors.NewConflictError("an achievement with this title already exists")
	}
	now := time.Now()
	a.ID = r.s.id()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	r.s.achievements[a.ID] = &cp
	return nil
}

func (r *AchievementRepository) GetByID(ctx context.Context, id int64) (*models.Achievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.achievements[id]
	if !ok {
		return nil, apperrors.ErrAchievementNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AchievementRepository) List(ctx context.Context) ([]*models.Achievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Achievement{}
	for _, a := range r.s.achievements {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AchievementRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Achievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Achievement{}
	for aid, holders := range r.s.awards {
		at, ok := holders[userID]
		if !ok {
			continue
		}
		if a, ok := r.s.achievements[aid]; ok {
			cp := *a
			awarded := at
			cp.AwardedAt = &awarded
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AchievementRepository) Update(ctx context.Context, a *models.Achievement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.achievements[a.ID]; !ok {
		return apperrors.ErrAchievementNotFound
	}
	if r.titleTaken(a.Title, a.ID) {
		return apperrors.NewConflictError("an achievement with this title already exists")
	}
	a.UpdatedAt = time.Now()
	cp := *a
	cp.AwardedAt = nil
	r.s.achievements[a.ID] = &cp
	return nil
}

func (r *AchievementRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.achievements[id]; !ok {
		return apperrors.ErrAchievementNotFound
	}
	delete(r.s.achievements, id)
	delete(r.s.awards, id)
	return nil
}

func (r *AchievementRepository) Award(ctx context.Context, achievementID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.achievements[achievementID]; !ok {
		return false, apperrors.ErrAchievementNotFound
	}
	return r.s.add(r.s.awards, achievementID, userID, nil)
}

func (r *AchievementRepository) Revoke(ctx context.Context, achievementID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.remove(r.s.awards, achievementID, userID), nil
}

func (r *AchievementRepository) ListHolders(ctx context.Context, achievementID int64) ([]*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.members(r.s.awards, achievementID), nil
}
