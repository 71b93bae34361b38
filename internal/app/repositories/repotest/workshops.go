package repotest

import (
	"context"
	"sort"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// WorkshopRepository is an in-memory IWorkshopRepository.
type WorkshopRepository struct{ s *Store }

func (r *WorkshopRepository) workshop(w *models.Workshop) *models.Workshop {
	cp := *w
	cp.Sessions = nil
	cp.AttendeeCount = len(r.s.attendees[w.ID])
	return &cp
}

func (r *WorkshopRepository) Create(ctx context.Context, workshop *models.Workshop) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	workshop.ID = r.s.id()
	workshop.CreatedAt, workshop.UpdatedAt = now, now
	cp := *workshop
	r.s.workshops[workshop.ID] = &cp
	return nil
}

func (r *WorkshopRepository) GetByID(ctx context.Context, id int64) (*models.Workshop, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workshops[id]
	if !ok {
		return nil, apperrors.ErrWorkshopNotFound
	}
	return r.workshop(w), nil
}

func (r *WorkshopRepository) List(ctx context.Context, filter dto.WorkshopListFilter) ([]*models.Workshop, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Workshop
	for _, w := range r.s.workshops {
		if filter.Active == nil || w.IsActive == *filter.Active {
			out = append(out, r.workshop(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filter.Page, filter.Size), int64(len(out)), nil
}

func (r *WorkshopRepository) ListByAttendee(ctx context.Context, userID int64) ([]*models.Workshop, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Workshop{}
	for id, members := range r.s.attendees {
		if _, ok := members[userID]; ok {
			if w, ok := r.s.workshops[id]; ok {
				out = append(out, r.workshop(w))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *WorkshopRepository) Update(ctx context.Context, workshop *models.Workshop) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workshops[workshop.ID]; !ok {
		return apperrors.ErrWorkshopNotFound
	}
	workshop.UpdatedAt = time.Now()
	cp := *workshop
	cp.Sessions = nil
	r.s.workshops[workshop.ID] = &cp
	return nil
}

func (r *WorkshopRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workshops[id]; !ok {
		return apperrors.ErrWorkshopNotFound
	}
	delete(r.s.workshops, id)
	delete(r.s.attendees, id)
	for sid, sess := range r.s.sessions {
		if sess.WorkshopID == id {
			delete(r.s.sessions, sid)
		}
	}
	return nil
}

func (r *WorkshopRepository) sortedSessions(keep func(*models.WorkshopSession) bool) []*models.WorkshopSession {
	out := []*models.WorkshopSession{}
	for _, sess := range r.s.sessions {
		if keep(sess) {
			cp := *sess
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *WorkshopRepository) ListSessions(ctx context.Context, workshopID int64) ([]*models.WorkshopSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sortedSessions(func(s *models.WorkshopSession) bool { return s.WorkshopID == workshopID }), nil
}

func (r *WorkshopRepository) GetSession(ctx context.Context, id int64) (*models.WorkshopSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r *WorkshopRepository) CreateSession(ctx context.Context, session *models.WorkshopSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workshops[session.WorkshopID]; !ok {
		return apperrors.ErrWorkshopNotFound
	}
	now := time.Now()
	session.ID = r.s.id()
	session.CreatedAt, session.UpdatedAt = now, now
	cp := *session
	r.s.sessions[session.ID] = &cp
	return nil
}

// UpdateSession clears the reminder marker when the start time moves.
func (r *WorkshopRepository) UpdateSession(ctx context.Context, session *models.WorkshopSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.sessions[session.ID]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	if !existing.StartsAt.Equal(session.StartsAt) {
		session.ReminderSentAt = nil
	}
	session.UpdatedAt = time.Now()
	cp := *session
	r.s.sessions[session.ID] = &cp
	return nil
}

func (r *WorkshopRepository) DeleteSession(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[id]; !ok {
		return apperrors.ErrSessionNotFound
	}
	delete(r.s.sessions, id)
	return nil
}

func (r *WorkshopRepository) SetSessionMeeting(ctx context.Context, id int64, meetingID, joinURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	sess.MeetingID = &meetingID
	sess.JoinURL = &joinURL
	return nil
}

func (r *WorkshopRepository) ListSessionsStartingBetween(ctx context.Context, from, to time.Time) ([]*models.WorkshopSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sortedSessions(func(s *models.WorkshopSession) bool {
		return s.ReminderSentAt == nil && !s.StartsAt.Before(from) && s.StartsAt.Before(to)
	}), nil
}

func (r *WorkshopRepository) MarkSessionReminded(ctx context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	sess.ReminderSentAt = &at
	return nil
}

func (r *WorkshopRepository) AddAttendee(ctx context.Context, workshopID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workshops[workshopID]
	if !ok {
		return false, apperrors.ErrWorkshopNotFound
	}
	return r.s.add(r.s.attendees, workshopID, userID, w.MaxParticipants)
}

func (r *WorkshopRepository) RemoveAttendee(ctx context.Context, workshopID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.remove(r.s.attendees, workshopID, userID), nil
}

func (r *WorkshopRepository) ListAttendees(ctx context.Context, workshopID int64) ([]*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.members(r.s.attendees, workshopID), nil
}

func (r *WorkshopRepository) CountAttendees(ctx context.Context, workshopID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.attendees[workshopID]), nil
}

func (r *WorkshopRepository) IsAttendee(ctx context.Context, workshopID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.attendees[workshopID][userID]
	return ok, nil
}
