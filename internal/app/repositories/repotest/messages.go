package repotest

import (
	"context"
	"sort"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// MessageRepository is an in-memory IMessageRepository.
type MessageRepository struct{ s *Store }

func (r *MessageRepository) message(m *models.Message) *models.Message {
	cp := *m
	if u, ok := r.s.users[m.SenderID]; ok {
		cp.SenderName = u.Name
	}
	return &cp
}

func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[msg.SenderID]; !ok {
		return apperrors.ErrUserNotFound
	}
	if msg.RecipientID != nil {
		if _, ok := r.s.users[*msg.RecipientID]; !ok {
			return apperrors.ErrUserNotFound
		}
	}
	if msg.WorkshopID != nil {
		if _, ok := r.s.workshops[*msg.WorkshopID]; !ok {
			return apperrors.ErrWorkshopNotFound
		}
	}
	msg.ID = r.s.id()
	msg.CreatedAt = time.Now()
	cp := *msg
	r.s.messages[msg.ID] = &cp
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, apperrors.ErrMessageNotFound
	}
	return r.message(m), nil
}

// collect returns matching messages in id order; newest first when desc.
func (r *MessageRepository) collect(keep func(*models.Message) bool, desc bool) []*models.Message {
	out := []*models.Message{}
	for _, m := range r.s.messages {
		if keep(m) {
			out = append(out, r.message(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *MessageRepository) ListInbox(ctx context.Context, userID int64, filter dto.MessageListFilter) ([]*models.Message, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.collect(func(m *models.Message) bool {
		return m.RecipientID != nil && *m.RecipientID == userID && (!filter.UnreadOnly || !m.IsRead)
	}, true)
	return paginate(out, filter.Page, filter.Size), int64(len(out)), nil
}

func (r *MessageRepository) ListSent(ctx context.Context, userID int64, filter dto.MessageListFilter) ([]*models.Message, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.collect(func(m *models.Message) bool {
		return m.SenderID == userID && m.RecipientID != nil
	}, true)
	return paginate(out, filter.Page, filter.Size), int64(len(out)), nil
}

func (r *MessageRepository) ListConversation(ctx context.Context, userID, otherID int64) ([]*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(m *models.Message) bool {
		if m.RecipientID == nil {
			return false
		}
		return (m.SenderID == userID && *m.RecipientID == otherID) ||
			(m.SenderID == otherID && *m.RecipientID == userID)
	}, false), nil
}

func (r *MessageRepository) ListWorkshopMessages(ctx context.Context, workshopID int64) ([]*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(m *models.Message) bool {
		return m.WorkshopID != nil && *m.WorkshopID == workshopID
	}, false), nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return apperrors.ErrMessageNotFound
	}
	if !m.IsRead {
		m.IsRead = true
		m.ReadAt = &at
	}
	return nil
}

func (r *MessageRepository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.messages {
		if m.RecipientID != nil && *m.RecipientID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.messages[id]; !ok {
		return apperrors.ErrMessageNotFound
	}
	delete(r.s.messages, id)
	return nil
}
