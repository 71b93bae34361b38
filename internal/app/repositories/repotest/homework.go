package repotest

import (
	"context"
	"sort"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// HomeworkRepository is an in-memory IHomeworkRepository.
type HomeworkRepository struct{ s *Store }

func (r *HomeworkRepository) checkRefs(hw *models.Homework) error {
	if hw.AssignedToUserID != nil {
		if _, ok := r.s.users[*hw.AssignedToUserID]; !ok {
			return apperrors.ErrUserNotFound
		}
	}
	if hw.CourseID != nil {
		if _, ok := r.s.courses[*hw.CourseID]; !ok {
			return apperrors.ErrCourseNotFound
		}
	}
	return nil
}

func (r *HomeworkRepository) Create(ctx context.Context, hw *models.Homework) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkRefs(hw); err != nil {
		return err
	}
	now := time.Now()
	hw.ID = r.s.id()
	hw.CreatedAt, hw.UpdatedAt = now, now
	cp := *hw
	r.s.homework[hw.ID] = &cp
	return nil
}

func (r *HomeworkRepository) GetByID(ctx context.Context, id int64) (*models.Homework, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	hw, ok := r.s.homework[id]
	if !ok {
		return nil, apperrors.ErrHomeworkNotFound
	}
	cp := *hw
	return &cp, nil
}

func (r *HomeworkRepository) collect(keep func(*models.Homework) bool) []*models.Homework {
	out := []*models.Homework{}
	for _, hw := range r.s.homework {
		if keep(hw) {
			cp := *hw
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *HomeworkRepository) List(ctx context.Context, filter dto.HomeworkListFilter) ([]*models.Homework, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.collect(func(hw *models.Homework) bool {
		if filter.Status != "" && hw.Status != filter.Status {
			return false
		}
		if filter.UserID != nil && (hw.AssignedToUserID == nil || *hw.AssignedToUserID != *filter.UserID) {
			return false
		}
		if filter.CourseID != nil && (hw.CourseID == nil || *hw.CourseID != *filter.CourseID) {
			return false
		}
		return true
	})
	return paginate(out, filter.Page, filter.Size), int64(len(out)), nil
}

func (r *HomeworkRepository) ListForUser(ctx context.Context, userID int64) ([]*models.Homework, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(hw *models.Homework) bool {
		if hw.AssignedToUserID != nil && *hw.AssignedToUserID == userID {
			return true
		}
		if hw.CourseID != nil {
			_, ok := r.s.students[*hw.CourseID][userID]
			return ok
		}
		return false
	}), nil
}

func (r *HomeworkRepository) Update(ctx context.Context, hw *models.Homework) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.homework[hw.ID]; !ok {
		return apperrors.ErrHomeworkNotFound
	}
	if err := r.checkRefs(hw); err != nil {
		return err
	}
	hw.UpdatedAt = time.Now()
	cp := *hw
	r.s.homework[hw.ID] = &cp
	return nil
}

func (r *HomeworkRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.homework[id]; !ok {
		return apperrors.ErrHomeworkNotFound
	}
	delete(r.s.homework, id)
	for qid, q := range r.s.questions {
		if q.HomeworkID == id {
			r.deleteQuestion(qid)
		}
	}
	return nil
}

func (r *HomeworkRepository) mutate(id int64, fn func(*models.Homework)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	hw, ok := r.s.homework[id]
	if !ok {
		return apperrors.ErrHomeworkNotFound
	}
	fn(hw)
	hw.UpdatedAt = time.Now()
	return nil
}

func (r *HomeworkRepository) UpdateStatus(ctx context.Context, id int64, status models.HomeworkStatus) error {
	return r.mutate(id, func(hw *models.Homework) { hw.Status = status })
}

func (r *HomeworkRepository) Submit(ctx context.Context, id int64, response string, at time.Time) error {
	return r.mutate(id, func(hw *models.Homework) {
		hw.Status = models.HomeworkCompleted
		hw.StudentResponse = &response
		hw.SubmittedAt = &at
	})
}

func (r *HomeworkRepository) Grade(ctx context.Context, id int64, grade int, feedback string, at time.Time) error {
	return r.mutate(id, func(hw *models.Homework) {
		hw.Status = models.HomeworkGraded
		hw.Grade = &grade
		hw.Feedback = &feedback
		hw.GradedAt = &at
	})
}

func (r *HomeworkRepository) ListQuestions(ctx context.Context, homeworkID int64) ([]*models.HomeworkQuestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.HomeworkQuestion{}
	for _, q := range r.s.questions {
		if q.HomeworkID == homeworkID {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *HomeworkRepository) GetQuestion(ctx context.Context, id int64) (*models.HomeworkQuestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, apperrors.ErrQuestionNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *HomeworkRepository) CreateQuestion(ctx context.Context, q *models.HomeworkQuestion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.homework[q.HomeworkID]; !ok {
		return apperrors.ErrHomeworkNotFound
	}
	q.ID = r.s.id()
	q.CreatedAt = time.Now()
	cp := *q
	r.s.questions[q.ID] = &cp
	return nil
}

func (r *HomeworkRepository) deleteQuestion(id int64) {
	delete(r.s.questions, id)
	for k := range r.s.responses {
		if k[0] == id {
			delete(r.s.responses, k)
		}
	}
}

func (r *HomeworkRepository) DeleteQuestion(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.questions[id]; !ok {
		return apperrors.ErrQuestionNotFound
	}
	r.deleteQuestion(id)
	return nil
}

func (r *HomeworkRepository) UpsertResponse(ctx context.Context, resp *models.HomeworkResponse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.questions[resp.QuestionID]; !ok {
		return apperrors.ErrQuestionNotFound
	}
	if _, ok := r.s.users[resp.UserID]; !ok {
		return apperrors.ErrUserNotFound
	}
	key := [2]int64{resp.QuestionID, resp.UserID}
	now := time.Now()
	if existing, ok := r.s.responses[key]; ok {
		existing.Answer = resp.Answer
		existing.UpdatedAt = now
		*resp = *existing
		return nil
	}
	resp.ID = r.s.id()
	resp.CreatedAt, resp.UpdatedAt = now, now
	cp := *resp
	r.s.responses[key] = &cp
	return nil
}

func (r *HomeworkRepository) ListResponses(ctx context.Context, homeworkID, userID int64) ([]*models.HomeworkResponse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.HomeworkResponse{}
	for key, resp := range r.s.responses {
		q, ok := r.s.questions[key[0]]
		if !ok || q.HomeworkID != homeworkID {
			continue
		}
		if userID != 0 && resp.UserID != userID {
			continue
		}
		cp := *resp
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
