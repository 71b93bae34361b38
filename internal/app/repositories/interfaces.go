package repositories

import (
	"context"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
)

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByEmailWithPassword is the only read that fills User.Password.
	GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error)
	GetPasswordHash(ctx context.Context, id int64) (string, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter dto.UserListFilter) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// ITokenRepository stores refresh tokens.
type ITokenRepository interface {
	StoreRefreshToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	// RefreshTokenOwner returns the user of a live token, or ErrTokenNotFound,
	// ErrTokenRevoked or ErrTokenExpired.
	RefreshTokenOwner(ctx context.Context, token string) (int64, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
	PurgeStaleTokens(ctx context.Context) (int64, error)
}

// ICourseRepository covers courses, their module/lesson tree and the student roster.
type ICourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, filter dto.CourseListFilter) ([]*models.Course, int64, error)
	ListByStudent(ctx context.Context, userID int64) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error

	ListModules(ctx context.Context, courseID int64) ([]*models.CourseModule, error)
	GetModule(ctx context.Context, id int64) (*models.CourseModule, error)
	CreateModule(ctx context.Context, module *models.CourseModule) error
	UpdateModule(ctx context.Context, module *models.CourseModule) error
	DeleteModule(ctx context.Context, id int64) error

	GetLesson(ctx context.Context, id int64) (*models.Lesson, error)
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	UpdateLesson(ctx context.Context, lesson *models.Lesson) error
	SetLessonMaterial(ctx context.Context, id int64, materialURL string) error
	DeleteLesson(ctx context.Context, id int64) error

	// AddStudent reports whether a row was inserted.
	AddStudent(ctx context.Context, courseID, userID int64) (bool, error)
	// RemoveStudent reports whether a row was deleted.
	RemoveStudent(ctx context.Context, courseID, userID int64) (bool, error)
	ListStudents(ctx context.Context, courseID int64) ([]*models.Member, error)
	CountStudents(ctx context.Context, courseID int64) (int, error)
	IsStudent(ctx context.Context, courseID, userID int64) (bool, error)
}

// IWorkshopRepository covers workshops, sessions and the attendee roster.
type IWorkshopRepository interface {
	Create(ctx context.Context, workshop *models.Workshop) error
	GetByID(ctx context.Context, id int64) (*models.Workshop, error)
	List(ctx context.Context, filter dto.WorkshopListFilter) ([]*models.Workshop, int64, error)
	ListByAttendee(ctx context.Context, userID int64) ([]*models.Workshop, error)
	Update(ctx context.Context, workshop *models.Workshop) error
	Delete(ctx context.Context, id int64) error

	ListSessions(ctx context.Context, workshopID int64) ([]*models.WorkshopSession, error)
	GetSession(ctx context.Context, id int64) (*models.WorkshopSession, error)
	CreateSession(ctx context.Context, session *models.WorkshopSession) error
	UpdateSession(ctx context.Context, session *models.WorkshopSession) error
	DeleteSession(ctx context.Context, id int64) error
	SetSessionMeeting(ctx context.Context, id int64, meetingID, joinURL string) error
	// ListSessionsStartingBetween returns sessions in [from, to) that have not
	// been reminded yet.
	ListSessionsStartingBetween(ctx context.Context, from, to time.Time) ([]*models.WorkshopSession, error)
	MarkSessionReminded(ctx context.Context, id int64, at time.Time) error

	AddAttendee(ctx context.Context, workshopID, userID int64) (bool, error)
	RemoveAttendee(ctx context.Context, workshopID, userID int64) (bool, error)
	ListAttendees(ctx context.Context, workshopID int64) ([]*models.Member, error)
	CountAttendees(ctx context.Context, workshopID int64) (int, error)
	IsAttendee(ctx context.Context, workshopID, userID int64) (bool, error)
}

// IHomeworkRepository covers homework, questions and per-question responses.
type IHomeworkRepository interface {
	Create(ctx context.Context, hw *models.Homework) error
	GetByID(ctx context.Context, id int64) (*models.Homework, error)
	List(ctx context.Context, filter dto.HomeworkListFilter) ([]*models.Homework, int64, error)
	// ListForUser returns homework assigned to the user or to a course the
	// user is enrolled in.
	ListForUser(ctx context.Context, userID int64) ([]*models.Homework, error)
	Update(ctx context.Context, hw *models.Homework) error
	Delete(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, status models.HomeworkStatus) error
	Submit(ctx context.Context, id int64, response string, at time.Time) error
	Grade(ctx context.Context, id int64, grade int, feedback string, at time.Time) error

	ListQuestions(ctx context.Context, homeworkID int64) ([]*models.HomeworkQuestion, error)
	GetQuestion(ctx context.Context, id int64) (*models.HomeworkQuestion, error)
	CreateQuestion(ctx context.Context, q *models.HomeworkQuestion) error
	DeleteQuestion(ctx context.Context, id int64) error
	UpsertResponse(ctx context.Context, r *models.HomeworkResponse) error
	// ListResponses lists answers to the homework's questions. userID 0 means every user.
	ListResponses(ctx context.Context, homeworkID, userID int64) ([]*models.HomeworkResponse, error)
}

// IAchievementRepository covers the achievement catalogue and awards.
type IAchievementRepository interface {
	Create(ctx context.Context, a *models.Achievement) error
	GetByID(ctx context.Context, id int64) (*models.Achievement, error)
	List(ctx context.Context) ([]*models.Achievement, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Achievement, error)
	Update(ctx context.Context, a *models.Achievement) error
	Delete(ctx context.Context, id int64) error

	Award(ctx context.Context, achievementID, userID int64) (bool, error)
	Revoke(ctx context.Context, achievementID, userID int64) (bool, error)
	ListHolders(ctx context.Context, achievementID int64) ([]*models.Member, error)
}

// IMessageRepository stores direct and workshop group messages.
type IMessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	ListInbox(ctx context.Context, userID int64, filter dto.MessageListFilter) ([]*models.Message, int64, error)
	ListSent(ctx context.Context, userID int64, filter dto.MessageListFilter) ([]*models.Message, int64, error)
	ListConversation(ctx context.Context, userID, otherID int64) ([]*models.Message, error)
	ListWorkshopMessages(ctx context.Context, workshopID int64) ([]*models.Message, error)
	MarkRead(ctx context.Context, id int64, at time.Time) error
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}
