package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/email"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/filestorage"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/meeting"
)

// Services groups every business service the HTTP layer depends on.
type Services struct {
	Auth        AuthService
	User        UserService
	Course      CourseService
	Workshop    WorkshopService
	Homework    HomeworkService
	Achievement AchievementService
	Message     MessageService
}

// Deps are the collaborators the services are built from.
type Deps struct {
	Users        repositories.IUserRepository
	Tokens       repositories.ITokenRepository
	Courses      repositories.ICourseRepository
	Workshops    repositories.IWorkshopRepository
	Homework     repositories.IHomeworkRepository
	Achievements repositories.IAchievementRepository
	Messages     repositories.IMessageRepository

	JWT       *auth.JWTService
	Notifier  email.Notifier
	Meetings  meeting.Provider
	Storage   filestorage.FileStorage
	Publisher MessagePublisher
	Timezone  string
	Logger    zerolog.Logger
}

// NewServices wires every service from deps.
func NewServices(deps Deps) *Services {
	if deps.Meetings == nil {
		deps.Meetings = meeting.NoopProvider{}
	}
	if deps.Publisher == nil {
		deps.Publisher = noopPublisher{}
	}

	log := deps.Logger
	return &Services{
		Auth:        NewAuthService(deps.Users, deps.Tokens, deps.JWT, deps.Notifier, log.With().Str("service", "auth").Logger()),
		User:        NewUserService(deps.Users, deps.Tokens, log.With().Str("service", "user").Logger()),
		Course:      NewCourseService(deps.Courses, deps.Users, deps.Storage, log.With().Str("service", "course").Logger()),
		Workshop:    NewWorkshopService(deps.Workshops, deps.Users, deps.Notifier, deps.Meetings, deps.Timezone, log.With().Str("service", "workshop").Logger()),
		Homework:    NewHomeworkService(deps.Homework, deps.Courses, deps.Users, deps.Notifier, log.With().Str("service", "homework").Logger()),
		Achievement: NewAchievementService(deps.Achievements, deps.Users, log.With().Str("service", "achievement").Logger()),
		Message:     NewMessageService(deps.Messages, deps.Users, deps.Workshops, deps.Publisher, log.With().Str("service", "message").Logger()),
	}
}

// isAdmin re-reads the user so role changes apply immediately.
func isAdmin(ctx context.Context, users repositories.IUserRepository, userID int64) (bool, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return false, apperrors.ErrUnauthorized
		}
		return false, fmt.Errorf("error loading user: %w", err)
	}
	return user.IsAdmin, nil
}

func recipientOf(user *models.User) email.Recipient {
	return email.Recipient{Name: user.Name, Email: user.Email}
}

func membership(userID int64, changed bool, members int) *dto.MembershipResponse {
	return &dto.MembershipResponse{UserID: userID, Changed: changed, Members: members}
}
