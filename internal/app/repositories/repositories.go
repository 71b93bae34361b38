package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository        *UserRepository
	TokenRepository       *TokenRepository
	CourseRepository      *CourseRepository
	WorkshopRepository    *WorkshopRepository
	HomeworkRepository    *HomeworkRepository
	AchievementRepository *AchievementRepository
	MessageRepository     *MessageRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:        NewUserRepository(db),
		TokenRepository:       NewTokenRepository(db),
		CourseRepository:      NewCourseRepository(db),
		WorkshopRepository:    NewWorkshopRepository(db),
		HomeworkRepository:    NewHomeworkRepository(db),
		AchievementRepository: NewAchievementRepository(db),
		MessageRepository:     NewMessageRepository(db),
	}
}

var (
	_ IUserRepository        = (*UserRepository)(nil)
	_ ITokenRepository       = (*TokenRepository)(nil)
	_ ICourseRepository      = (*CourseRepository)(nil)
	_ IWorkshopRepository    = (*WorkshopRepository)(nil)
	_ IHomeworkRepository    = (*HomeworkRepository)(nil)
	_ IAchievementRepository = (*AchievementRepository)(nil)
	_ IMessageRepository     = (*MessageRepository)(nil)
)
