// Package repotest provides in-memory implementations of the repository
// interfaces for service and HTTP tests.
package repotest

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
)

type refreshToken struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

// roster maps owner id -> user id -> joined at.
type roster map[int64]map[int64]time.Time

// Store is a single in-memory database shared by every repository it hands out.
type Store struct {
	mu     sync.Mutex
	nextID int64

	users        map[int64]*models.User
	tokens       map[string]*refreshToken
	courses      map[int64]*models.Course
	modules      map[int64]*models.CourseModule
	lessons      map[int64]*models.Lesson
	workshops    map[int64]*models.Workshop
	sessions     map[int64]*models.WorkshopSession
	homework     map[int64]*models.Homework
	questions    map[int64]*models.HomeworkQuestion
	responses    map[[2]int64]*models.HomeworkResponse
	achievements map[int64]*models.Achievement
	messages     map[int64]*models.Message

	students  roster
	attendees roster
	awards    roster
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:        make(map[int64]*models.User),
		tokens:       make(map[string]*refreshToken),
		courses:      make(map[int64]*models.Course),
		modules:      make(map[int64]*models.CourseModule),
		lessons:      make(map[int64]*models.Lesson),
		workshops:    make(map[int64]*models.Workshop),
		sessions:     make(map[int64]*models.WorkshopSession),
		homework:     make(map[int64]*models.Homework),
		questions:    make(map[int64]*models.HomeworkQuestion),
		responses:    make(map[[2]int64]*models.HomeworkResponse),
		achievements: make(map[int64]*models.Achievement),
		messages:     make(map[int64]*models.Message),
		students:     make(roster),
		attendees:    make(roster),
		awards:       make(roster),
	}
}

// Users returns the user repository.
func (s *Store) Users() *UserRepository { return &UserRepository{s} }

// Tokens returns the refresh token repository.
func (s *Store) Tokens() *TokenRepository { return &TokenRepository{s} }

// Courses returns the course repository.
func (s *Store) Courses() *CourseRepository { return &CourseRepository{s} }

// Workshops returns the workshop repository.
func (s *Store) Workshops() *WorkshopRepository { return &WorkshopRepository{s} }

// Homework returns the homework repository.
func (s *Store) Homework() *HomeworkRepository { return &HomeworkRepository{s} }

// Achievements returns the achievement repository.
func (s *Store) Achievements() *AchievementRepository { return &AchievementRepository{s} }

// Messages returns the message repository.
func (s *Store) Messages() *MessageRepository { return &MessageRepository{s} }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// add inserts a roster row in the same order of checks as the SQL
// repositories: existing member, capacity (nil or 0 is unlimited), user.
// Callers hold s.mu and have checked the owner exists.
func (s *Store) add(r roster, owner, user int64, capacity *int) (bool, error) {
	members := r[owner]
	if _, ok := members[user]; ok {
		return false, nil
	}
	if capacity != nil && *capacity > 0 && len(members) >= *capacity {
		return false, apperrors.ErrCapacityReached
	}
	if _, ok := s.users[user]; !ok {
		return false, apperrors.ErrUserNotFound
	}
	if members == nil {
		members = make(map[int64]time.Time)
		r[owner] = members
	}
	members[user] = time.Now()
	return true, nil
}

func (s *Store) remove(r roster, owner, user int64) bool {
	if _, ok := r[owner][user]; !ok {
		return false
	}
	delete(r[owner], user)
	return true
}

func (s *Store) members(r roster, owner int64) []*models.Member {
	out := make([]*models.Member, 0, len(r[owner]))
	for uid, joined := range r[owner] {
		u := s.users[uid]
		out = append(out, &models.Member{UserID: uid, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, JoinedAt: joined})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (s *Store) deleteUser(id int64) {
	delete(s.users, id)
	for _, r := range []roster{s.students, s.attendees, s.awards} {
		for owner := range r {
			delete(r[owner], id)
		}
	}
	for k, t := range s.tokens {
		if t.userID == id {
			delete(s.tokens, k)
		}
	}
}

// paginate returns one page of items.
func paginate[T any](items []T, page, size int) []T {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	if offset >= uint64(len(items)) {
		return []T{}
	}
	end := offset + limit
	if end > uint64(len(items)) {
		end = uint64(len(items))
	}
	return items[offset:end]
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

var (
	_ repositories.IUserRepository        = (*UserRepository)(nil)
	_ repositories.ITokenRepository       = (*TokenRepository)(nil)
	_ repositories.ICourseRepository      = (*CourseRepository)(nil)
	_ repositories.IWorkshopRepository    = (*WorkshopRepository)(nil)
	_ repositories.IHomeworkRepository    = (*HomeworkRepository)(nil)
	_ repositories.IAchievementRepository = (*AchievementRepository)(nil)
	_ repositories.IMessageRepository     = (*MessageRepository)(nil)
)
