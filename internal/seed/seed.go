// Package seed loads demo data and bootstraps admin accounts. Every step
// looks for existing rows first, so running it twice changes nothing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/now"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/validation"
)

// Default demo accounts.
const (
	AdminEmail = "admin@lms.local"
	UserEmail  = "user@lms.local"
)

// Repositories are the stores the seeder writes to.
type Repositories struct {
	Users        repositories.IUserRepository
	Courses      repositories.ICourseRepository
	Workshops    repositories.IWorkshopRepository
	Achievements repositories.IAchievementRepository
}

// Seeder writes demo data.
type Seeder struct {
	repos  Repositories
	logger zerolog.Logger
	now    func() time.Time
}

// NewSeeder creates a Seeder.
func NewSeeder(repos Repositories, logger zerolog.Logger) *Seeder {
	return &Seeder{repos: repos, logger: logger, now: time.Now}
}

// Run creates the admin and test accounts, a demo course, a demo workshop
// with a session next week and the achievements catalogue.
func (s *Seeder) Run(ctx context.Context, adminPassword, userPassword string) error {
	s.logger.Info().Msg("Seeding demo data...")
	var finalErr error

	if _, _, err := s.EnsureAdmin(ctx, "LMS Admin", AdminEmail, adminPassword); err != nil {
		finalErr = errors.Join(finalErr, err)
	}
	student, err := s.ensureUser(ctx, "Test Student", UserEmail, userPassword)
	if err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	course, err := s.ensureCourse(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error seeding demo course")
		finalErr = errors.Join(finalErr, err)
	}
	workshop, err := s.ensureWorkshop(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error seeding demo workshop")
		finalErr = errors.Join(finalErr, err)
	}

	if student != nil {
		if course != nil {
			if _, err := s.repos.Courses.AddStudent(ctx, course.ID, student.ID); err != nil {
				finalErr = errors.Join(finalErr, fmt.Errorf("enrolling test student: %w", err))
			}
		}
		if workshop != nil {
			if _, err := s.repos.Workshops.AddAttendee(ctx, workshop.ID, student.ID); err != nil {
				finalErr = errors.Join(finalErr, fmt.Errorf("adding test attendee: %w", err))
			}
		}
	}

	if err := s.ensureAchievements(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error seeding achievements")
		finalErr = errors.Join(finalErr, err)
	}

	if finalErr == nil {
		s.logger.Info().Msg("Demo data ready")
	}
	return finalErr
}

// EnsureAdmin promotes the user with the given email, creating it when it
// does not exist. An empty password keeps the current one of an existing
// user. It reports whether a new account was created.
func (s *Seeder) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	email = validation.NormalizeEmail(email)
	user, err := s.repos.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		user, err = s.createUser(ctx, name, email, password, true)
		if err != nil {
			return nil, false, err
		}
		s.logger.Info().Str("email", email).Msg("Admin account created")
		return user, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("error looking up %s: %w", email, err)
	}

	if !user.IsAdmin {
		user.IsAdmin = true
		if err := s.repos.Users.Update(ctx, user); err != nil {
			return nil, false, fmt.Errorf("error promoting %s: %w", email, err)
		}
		s.logger.Info().Str("email", email).Msg("User promoted to admin")
	}
	if password != "" {
		if !validation.ValidPassword(password) {
			return nil, false, apperrors.NewValidationError("password", "password must be at least 8 characters and contain a letter and a digit")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, false, err
		}
		if err := s.repos.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return nil, false, fmt.Errorf("error setting password for %s: %w", email, err)
		}
	}
	return user, false, nil
}

func (s *Seeder) ensureUser(ctx context.Context, name, email, password string) (*models.User, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, fmt.Errorf("error looking up %s: %w", email, err)
	}
	return s.createUser(ctx, name, email, password, false)
}

func (s *Seeder) createUser(ctx context.Context, name, email, password string, admin bool) (*models.User, error) {
	if !validation.ValidPassword(password) {
		return nil, apperrors.NewValidationError("password", "password must be at least 8 characters and contain a letter and a digit")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Name: name, Email: email, Password: hash, IsAdmin: admin}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating %s: %w", email, err)
	}
	return user, nil
}

const demoCourseTitle = "Foundations of Cognitive Behavioural Therapy"

func (s *Seeder) ensureCourse(ctx context.Context) (*models.Course, error) {
	for page := 1; ; page++ {
		courses, total, err := s.repos.Courses.List(ctx, dto.CourseListFilter{Page: page, Size: helpers.MaxPageSize})
		if err != nil {
			return nil, err
		}
		for _, c := range courses {
			if c.Title == demoCourseTitle {
				return c, nil
			}
		}
		if int64(page*helpers.MaxPageSize) >= total {
			break
		}
	}

	course := &models.Course{
		Title:       demoCourseTitle,
		Description: "Core CBT concepts for practitioners: the cognitive model, distortions and behavioural experiments.",
		Instructor:  "Dr. Jane Smith",
		Status:      models.CourseStatusActive,
	}
	if err := s.repos.Courses.Create(ctx, course); err != nil {
		return nil, err
	}

	modules := []struct {
		title   string
		lessons []string
	}{
		{"The cognitive model", []string{"Thoughts, feelings and behaviour", "Automatic thoughts"}},
		{"Cognitive distortions", []string{"Catastrophising", "All-or-nothing thinking", "Mind reading"}},
		{"Behavioural experiments", []string{"Designing an experiment", "Reviewing outcomes"}},
	}
	for i, m := range modules {
		module := &models.CourseModule{CourseID: course.ID, Title: m.title, Position: i + 1}
		if err := s.repos.Courses.CreateModule(ctx, module); err != nil {
			return course, err
		}
		for j, title := range m.lessons {
			lesson := &models.Lesson{
				ModuleID:        module.ID,
				Title:           title,
				Content:         "Reading and reflection exercises for " + title + ".",
				DurationMinutes: 20,
				Position:        j + 1,
			}
			if err := s.repos.Courses.CreateLesson(ctx, lesson); err != nil {
				return course, err
			}
		}
	}
	s.logger.Info().Int64("courseID", course.ID).Msg("Demo course created")
	return course, nil
}

const demoWorkshopTitle = "Mindfulness for Anxiety"

func (s *Seeder) ensureWorkshop(ctx context.Context) (*models.Workshop, error) {
	for page := 1; ; page++ {
		workshops, total, err := s.repos.Workshops.List(ctx, dto.WorkshopListFilter{Page: page, Size: helpers.MaxPageSize})
		if err != nil {
			return nil, err
		}
		for _, w := range workshops {
			if w.Title == demoWorkshopTitle {
				return w, nil
			}
		}
		if int64(page*helpers.MaxPageSize) >= total {
			break
		}
	}

	// First session: next Monday, 18:00.
	start := now.With(s.now()).BeginningOfWeek().AddDate(0, 0, 8).Add(18 * time.Hour)
	end := start.AddDate(0, 0, 7*6)
	limit := 20
	workshop := &models.Workshop{
		Title:           demoWorkshopTitle,
		Description:     "A six-week guided programme of mindfulness practice.",
		Instructor:      "Dr. Jane Smith",
		ScheduledAt:     &start,
		StartDate:       &start,
		EndDate:         &end,
		DurationWeeks:   6,
		MaxParticipants: &limit,
		IsActive:        true,
	}
	if err := s.repos.Workshops.Create(ctx, workshop); err != nil {
		return nil, err
	}
	session := &models.WorkshopSession{
		WorkshopID:      workshop.ID,
		Title:           "Week 1: Breathing",
		StartsAt:        start,
		DurationMinutes: 60,
	}
	if err := s.repos.Workshops.CreateSession(ctx, session); err != nil {
		return workshop, err
	}
	s.logger.Info().Int64("workshopID", workshop.ID).Msg("Demo workshop created")
	return workshop, nil
}

var catalogue = []models.Achievement{
	{Title: "First Workshop", Description: "Attended a first workshop session.", Type: models.AchievementBadge, Icon: "star"},
	{Title: "Homework Hero", Description: "Completed five homework assignments.", Type: models.AchievementBadge, Icon: "book"},
	{Title: "Course Graduate", Description: "Completed every module of a course.", Type: models.AchievementCertificate, Icon: "certificate"},
	{Title: "Thirty Days", Description: "Active on the platform for thirty days.", Type: models.AchievementMilestone, Icon: "calendar"},
}

func (s *Seeder) ensureAchievements(ctx context.Context) error {
	existing, err := s.repos.Achievements.List(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a.Title] = true
	}
	for _, a := range catalogue {
		if have[a.Title] {
			continue
		}
		a := a
		if err := s.repos.Achievements.Create(ctx, &a); err != nil {
			return err
		}
	}
	return nil
}
