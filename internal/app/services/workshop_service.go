package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/email"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/meeting"
)

const (
	defaultSessionMinutes = 60
	maxSessionMinutes     = 24 * 60
)

// WorkshopService manages workshops, their sessions and attendees.
type WorkshopService interface {
	ListWorkshops(ctx context.Context, filter dto.WorkshopListFilter) (*dto.PaginatedResponse, error)
	GetWorkshop(ctx context.Context, id int64) (*models.Workshop, error)
	ListMyWorkshops(ctx context.Context, userID int64) ([]*models.Workshop, error)
	Attend(ctx context.Context, workshopID, userID int64) (*dto.MembershipResponse, error)
	Leave(ctx context.Context, workshopID, userID int64) (*dto.MembershipResponse, error)

	CreateWorkshop(ctx context.Context, req *dto.CreateWorkshopRequest) (*models.Workshop, error)
	UpdateWorkshop(ctx context.Context, id int64, req *dto.UpdateWorkshopRequest) (*models.Workshop, error)
	DeleteWorkshop(ctx context.Context, id int64) error

	ListParticipants(ctx context.Context, workshopID int64) ([]*models.Member, error)
	AddParticipant(ctx context.Context, workshopID, userID int64) (*dto.MembershipResponse, error)
	RemoveParticipant(ctx context.Context, workshopID, userID int64) (*dto.MembershipResponse, error)

	CreateSession(ctx context.Context, workshopID int64, req *dto.CreateSessionRequest) (*models.WorkshopSession, error)
	UpdateSession(ctx context.Context, workshopID, sessionID int64, req *dto.UpdateSessionRequest) (*models.WorkshopSession, error)
	DeleteSession(ctx context.Context, workshopID, sessionID int64) error
	CreateSessionMeeting(ctx context.Context, workshopID, sessionID int64) (*models.WorkshopSession, error)
	MeetingSignature(ctx context.Context, workshopID, sessionID, userID int64) (*dto.MeetingSignatureResponse, error)
}

type workshopServiceImpl struct {
	workshopRepo repositories.IWorkshopRepository
	userRepo     repositories.IUserRepository
	notifier     email.Notifier
	meetings     meeting.Provider
	timezone     string
	logger       zerolog.Logger
}

// NewWorkshopService creates a new WorkshopService
func NewWorkshopService(
	workshopRepo repositories.IWorkshopRepository,
	userRepo repositories.IUserRepository,
	notifier email.Notifier,
	meetings meeting.Provider,
	timezone string,
	logger zerolog.Logger,
) WorkshopService {
	if meetings == nil {
		meetings = meeting.NoopProvider{}
	}
	return &workshopServiceImpl{
		workshopRepo: workshopRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		meetings:     meetings,
		timezone:     timezone,
		logger:       logger,
	}
}

func (s *workshopServiceImpl) ListWorkshops(ctx context.Context, filter dto.WorkshopListFilter) (*dto.PaginatedResponse, error) {
	workshops, total, err := s.workshopRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := helpers.NewPaginatedResponse(workshops, total, filter.Page, filter.Size)
	return &page, nil
}

// GetWorkshop returns the workshop with its sessions.
func (s *workshopServiceImpl) GetWorkshop(ctx context.Context, id int64) (*models.Workshop, error) {
	workshop, err := s.workshopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sessions, err := s.workshopRepo.ListSessions(ctx, id)
	if err != nil {
		return nil, err
	}
	workshop.Sessions = sessions
	return workshop, nil
}

func (s *workshopServiceImpl) ListMyWorkshops(ctx context.Context, userID int64) ([]*models.Workshop, error) {
	return s.workshopRepo.ListByAttendee(ctx, userID)
}

// Attend adds the caller to an active workshop.
func (s *workshopServiceImpl) Attend(ctx context.Context, workshopID, userID int64) (*dto.MembershipResponse, error) {
	workshop, err := s.workshopRepo.GetByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if !workshop.IsActive {
		return nil, apperrors.NewConflictError("workshop is not active")
	}
	return s.addAttendee(ctx, workshop, userID)
}

func (s *workshopServiceImpl) Leave(ctx context.Context, workshopID, userID int64) (*dto.MembershipResponse, error) {
	return s.RemoveParticipant(ctx, workshopID, userID)
}

func (s *workshopServiceImpl) CreateWorkshop(ctx context.Context, req *dto.CreateWorkshopRequest) (*models.Workshop, error) {
	workshop := &models.Workshop{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Instructor:      strings.TrimSpace(req.Instructor),
		ScheduledAt:     req.ScheduledAt,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		DurationWeeks:   req.DurationWeeks,
		MaxParticipants: req.MaxParticipants,
		IsActive:        true,
		MeetingURL:      req.MeetingURL,
	}
	if req.IsActive != nil {
		workshop.IsActive = *req.IsActive
	}
	if err := validateWorkshop(workshop); err != nil {
		return nil, err
	}

	if err := s.workshopRepo.Create(ctx, workshop); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("workshopID", workshop.ID).Msg("Workshop created")
	return workshop, nil
}

func (s *workshopServiceImpl) UpdateWorkshop(ctx context.Context, id int64, req *dto.UpdateWorkshopRequest) (*models.Workshop, error) {
	workshop, err := s.workshopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		workshop.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		workshop.Description = *req.Description
	}
	if req.Instructor != nil {
		workshop.Instructor = strings.TrimSpace(*req.Instructor)
	}
	if req.ScheduledAt != nil {
		workshop.ScheduledAt = req.ScheduledAt
	}
	if req.StartDate != nil {
		workshop.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		workshop.EndDate = req.EndDate
	}
	if req.DurationWeeks != nil {
		workshop.DurationWeeks = *req.DurationWeeks
	}
	if req.MaxParticipants != nil {
		workshop.MaxParticipants = req.MaxParticipants
	}
	if req.IsActive != nil {
		workshop.IsActive = *req.IsActive
	}
	if req.MeetingURL != nil {
		workshop.MeetingURL = req.MeetingURL
	}
	if err := validateWorkshop(workshop); err != nil {
		return nil, err
	}

	if err := s.workshopRepo.Update(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

func (s *workshopServiceImpl) DeleteWorkshop(ctx context.Context, id int64) error {
	if err := s.workshopRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("workshopID", id).Msg("Workshop deleted")
	return nil
}

func (s *workshopServiceImpl) ListParticipants(ctx context.Context, workshopID int64) ([]*models.Member, error) {
	if _, err := s.workshopRepo.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	return s.workshopRepo.ListAttendees(ctx, workshopID)
}

// AddParticipant adds any user, active workshop or not. Capacity still applies.
func (s *workshopServiceImpl) AddParticipant(ctx context.Context, workshopID, userID int64) (*dto.MembershipResponse, error) {
	workshop, err := s.workshopRepo.GetByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	return s.addAttendee(ctx, workshop, userID)
}

func (s *workshopServiceImpl) RemoveParticipant(ctx context.Context, workshopID, userID int64) (*dto.MembershipResponse, error) {
	if _, err := s.workshopRepo.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	removed, err := s.workshopRepo.RemoveAttendee(ctx, workshopID, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.workshopRepo.CountAttendees(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if removed {
		s.logger.Info().Int64("workshopID", workshopID).Int64("userID", userID).Msg("Attendee removed")
	}
	return membership(userID, removed, count), nil
}

// addAttendee inserts the membership and emails the user only when a row was added.
func (s *workshopServiceImpl) addAttendee(ctx context.Context, workshop *models.Workshop, userID int64) (*dto.MembershipResponse, error) {
	added, err := s.workshopRepo.AddAttendee(ctx, workshop.ID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCapacityReached) {
			return nil, apperrors.NewCustomError(apperrors.ErrCapacityReached, "workshop is full")
		}
		return nil, err
	}
	count, err := s.workshopRepo.CountAttendees(ctx, workshop.ID)
	if err != nil {
		return nil, err
	}

	if added {
		s.logger.Info().Int64("workshopID", workshop.ID).Int64("userID", userID).Msg("Attendee added")
		s.notifyEnrollment(ctx, workshop, userID)
	}
	return membership(userID, added, count), nil
}

func (s *workshopServiceImpl) notifyEnrollment(ctx context.Context, workshop *models.Workshop, userID int64) {
	if s.notifier == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to load user for enrollment email")
		return
	}
	if err := s.notifier.WorkshopEnrollment(ctx, recipientOf(user), workshop); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Int64("workshopID", workshop.ID).Msg("Failed to send enrollment email")
	}
}

func (s *workshopServiceImpl) CreateSession(ctx context.Context, workshopID int64, req *dto.CreateSessionRequest) (*models.WorkshopSession, error) {
	if _, err := s.workshopRepo.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}

	session := &models.WorkshopSession{
		WorkshopID:      workshopID,
		Title:           strings.TrimSpace(req.Title),
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
	}
	if session.DurationMinutes == 0 {
		session.DurationMinutes = defaultSessionMinutes
	}
	if err := validateSessionMinutes(session.DurationMinutes); err != nil {
		return nil, err
	}
	if session.Title == "" {
		return nil, apperrors.NewValidationError("title", "title is required")
	}
	if session.StartsAt.IsZero() {
		return nil, apperrors.NewValidationError("startsAt", "startsAt is required")
	}

	if err := s.workshopRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func validateSessionMinutes(minutes int) error {
	if minutes <= 0 || minutes > maxSessionMinutes {
		return apperrors.NewValidationError("durationMinutes", "durationMinutes must be between 1 and 1440")
	}
	return nil
}

func (s *workshopServiceImpl) UpdateSession(ctx context.Context, workshopID, sessionID int64, req *dto.UpdateSessionRequest) (*models.WorkshopSession, error) {
	session, err := s.sessionOf(ctx, workshopID, sessionID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		session.Title = strings.TrimSpace(*req.Title)
		if session.Title == "" {
			return nil, apperrors.NewValidationError("title", "title is required")
		}
	}
	if req.StartsAt != nil && !req.StartsAt.Equal(session.StartsAt) {
		session.StartsAt = *req.StartsAt
		session.ReminderSentAt = nil
	}
	if req.DurationMinutes != nil {
		if err := validateSessionMinutes(*req.DurationMinutes); err != nil {
			return nil, err
		}
		session.DurationMinutes = *req.DurationMinutes
	}

	if err := s.workshopRepo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *workshopServiceImpl) DeleteSession(ctx context.Context, workshopID, sessionID int64) error {
	if _, err := s.sessionOf(ctx, workshopID, sessionID); err != nil {
		return err
	}
	return s.workshopRepo.DeleteSession(ctx, sessionID)
}

// CreateSessionMeeting schedules a provider meeting for the session and stores it.
func (s *workshopServiceImpl) CreateSessionMeeting(ctx context.Context, workshopID, sessionID int64) (*models.WorkshopSession, error) {
	workshop, err := s.workshopRepo.GetByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionOf(ctx, workshopID, sessionID)
	if err != nil {
		return nil, err
	}

	m, err := s.meetings.CreateMeeting(ctx, meeting.Request{
		Topic:           workshop.Title + ": " + session.Title,
		StartTime:       session.StartsAt,
		DurationMinutes: session.DurationMinutes,
		Timezone:        s.timezone,
	})
	if err != nil {
		return nil, err
	}

	if err := s.workshopRepo.SetSessionMeeting(ctx, sessionID, m.ID, m.JoinURL); err != nil {
		return nil, err
	}
	session.MeetingID = &m.ID
	session.JoinURL = &m.JoinURL

	s.logger.Info().Int64("sessionID", sessionID).Str("meetingID", m.ID).Msg("Session meeting created")
	return session, nil
}

// MeetingSignature signs a join token. Admins join as host, attendees as
// participants, anyone else is refused.
func (s *workshopServiceImpl) MeetingSignature(ctx context.Context, workshopID, sessionID, userID int64) (*dto.MeetingSignatureResponse, error) {
	session, err := s.sessionOf(ctx, workshopID, sessionID)
	if err != nil {
		return nil, err
	}

	admin, err := isAdmin(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	role := meeting.RoleHost
	if !admin {
		attendee, err := s.workshopRepo.IsAttendee(ctx, workshopID, userID)
		if err != nil {
			return nil, err
		}
		if !attendee {
			return nil, apperrors.NewForbiddenError("only attendees can join this session")
		}
		role = meeting.RoleAttendee
	}

	if session.MeetingID == nil || *session.MeetingID == "" {
		return nil, apperrors.NewConflictError("session has no meeting yet")
	}

	signature, err := s.meetings.Signature(*session.MeetingID, role)
	if err != nil {
		return nil, err
	}

	resp := &dto.MeetingSignatureResponse{
		Signature:     signature,
		MeetingNumber: *session.MeetingID,
		Role:          role,
		SDKKey:        s.meetings.SDKKey(),
	}
	if session.JoinURL != nil {
		resp.JoinURL = *session.JoinURL
	}
	return resp, nil
}

// sessionOf loads a session and checks it belongs to the workshop.
func (s *workshopServiceImpl) sessionOf(ctx context.Context, workshopID, sessionID int64) (*models.WorkshopSession, error) {
	session, err := s.workshopRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.WorkshopID != workshopID {
		return nil, apperrors.ErrSessionNotFound
	}
	return session, nil
}

func validateWorkshop(w *models.Workshop) error {
	if w.Title == "" {
		return apperrors.NewValidationError("title", "title is required")
	}
	if w.DurationWeeks < 0 {
		return apperrors.NewValidationError("durationWeeks", "durationWeeks cannot be negative")
	}
	if w.MaxParticipants != nil && *w.MaxParticipants < 0 {
		return apperrors.NewValidationError("maxParticipants", "maxParticipants cannot be negative")
	}
	if w.StartDate != nil && w.EndDate != nil && w.EndDate.Before(*w.StartDate) {
		return apperrors.NewValidationError("endDate", "endDate must not be before startDate")
	}
	return nil
}
