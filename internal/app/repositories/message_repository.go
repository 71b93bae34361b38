package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/dberrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
)

var messageColumns = []string{
	"m.id", "m.sender_id", "u.name", "m.recipient_id", "m.workshop_id", "m.content", "m.is_read",
	"m.read_at", "m.created_at",
}

// MessageRepository handles direct and workshop group messages
type MessageRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *MessageRepository) selectMessages() squirrel.SelectBuilder {
	return r.sb.Select(messageColumns...).
		From("messages m").
		Join("users u ON u.id = m.sender_id")
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	m := &models.Message{}
	err := row.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.WorkshopID, &m.Content, &m.IsRead,
		&m.ReadAt, &m.CreatedAt)
	return m, err
}

// Create inserts a message and fills ID and CreatedAt.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	sql, args, err := r.sb.Insert("messages").
		Columns("sender_id", "recipient_id", "workshop_id", "content").
		Values(msg.SenderID, msg.RecipientID, msg.WorkshopID, msg.Content).
		Suffix("RETURNING id, is_read, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create message query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&msg.ID, &msg.IsRead, &msg.CreatedAt); err != nil {
		switch {
		case dberrors.IsForeignKeyViolation(err, "messages_workshop_id_fkey"):
			return apperrors.ErrWorkshopNotFound
		case dberrors.IsForeignKeyViolation(err, ""):
			return apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("senderID", msg.SenderID).Msg("Error executing create message query")
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

// GetByID returns a single message.
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	sql, args, err := r.selectMessages().Where(squirrel.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get message query: %w", err)
	}
	m, err := scanMessage(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("error retrieving message: %w", err)
	}
	return m, nil
}

// ListInbox returns one page of direct messages received by the user, newest first.
func (r *MessageRepository) ListInbox(ctx context.Context, userID int64, filter dto.MessageListFilter) ([]*models.Message, int64, error) {
	where := squirrel.Eq{"m.recipient_id": userID}
	if filter.UnreadOnly {
		where["m.is_read"] = false
	}
	return r.page(ctx, where, filter)
}

// ListSent returns one page of direct messages sent by the user, newest first.
func (r *MessageRepository) ListSent(ctx context.Context, userID int64, filter dto.MessageListFilter) ([]*models.Message, int64, error) {
	return r.page(ctx, squirrel.And{
		squirrel.Eq{"m.sender_id": userID},
		squirrel.NotEq{"m.recipient_id": nil},
	}, filter)
}

func (r *MessageRepository) page(ctx context.Context, where squirrel.Sqlizer, filter dto.MessageListFilter) ([]*models.Message, int64, error) {
	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("messages m").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count messages query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count messages query")
		return nil, 0, fmt.Errorf("error counting messages: %w", err)
	}
	if total == 0 {
		return []*models.Message{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	msgs, err := r.query(ctx, r.selectMessages().
		Where(where).
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(limit).
		Offset(offset))
	return msgs, total, err
}

// ListConversation returns the direct messages between two users in chronological order.
func (r *MessageRepository) ListConversation(ctx context.Context, userID, otherID int64) ([]*models.Message, error) {
	return r.query(ctx, r.selectMessages().
		Where(squirrel.Or{
			squirrel.Eq{"m.sender_id": userID, "m.recipient_id": otherID},
			squirrel.Eq{"m.sender_id": otherID, "m.recipient_id": userID},
		}).
		OrderBy("m.created_at ASC", "m.id ASC"))
}

// ListWorkshopMessages returns a workshop's group messages in chronological order.
func (r *MessageRepository) ListWorkshopMessages(ctx context.Context, workshopID int64) ([]*models.Message, error) {
	return r.query(ctx, r.selectMessages().
		Where(squirrel.Eq{"m.workshop_id": workshopID}).
		OrderBy("m.created_at ASC", "m.id ASC"))
}

func (r *MessageRepository) query(ctx context.Context, b squirrel.SelectBuilder) ([]*models.Message, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list messages query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list messages query")
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]*models.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkRead flags a message as read. Already-read messages keep their first read time.
func (r *MessageRepository) MarkRead(ctx context.Context, id int64, at time.Time) error {
	sql, args, err := r.sb.Update("messages").
		Set("is_read", true).
		Set("read_at", squirrel.Expr("COALESCE(read_at, ?)", at)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark read query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error marking message read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}

// UnreadCount counts unread direct messages addressed to the user.
func (r *MessageRepository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("messages").
		Where(squirrel.Eq{"recipient_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build unread count query: %w", err)
	}
	var n int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting unread messages: %w", err)
	}
	return n, nil
}

// Delete removes a message.
func (r *MessageRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("messages").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete message query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("messageID", id).Msg("Error executing delete message query")
		return fmt.Errorf("error deleting message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}
