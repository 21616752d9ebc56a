package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "wrenconnect/internal/pkg/chat/domain"
)

// PgChatRepository is the Postgres adapter for the chat store. Tables live in
// the "chat" schema; see persistence/schema.sql.
type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}

	id := c.ID
	if id == "" {
		id = chat.NewID()
	}
	now := c.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	status := c.Status
	if status == "" {
		status = chat.StatusActive
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO chat.conversation (id, kind, name, avatar_ref, created_by, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, id, c.Kind, c.Name, c.AvatarRef, c.CreatedBy, status, now)
	if err != nil {
		return "", err
	}

	for _, accountID := range dedupParticipants(c.Participants, c.CreatedBy) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat.participant (conversation_id, account_id)
			VALUES ($1, $2)
			ON CONFLICT (conversation_id, account_id) DO NOTHING
		`, id, accountID); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *PgChatRepository) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	c, err := scanConversation(r.pool.QueryRow(ctx, `
		SELECT id, kind, name, avatar_ref, created_by, status, created_at, updated_at
		FROM chat.conversation
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	c.Participants, err = r.ListParticipantIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PgChatRepository) FindAnalystChat(ctx context.Context, userID, analystID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	return scanConversation(r.pool.QueryRow(ctx, `
		SELECT id, kind, name, avatar_ref, created_by, status, created_at, updated_at
		FROM chat.conversation
		WHERE kind = 'analyst' AND user_ref = $1 AND analyst_ref = $2 AND status = 'active'
	`, userID, analystID))
}

// InitAnalystChat races fairly: a partial unique index on (user_ref,
// analyst_ref) over active analyst chats makes the INSERT first-writer-wins,
// and only the winner appends the welcome message. Losers read back the
// winner's row, so every caller observes one conversation with exactly one
// welcome message.
func (r *PgChatRepository) InitAnalystChat(ctx context.Context, userID, analystID string, welcome chat.Message) (*chat.Conversation, bool, error) {
	if r == nil || r.pool == nil {
		return nil, false, errors.New("PgChatRepository: nil pool")
	}

	id := chat.NewID()
	now := time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var insertedID string
	err = tx.QueryRow(ctx, `
		INSERT INTO chat.conversation (id, kind, user_ref, analyst_ref, status, created_at, updated_at)
		VALUES ($1, 'analyst', $2, $3, 'active', $4, $4)
		ON CONFLICT (user_ref, analyst_ref) WHERE kind = 'analyst' AND status = 'active' DO NOTHING
		RETURNING id
	`, id, userID, analystID, now).Scan(&insertedID)

	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race: hand back the winner's conversation.
		_ = tx.Rollback(ctx)
		conv, ferr := r.FindAnalystChat(ctx, userID, analystID)
		if ferr != nil {
			return nil, false, ferr
		}
		conv.Messages, ferr = r.FetchMessages(ctx, conv.ID)
		if ferr != nil {
			return nil, false, ferr
		}
		conv.Participants = []string{userID, analystID}
		return conv, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	for _, accountID := range []string{userID, analystID} {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat.participant (conversation_id, account_id) VALUES ($1, $2)
		`, insertedID, accountID); err != nil {
			return nil, false, err
		}
	}

	welcome.ID = chat.NewID()
	welcome.ConversationID = insertedID
	if welcome.SentAt.IsZero() {
		welcome.SentAt = now
	}
	if err := insertMessage(ctx, tx, welcome); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	conv := &chat.Conversation{
		ID:           insertedID,
		Kind:         chat.KindAnalyst,
		Status:       chat.StatusActive,
		Participants: []string{userID, analystID},
		CreatedAt:    now,
		UpdatedAt:    now,
		Messages:     []chat.Message{welcome},
	}
	return conv, true, nil
}

func (r *PgChatRepository) ListConversations(ctx context.Context, accountID string, kind chat.Kind) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	query := `
		SELECT c.id, c.kind, c.name, c.avatar_ref, c.created_by, c.status, c.created_at, c.updated_at
		FROM chat.conversation c
		WHERE ($1 = '' OR c.kind = $1)
		  AND c.status <> 'closed'
		  AND ($2 = ''
		       OR c.created_by = $2
		       OR EXISTS (SELECT 1 FROM chat.participant p
		                  WHERE p.conversation_id = c.id AND p.account_id = $2))
		ORDER BY c.updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, string(kind), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	for i := range convs {
		convs[i].Participants, err = r.ListParticipantIDs(ctx, convs[i].ID)
		if err != nil {
			return nil, err
		}
		// Analyst listings embed the log; the legacy store kept analyst
		// messages inside the chat document.
		if convs[i].Kind == chat.KindAnalyst {
			convs[i].Messages, err = r.FetchMessages(ctx, convs[i].ID)
			if err != nil {
				return nil, err
			}
		}
	}
	return convs, nil
}

func (r *PgChatRepository) DeleteConversation(ctx context.Context, id string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM chat.conversation WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) SetAvatar(ctx context.Context, id string, avatarRef string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation SET avatar_ref = $2, updated_at = $3 WHERE id = $1
	`, id, avatarRef, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) SetStatus(ctx context.Context, id string, status chat.Status) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) AppendMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	var status chat.Status
	err := r.pool.QueryRow(ctx,
		`SELECT status FROM chat.conversation WHERE id = $1`, m.ConversationID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == chat.StatusClosed {
		return nil, chat.ErrClosed
	}

	// Server assigns id and timestamp; the client's provisional id never
	// reaches the store.
	m.ID = chat.NewID()
	m.SentAt = time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertMessage(ctx, tx, m); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE chat.conversation SET updated_at = $2 WHERE id = $1`,
		m.ConversationID, m.SentAt,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgChatRepository) FetchMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat.conversation WHERE id = $1)`, conversationID,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, chat.ErrNotFound
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, sender_name, content, attachments, sent_at, is_read
		FROM chat.message
		WHERE conversation_id = $1
		ORDER BY sent_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var (
			msg chat.Message
			att []byte
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.SenderName,
			&msg.Content, &att, &msg.SentAt, &msg.IsRead); err != nil {
			return nil, err
		}
		if len(att) > 0 {
			if err := json.Unmarshal(att, &msg.Attachments); err != nil {
				return nil, fmt.Errorf("decode attachments for message %s: %w", msg.ID, err)
			}
		}
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) MarkRead(ctx context.Context, conversationID, readerID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, conversationID, readerID)
	return err
}

func (r *PgChatRepository) IsParticipant(ctx context.Context, conversationID, accountID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgChatRepository: nil pool")
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.participant
			WHERE conversation_id = $1 AND account_id = $2
			UNION
			SELECT 1 FROM chat.conversation
			WHERE id = $1 AND created_by = $2
		)
	`, conversationID, accountID).Scan(&ok)
	return ok, err
}

func (r *PgChatRepository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT account_id FROM chat.participant WHERE conversation_id = $1
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertMessage(ctx context.Context, tx pgx.Tx, m chat.Message) error {
	att, err := json.Marshal(m.Attachments)
	if err != nil {
		return err
	}
	if m.Attachments == nil {
		att = []byte("[]")
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO chat.message (id, conversation_id, sender_id, sender_name, content, attachments, sent_at, is_read)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
	`, m.ID, m.ConversationID, m.SenderID, m.SenderName, m.Content, att, m.SentAt, m.IsRead)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*chat.Conversation, error) {
	var c chat.Conversation
	err := row.Scan(&c.ID, &c.Kind, &c.Name, &c.AvatarRef, &c.CreatedBy, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func dedupParticipants(ids []string, creator string) []string {
	seen := make(map[string]struct{}, len(ids)+1)
	out := make([]string, 0, len(ids)+1)
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range ids {
		add(id)
	}
	add(creator)
	return out
}
