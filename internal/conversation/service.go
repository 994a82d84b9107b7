package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/Davidgelis/whatsapp-ai-bot/internal/db"
)

// Service is the append-only conversation log. Inserts never target an
// existing row; nothing here updates or deletes messages.
type Service struct {
	db     dbpkg.DBTX
	logger *slog.Logger
}

func NewService(log *slog.Logger, db dbpkg.DBTX) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:     db,
		logger: log.With(slog.String("service", "conversation")),
	}
}

// Append writes one message row and returns it with its assigned id.
func (s *Service) Append(ctx context.Context, input AppendInput) (Message, error) {
	metaBytes, err := json.Marshal(nonNilMap(input.Metadata))
	if err != nil {
		return Message{}, fmt.Errorf("marshal message metadata: %w", err)
	}
	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO messages (project_id, from_number, to_number, message_body, direction, timestamp, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, project_id, from_number, to_number, message_body, direction, timestamp, metadata`,
		input.ProjectID,
		input.From,
		input.To,
		input.Body,
		string(input.Direction),
		pgtype.Timestamp{Time: timestamp, Valid: true},
		metaBytes,
	)
	msg, err := scanMessage(row)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// ListByProject returns a project's messages, newest first.
func (s *Service) ListByProject(ctx context.Context, projectID int64) ([]Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, project_id, from_number, to_number, message_body, direction, timestamp, metadata
		 FROM messages WHERE project_id = $1 ORDER BY timestamp DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListAll returns every message joined with its project name, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT m.id, m.project_id, m.from_number, m.to_number, m.message_body, m.direction, m.timestamp, m.metadata, p.project_name
		 FROM messages m
		 JOIN projects p ON m.project_id = p.id
		 ORDER BY m.timestamp DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			entry     Entry
			direction string
			timestamp pgtype.Timestamp
			metadata  []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ProjectID, &entry.From, &entry.To, &entry.Body, &direction, &timestamp, &metadata, &entry.ProjectName); err != nil {
			return nil, err
		}
		entry.Direction = Direction(direction)
		entry.Timestamp = timestamp.Time
		entry.Metadata = parseJSONMap(metadata)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountByProject returns message counts per project, newest project first.
// Projects with no messages still appear with a zero count.
func (s *Service) CountByProject(ctx context.Context) ([]ProjectCount, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.project_name, COUNT(m.id) AS message_count
		 FROM projects p
		 LEFT JOIN messages m ON p.id = m.project_id
		 GROUP BY p.id, p.project_name
		 ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	defer rows.Close()

	counts := make([]ProjectCount, 0)
	for rows.Next() {
		var count ProjectCount
		if err := rows.Scan(&count.ProjectID, &count.ProjectName, &count.MessageCount); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		msg       Message
		direction string
		timestamp pgtype.Timestamp
		metadata  []byte
	)
	err := row.Scan(&msg.ID, &msg.ProjectID, &msg.From, &msg.To, &msg.Body, &direction, &timestamp, &metadata)
	if err != nil {
		return Message{}, err
	}
	msg.Direction = Direction(direction)
	msg.Timestamp = timestamp.Time
	msg.Metadata = parseJSONMap(metadata)
	return msg, nil
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func parseJSONMap(data []byte) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Warn("parseJSONMap: unmarshal failed", slog.Any("error", err))
	}
	return m
}
