package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/Davidgelis/whatsapp-ai-bot/internal/db"
)

var (
	// ErrNotFound is returned when no project matches the given id or
	// phone number id.
	ErrNotFound = errors.New("project not found")
	// ErrInvalidInput is returned when a create or update is missing a
	// required field.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrPhoneNumberIDTaken is returned when a create or update would bind
	// a phone number id that already routes to another project.
	ErrPhoneNumberIDTaken = errors.New("whatsapp phone number id already in use")
)

const pgUniqueViolation = "23505"

const projectColumns = `id, project_name, whatsapp_phone_number_id, whatsapp_token, system_prompt, created_at, updated_at`

// Service is the project directory: admin CRUD plus the resolve read path
// the relay pipeline depends on.
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
		logger: log.With(slog.String("service", "project")),
	}
}

// ResolveByPhoneNumberID routes an inbound phone number id to its project.
func (s *Service) ResolveByPhoneNumberID(ctx context.Context, phoneNumberID string) (Project, error) {
	phoneNumberID = strings.TrimSpace(phoneNumberID)
	if phoneNumberID == "" {
		return Project{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE whatsapp_phone_number_id = $1`,
		phoneNumberID,
	)
	return scanProject(row)
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Project, error) {
	if err := validateInput(input.Name, input.PhoneNumberID); err != nil {
		return Project{}, err
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO projects (project_name, whatsapp_phone_number_id, whatsapp_token, system_prompt)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+projectColumns,
		strings.TrimSpace(input.Name),
		strings.TrimSpace(input.PhoneNumberID),
		dbpkg.ToPgText(input.WhatsAppToken),
		dbpkg.ToPgText(input.SystemPrompt),
	)
	proj, err := scanProject(row)
	if err != nil {
		return Project{}, mapUniqueViolation(err)
	}
	s.logger.Info("project created",
		slog.Int64("project_id", proj.ID),
		slog.String("phone_number_id", proj.PhoneNumberID),
	)
	return proj, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// List returns all projects, newest first.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, proj)
	}
	return projects, rows.Err()
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Project, error) {
	if err := validateInput(input.Name, input.PhoneNumberID); err != nil {
		return Project{}, err
	}
	row := s.db.QueryRow(ctx,
		`UPDATE projects
		 SET project_name = $1,
		     whatsapp_phone_number_id = $2,
		     whatsapp_token = $3,
		     system_prompt = $4,
		     updated_at = NOW()
		 WHERE id = $5
		 RETURNING `+projectColumns,
		strings.TrimSpace(input.Name),
		strings.TrimSpace(input.PhoneNumberID),
		dbpkg.ToPgText(input.WhatsAppToken),
		dbpkg.ToPgText(input.SystemPrompt),
		id,
	)
	proj, err := scanProject(row)
	if err != nil {
		return Project{}, mapUniqueViolation(err)
	}
	return proj, nil
}

// Delete removes a project. The messages table cascades on the foreign key,
// so the project's conversation log goes with it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.logger.Info("project deleted", slog.Int64("project_id", id))
	return nil
}

func validateInput(name, phoneNumberID string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: project_name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(phoneNumberID) == "" {
		return fmt.Errorf("%w: whatsapp_phone_number_id is required", ErrInvalidInput)
	}
	return nil
}

func scanProject(row pgx.Row) (Project, error) {
	var (
		proj         Project
		token        pgtype.Text
		systemPrompt pgtype.Text
		createdAt    pgtype.Timestamp
		updatedAt    pgtype.Timestamp
	)
	err := row.Scan(&proj.ID, &proj.Name, &proj.PhoneNumberID, &token, &systemPrompt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, err
	}
	proj.WhatsAppToken = dbpkg.TextToString(token)
	proj.SystemPrompt = dbpkg.TextToString(systemPrompt)
	proj.CreatedAt = createdAt.Time
	proj.UpdatedAt = updatedAt.Time
	return proj, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrPhoneNumberIDTaken
	}
	return err
}
