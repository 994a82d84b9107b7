package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	dbpkg "github.com/Davidgelis/whatsapp-ai-bot/internal/db"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike, so login responses do not leak which of the two failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service manages admin accounts.
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
		logger: log.With(slog.String("service", "accounts")),
	}
}

// EnsureAdmin creates the bootstrap admin account when no accounts exist.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return fmt.Errorf("admin email/password required in config")
	}

	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM admin`).Scan(&count); err != nil {
		return fmt.Errorf("count admin accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	if password == "change-your-password-here" {
		s.logger.Warn("admin password uses default placeholder; please update the config")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO admin (email, password_hash) VALUES ($1, $2)`,
		email, string(hashed),
	); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}
	s.logger.Info("admin account created", slog.String("email", email))
	return nil
}

// Authenticate checks an email/password pair against the admin table.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Admin{}, ErrInvalidCredentials
	}

	var (
		admin     Admin
		hash      string
		createdAt pgtype.Timestamp
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM admin WHERE email = $1`,
		email,
	).Scan(&admin.ID, &admin.Email, &hash, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, ErrInvalidCredentials
		}
		return Admin{}, fmt.Errorf("load admin account: %w", err)
	}
	admin.CreatedAt = createdAt.Time

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}
