package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"
)

// fakeRow implements pgx.Row with a custom scan function.
type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r *fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

// fakeDBTX implements db.DBTX for unit testing.
type fakeDBTX struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	execs        []string
}

func (d *fakeDBTX) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, sql)
	if d.execFunc != nil {
		return d.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (d *fakeDBTX) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (d *fakeDBTX) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if d.queryRowFunc != nil {
		return d.queryRowFunc(ctx, sql, args...)
	}
	return &fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func makeCountRow(count int64) *fakeRow {
	return &fakeRow{scanFunc: func(dest ...any) error {
		*dest[0].(*int64) = count
		return nil
	}}
}

func makeAdminRow(id int64, email, passwordHash string) *fakeRow {
	return &fakeRow{scanFunc: func(dest ...any) error {
		*dest[0].(*int64) = id
		*dest[1].(*string) = email
		*dest[2].(*string) = passwordHash
		*dest[3].(*pgtype.Timestamp) = pgtype.Timestamp{Time: time.Now().UTC(), Valid: true}
		return nil
	}}
}

func TestEnsureAdminCreatesBootstrapAccount(t *testing.T) {
	t.Parallel()

	db := &fakeDBTX{
		queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return makeCountRow(0)
		},
		execFunc: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
			if args[0].(string) != "admin@example.com" {
				t.Fatalf("unexpected email arg: %v", args[0])
			}
			hash := args[1].(string)
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")) != nil {
				t.Fatalf("stored hash does not match password")
			}
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}
	svc := NewService(nil, db)

	if err := svc.EnsureAdmin(context.Background(), "admin@example.com", "s3cret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(db.execs) != 1 {
		t.Fatalf("expected one insert, got %d", len(db.execs))
	}
}

func TestEnsureAdminSkipsWhenAccountExists(t *testing.T) {
	t.Parallel()

	db := &fakeDBTX{
		queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return makeCountRow(1)
		},
	}
	svc := NewService(nil, db)

	if err := svc.EnsureAdmin(context.Background(), "admin@example.com", "s3cret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(db.execs) != 0 {
		t.Fatalf("expected no insert, got %d", len(db.execs))
	}
}

func TestEnsureAdminRequiresCredentials(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{name: "missing email", email: "", password: "s3cret"},
		{name: "missing password", email: "admin@example.com", password: ""},
		{name: "blank fields", email: "  ", password: " "},
	}
	svc := NewService(nil, &fakeDBTX{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.EnsureAdmin(context.Background(), tc.email, tc.password); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	db := &fakeDBTX{
		queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
			if args[0].(string) != "admin@example.com" {
				return &fakeRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
			}
			return makeAdminRow(7, "admin@example.com", string(hash))
		},
	}
	svc := NewService(nil, db)

	admin, err := svc.Authenticate(context.Background(), "admin@example.com", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.ID != 7 || admin.Email != "admin@example.com" {
		t.Fatalf("unexpected admin: %+v", admin)
	}

	if _, err := svc.Authenticate(context.Background(), "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@example.com", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for blank input, got %v", err)
	}
}

func TestAuthenticateStorageFailure(t *testing.T) {
	t.Parallel()

	db := &fakeDBTX{
		queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFunc: func(...any) error { return errors.New("connection reset") }}
		},
	}
	svc := NewService(nil, db)

	_, err := svc.Authenticate(context.Background(), "admin@example.com", "s3cret")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected storage error to surface as-is, got %v", err)
	}
}
