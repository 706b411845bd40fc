package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/sentinel-auth/httpclient"
)

var _ httpclient.TokenStore = (*SQL)(nil)

// Schema creates the default token table. The upsert in SetTokens needs the
// primary key on subject.
const Schema = `CREATE TABLE IF NOT EXISTS auth_tokens (
    subject       VARCHAR(255) PRIMARY KEY,
    access_token  TEXT         NOT NULL,
    refresh_token TEXT         NOT NULL,
    updated_at    TIMESTAMP    NOT NULL
)`

// SQL stores one row of tokens per subject.
//
// Queries use "?" placeholders rebound to the driver's bind style, and the
// upsert uses ON CONFLICT, which PostgreSQL and SQLite both support.
type SQL struct {
	db      *sqlx.DB
	subject string
	cfg     *config

	selectQuery string
	upsertQuery string
	deleteQuery string

	now func() time.Time
}

// NewSQL creates a SQL store for subject.
//
// Example:
//
//	db := sqlx.MustConnect("postgres", dsn)
//	db.MustExec(tokenstore.Schema)
//	store, err := tokenstore.NewSQL(db, "user-42", tokenstore.WithDBSystem("postgresql"))
func NewSQL(db *sqlx.DB, subject string, opts ...Option) (*SQL, error) {
	if db == nil {
		return nil, ErrNilClient
	}
	if subject == "" {
		return nil, ErrEmptySubject
	}

	cfg := newConfig(opts...)

	return &SQL{
		db:      db,
		subject: subject,
		cfg:     cfg,
		selectQuery: db.Rebind(fmt.Sprintf(
			`SELECT access_token, refresh_token FROM %s WHERE subject = ?`, cfg.Table)),
		upsertQuery: db.Rebind(fmt.Sprintf(
			`INSERT INTO %s (subject, access_token, refresh_token, updated_at) VALUES (?, ?, ?, ?) `+
				`ON CONFLICT (subject) DO UPDATE SET access_token = excluded.access_token, `+
				`refresh_token = excluded.refresh_token, updated_at = excluded.updated_at`, cfg.Table)),
		deleteQuery: db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE subject = ?`, cfg.Table)),
		now:         time.Now,
	}, nil
}

// AccessToken implements httpclient.TokenStore.
func (s *SQL) AccessToken(ctx context.Context) (string, error) {
	creds, err := s.Load(ctx)
	return creds.AccessToken, err
}

// RefreshToken implements httpclient.TokenStore.
func (s *SQL) RefreshToken(ctx context.Context) (string, error) {
	creds, err := s.Load(ctx)
	return creds.RefreshToken, err
}

// Load returns both tokens. A missing row yields empty Credentials.
func (s *SQL) Load(ctx context.Context) (Credentials, error) {
	ctx, span := s.start(ctx, "tokenstore.sql.Load", "SELECT")
	defer span.End()

	var creds Credentials
	err := s.db.GetContext(ctx, &creds, s.selectQuery, s.subject)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, nil
	}
	if err != nil {
		recordError(span, err)
		return Credentials{}, fmt.Errorf("tokenstore: sql load: %w", err)
	}
	return creds, nil
}

// SetTokens implements httpclient.TokenStore.
func (s *SQL) SetTokens(ctx context.Context, accessToken, refreshToken string) error {
	ctx, span := s.start(ctx, "tokenstore.sql.SetTokens", "INSERT")
	defer span.End()

	_, err := s.db.ExecContext(ctx, s.upsertQuery, s.subject, accessToken, refreshToken, s.now().UTC())
	if err != nil {
		recordError(span, err)
		return fmt.Errorf("tokenstore: sql set tokens: %w", err)
	}
	return nil
}

// Clear deletes the subject's row.
func (s *SQL) Clear(ctx context.Context) error {
	ctx, span := s.start(ctx, "tokenstore.sql.Clear", "DELETE")
	defer span.End()

	if _, err := s.db.ExecContext(ctx, s.deleteQuery, s.subject); err != nil {
		recordError(span, err)
		return fmt.Errorf("tokenstore: sql clear: %w", err)
	}
	return nil
}

func (s *SQL) start(ctx context.Context, name, operation string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", s.cfg.Table),
	}
	if s.cfg.DBSystem != "" {
		attrs = append(attrs, attribute.String("db.system", s.cfg.DBSystem))
	}
	return s.cfg.Tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}
