package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linklet/linklet/internal/model"
)

var tracer = otel.Tracer("github.com/linklet/linklet/internal/repository")

var (
	ErrNotFound     = errors.New("link not found")
	ErrCodeConflict = errors.New("short code already exists")
)

// LinkStore is the persistence contract the services consume.
// Lookup applies the active-flag and expiration checks inside the
// store, so an inactive or expired link is indistinguishable from a
// nonexistent one. IncrementClickCount must be a store-side atomic add;
// a caller-side read-modify-write races under concurrent clicks.
type LinkStore interface {
	Create(ctx context.Context, link *model.Link) error
	GetByCode(ctx context.Context, code string) (*model.Link, error)
	Lookup(ctx context.Context, code string) (*model.Link, error)
	Update(ctx context.Context, link *model.Link) error
	Deactivate(ctx context.Context, code string) error
	IncrementClickCount(ctx context.Context, id uuid.UUID) error
}

// LinkRepository handles database operations for links.
type LinkRepository struct {
	db *pgxpool.Pool
}

// NewLinkRepository creates a new link repository.
func NewLinkRepository(db *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{db: db}
}

const linkColumns = `id, short_code, original_url, password_hash, expires_at,
	COALESCE(utm_source, ''), COALESCE(utm_medium, ''), COALESCE(utm_campaign, ''),
	COALESCE(utm_term, ''), COALESCE(utm_content, ''),
	click_count, is_active, created_at, updated_at`

func scanLink(row pgx.Row) (*model.Link, error) {
	var link model.Link
	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.PasswordHash,
		&link.ExpiresAt,
		&link.UTM.Source,
		&link.UTM.Medium,
		&link.UTM.Campaign,
		&link.UTM.Term,
		&link.UTM.Content,
		&link.ClickCount,
		&link.IsActive,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Create inserts a new link record into the database.
func (r *LinkRepository) Create(ctx context.Context, link *model.Link) error {
	ctx, span := tracer.Start(ctx, "db.insert",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "INSERT"),
			attribute.String("db.sql.table", "links"),
			attribute.String("short_code", link.ShortCode),
		),
	)
	defer span.End()

	// A unique-constraint violation on short_code maps to
	// ErrCodeConflict so callers can handle collisions.
	query := `
		INSERT INTO links (id, short_code, original_url, password_hash, expires_at,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content, is_active)
		VALUES ($1, $2, $3, $4, $5,
			NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		link.ID,
		link.ShortCode,
		link.OriginalURL,
		link.PasswordHash,
		link.ExpiresAt,
		link.UTM.Source,
		link.UTM.Medium,
		link.UTM.Campaign,
		link.UTM.Term,
		link.UTM.Content,
		link.IsActive,
	).Scan(&link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCodeConflict
		}
		return err
	}

	return nil
}

// GetByCode retrieves a link by its short code regardless of active
// flag or expiry. Owner-facing reads go through here.
func (r *LinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "links"),
			attribute.String("short_code", code),
		),
	)
	defer span.End()

	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1`
	link, err := scanLink(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return link, nil
}

// Lookup retrieves a resolvable link by its short code. Soft-deleted
// and expired rows fall out of the predicate and surface as
// ErrNotFound, same as a code that was never issued.
func (r *LinkRepository) Lookup(ctx context.Context, code string) (*model.Link, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "links"),
			attribute.String("short_code", code),
		),
	)
	defer span.End()

	query := `SELECT ` + linkColumns + ` FROM links
		WHERE short_code = $1
		  AND is_active
		  AND (expires_at IS NULL OR expires_at > now())`
	link, err := scanLink(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return link, nil
}

// Update rewrites the mutable fields of a link.
func (r *LinkRepository) Update(ctx context.Context, link *model.Link) error {
	ctx, span := tracer.Start(ctx, "db.update",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "UPDATE"),
			attribute.String("db.sql.table", "links"),
			attribute.String("short_code", link.ShortCode),
		),
	)
	defer span.End()

	query := `
		UPDATE links
		SET original_url = $2,
			password_hash = $3,
			expires_at = $4,
			utm_source = NULLIF($5, ''),
			utm_medium = NULLIF($6, ''),
			utm_campaign = NULLIF($7, ''),
			utm_term = NULLIF($8, ''),
			utm_content = NULLIF($9, ''),
			is_active = $10,
			updated_at = now()
		WHERE short_code = $1
	`
	result, err := r.db.Exec(ctx, query,
		link.ShortCode,
		link.OriginalURL,
		link.PasswordHash,
		link.ExpiresAt,
		link.UTM.Source,
		link.UTM.Medium,
		link.UTM.Campaign,
		link.UTM.Term,
		link.UTM.Content,
		link.IsActive,
	)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a link. The row stays in place so the
// redirect path keeps treating the code as taken.
func (r *LinkRepository) Deactivate(ctx context.Context, code string) error {
	ctx, span := tracer.Start(ctx, "db.update",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "UPDATE"),
			attribute.String("db.sql.table", "links"),
			attribute.String("short_code", code),
		),
	)
	defer span.End()

	query := `UPDATE links SET is_active = FALSE, updated_at = now() WHERE short_code = $1`
	result, err := r.db.Exec(ctx, query, code)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementClickCount atomically bumps the click counter. The addition
// happens inside the UPDATE so concurrent clicks never lose updates.
func (r *LinkRepository) IncrementClickCount(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "db.update",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "UPDATE"),
			attribute.String("db.sql.table", "links"),
		),
	)
	defer span.End()

	query := `UPDATE links SET click_count = click_count + 1, updated_at = now() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure LinkRepository implements LinkStore at compile time
var _ LinkStore = (*LinkRepository)(nil)
