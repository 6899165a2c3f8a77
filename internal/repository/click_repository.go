package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linklet/linklet/internal/model"
)

// ClickRepository appends click events. Writes happen off the response
// path, so callers treat failures as log-and-continue.
type ClickRepository struct {
	db *pgxpool.Pool
}

// NewClickRepository creates a new click event repository.
func NewClickRepository(db *pgxpool.Pool) *ClickRepository {
	return &ClickRepository{db: db}
}

// Insert appends one click event record.
func (r *ClickRepository) Insert(ctx context.Context, click *model.ClickEvent) error {
	ctx, span := tracer.Start(ctx, "db.insert",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "INSERT"),
			attribute.String("db.sql.table", "click_events"),
		),
	)
	defer span.End()

	query := `
		INSERT INTO click_events (link_id, ip_address, user_agent, referrer, country,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''),
			NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
		RETURNING id, clicked_at
	`
	err := r.db.QueryRow(ctx, query,
		click.LinkID,
		click.IPAddress,
		click.UserAgent,
		click.Referrer,
		click.Country,
		click.UTM.Source,
		click.UTM.Medium,
		click.UTM.Campaign,
		click.UTM.Term,
		click.UTM.Content,
	).Scan(&click.ID, &click.ClickedAt)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
