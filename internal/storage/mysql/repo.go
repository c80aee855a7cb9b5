package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"talent_testimonials/internal/adapters/observability"
	"talent_testimonials/internal/domain"
)

type testimonialRow struct {
	ID            int64         `db:"id"`
	Rating        sql.NullInt64 `db:"rating"`
	ServiceType   string        `db:"service_type"`
	Featured      bool          `db:"featured"`
	PublishedAt   time.Time     `db:"published_at"`
	Body          string        `db:"body"`
	AuthorName    string        `db:"author_name"`
	AuthorTitle   string        `db:"author_title"`
	AuthorCompany string        `db:"author_company"`
}

func (r testimonialRow) toDomain() domain.Review {
	rv := domain.Review{
		ID:          r.ID,
		Featured:    r.Featured,
		PublishedAt: r.PublishedAt.UTC(),
		Body:        r.Body,
		Author:      domain.Author{Name: r.AuthorName, Title: r.AuthorTitle, Company: r.AuthorCompany},
	}
	// unknown legacy values come back as ServiceUnspecified
	rv.ServiceType, _ = domain.ParseServiceType(r.ServiceType)
	if r.Rating.Valid {
		n := int(r.Rating.Int64)
		rv.Rating = &n
	}
	return rv
}

func valRating(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sqlx.DB }

func New(db *sql.DB) *Repo { return &Repo{db: sqlx.NewDb(db, "mysql")} }

// FetchAll returns every stored testimonial; order is unspecified.
func (r *Repo) FetchAll(ctx context.Context) ([]domain.Review, error) {
	var rows []testimonialRow
	err := r.db.SelectContext(ctx, &rows, selectTestimonialsSQL)
	observability.ObserveStoreFetch("mysql", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	out := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*9) // 9 params per row
	for _, rv := range rs {
		st := rv.ServiceType
		if st == "" {
			st = domain.ServiceUnspecified
		}
		values = append(values, "(?,?,?,?,?,?,?,?,?)")
		args = append(args,
			rv.ID,
			valRating(rv.Rating),
			string(st),
			rv.Featured,
			rv.PublishedAt.UTC(),
			rv.Body,
			rv.Author.Name,
			rv.Author.Title,
			rv.Author.Company,
		)
	}
	sqlStr := insertTestimonialsPrefix + strings.Join(values, ",") + insertTestimonialsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
