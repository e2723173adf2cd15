package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"scrape-aggregator/internal/adapter"
	"scrape-aggregator/internal/database"
	"scrape-aggregator/internal/domain/item"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UpsertResult string

const (
	UpsertInserted UpsertResult = "inserted"
	UpsertUpdated  UpsertResult = "updated"
)

// ItemListFilter narrows the item listing. Pointer fields are absent when
// nil; validation of ranges happens in the usecase layer.
type ItemListFilter struct {
	Source   string
	SeenFrom *time.Time
	SeenTo   *time.Time
	MinPrice *float64
	MaxPrice *float64
	Query    string
	Limit    int
	Offset   int
}

type ItemRepository interface {
	Upsert(ctx context.Context, it item.Item) (UpsertResult, uuid.UUID, error)
	RecordRaw(ctx context.Context, raw adapter.RawRecord, itemID *uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (item.Item, error)
	List(ctx context.Context, f ItemListFilter) ([]item.Item, error)
}

type PostgresItemRepository struct {
	db database.DB
}

func NewPostgresItemRepository(db database.DB) *PostgresItemRepository {
	return &PostgresItemRepository{db: db}
}

// Upsert inserts or refreshes the row keyed by (source, external_id). The
// ON CONFLICT path overwrites every mutable field and bumps last_seen_at;
// first_seen_at never changes after the insert. Serialization of concurrent
// writers on the same key comes from the unique constraint, so overlapping
// runs stay safe without in-process locking. xmax = 0 only holds for a row
// the current transaction inserted, which is how insert and update are told
// apart from a single statement.
func (r *PostgresItemRepository) Upsert(ctx context.Context, it item.Item) (UpsertResult, uuid.UUID, error) {
	extra, err := json.Marshal(it.Extra)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("marshal extra: %w", err)
	}
	if it.Extra == nil {
		extra = []byte("{}")
	}

	now := time.Now().UTC()
	row := r.db.QueryRow(ctx,
		`INSERT INTO items (
			id, source, external_id, title, url, description,
			price_amount, price_currency, published_at, location, extra_json,
			first_seen_at, last_seen_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
		ON CONFLICT (source, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			description = EXCLUDED.description,
			price_amount = EXCLUDED.price_amount,
			price_currency = EXCLUDED.price_currency,
			published_at = EXCLUDED.published_at,
			location = EXCLUDED.location,
			extra_json = EXCLUDED.extra_json,
			last_seen_at = EXCLUDED.last_seen_at
		RETURNING id, (xmax = 0)`,
		uuid.New(), it.Source, it.ExternalID, it.Title, it.URL, nullableText(it.Description),
		it.PriceAmount, it.PriceCurrency, it.PublishedAt, nullableText(it.Location), extra,
		now,
	)

	var id uuid.UUID
	var inserted bool
	if err := row.Scan(&id, &inserted); err != nil {
		return "", uuid.Nil, classify(err)
	}
	if inserted {
		return UpsertInserted, id, nil
	}
	return UpsertUpdated, id, nil
}

// RecordRaw archives the as-fetched payload for audit, optionally linked to
// the canonical item it produced. Callers tolerate its failure.
func (r *PostgresItemRepository) RecordRaw(ctx context.Context, raw adapter.RawRecord, itemID *uuid.UUID) error {
	payload, err := json.Marshal(raw.Fields)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO raw_items (id, source, payload_json, fetched_at, item_ref) VALUES ($1,$2,$3,$4,$5)`,
		uuid.New(), raw.Source, payload, raw.FetchedAt, itemID,
	)
	return err
}

func (r *PostgresItemRepository) FindByID(ctx context.Context, id uuid.UUID) (item.Item, error) {
	row := r.db.QueryRow(ctx, itemSelect+` WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return item.Item{}, ErrItemNotFound
		}
		return item.Item{}, classify(err)
	}
	return it, nil
}

func (r *PostgresItemRepository) List(ctx context.Context, f ItemListFilter) ([]item.Item, error) {
	where := make([]string, 0, 6)
	args := make([]any, 0, 8)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s := strings.TrimSpace(f.Source); s != "" {
		where = append(where, "source = "+arg(s))
	}
	if f.SeenFrom != nil {
		where = append(where, "last_seen_at >= "+arg(*f.SeenFrom))
	}
	if f.SeenTo != nil {
		where = append(where, "last_seen_at <= "+arg(*f.SeenTo))
	}
	if f.MinPrice != nil {
		where = append(where, "price_amount >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price_amount <= "+arg(*f.MaxPrice))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pat := "%" + q + "%"
		where = append(where, "(title ILIKE "+arg(pat)+" OR description ILIKE "+arg(pat)+")")
	}

	query := itemSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY last_seen_at DESC, id ASC LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]item.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

const itemSelect = `SELECT id, source, external_id, title, url, COALESCE(description, ''),
	price_amount, price_currency, published_at, COALESCE(location, ''), extra_json,
	first_seen_at, last_seen_at
 FROM items`

func scanItem(row database.Row) (item.Item, error) {
	var it item.Item
	var extra []byte
	if err := row.Scan(
		&it.ID, &it.Source, &it.ExternalID, &it.Title, &it.URL, &it.Description,
		&it.PriceAmount, &it.PriceCurrency, &it.PublishedAt, &it.Location, &extra,
		&it.FirstSeenAt, &it.LastSeenAt,
	); err != nil {
		return item.Item{}, err
	}
	if len(extra) > 0 {
		_ = json.Unmarshal(extra, &it.Extra)
	}
	return it, nil
}

func nullableText(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
