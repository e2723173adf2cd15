package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"scrape-aggregator/internal/adapter"
	"scrape-aggregator/internal/database"
	"scrape-aggregator/internal/domain/item"
	"scrape-aggregator/internal/domain/scrape"

	"github.com/google/uuid"
)

func rawFixture() adapter.RawRecord {
	return adapter.RawRecord{
		Source:    "acme-api",
		Fields:    map[string]string{"title": "Widget", "url": "https://example.com/42"},
		FetchedAt: time.Now().UTC(),
	}
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan dest mismatch")
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			val, ok := r.vals[i].(uuid.UUID)
			if !ok {
				return fmt.Errorf("scan type mismatch uuid")
			}
			*d = val
		case *bool:
			val, ok := r.vals[i].(bool)
			if !ok {
				return fmt.Errorf("scan type mismatch bool")
			}
			*d = val
		default:
			return fmt.Errorf("unsupported scan type")
		}
	}
	return nil
}

type emptyRows struct{}

func (emptyRows) Close()            {}
func (emptyRows) Next() bool        { return false }
func (emptyRows) Scan(...any) error { return fmt.Errorf("no rows") }
func (emptyRows) Err() error        { return nil }

type fakeDB struct {
	mu sync.Mutex

	itemsByKey map[string]uuid.UUID
	rawRows    int
	jobStatus  map[uuid.UUID]string

	lastQuery string
	lastArgs  []any
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		itemsByKey: map[string]uuid.UUID{},
		jobStatus:  map[uuid.UUID]string{},
	}
}

func (db *fakeDB) Ping(ctx context.Context) error { return nil }
func (db *fakeDB) Close() error                   { return nil }
func (db *fakeDB) SQLDB() *sql.DB                 { return nil }

func (db *fakeDB) Begin(ctx context.Context) (database.Tx, error) {
	return nil, fmt.Errorf("not implemented")
}

func (db *fakeDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))

	switch {
	case strings.HasPrefix(q, "insert into raw_items"):
		db.rawRows++
		return 1, nil

	case strings.HasPrefix(q, "insert into scrape_jobs"):
		jobID := args[0].(uuid.UUID)
		db.jobStatus[jobID] = args[3].(string)
		return 1, nil

	case strings.HasPrefix(q, "update scrape_jobs"):
		jobID := args[0].(uuid.UUID)
		if db.jobStatus[jobID] != "running" {
			return 0, nil
		}
		db.jobStatus[jobID] = args[6].(string)
		return 1, nil

	default:
		return 0, nil
	}
}

func (db *fakeDB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.lastQuery = query
	db.lastArgs = args

	q := strings.ToLower(strings.TrimSpace(query))
	if strings.HasPrefix(q, "select") {
		return emptyRows{}, nil
	}
	return nil, fmt.Errorf("unsupported query")
}

func (db *fakeDB) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	db.mu.Lock()
	defer db.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))

	switch {
	case strings.HasPrefix(q, "insert into items"):
		// args: id, source, external_id, ...
		source := args[1].(string)
		externalID := args[2].(string)
		key := source + "|" + externalID
		if id, ok := db.itemsByKey[key]; ok {
			return fakeRow{vals: []any{id, false}}
		}
		id := args[0].(uuid.UUID)
		db.itemsByKey[key] = id
		return fakeRow{vals: []any{id, true}}

	default:
		return fakeRow{err: fmt.Errorf("unsupported queryrow")}
	}
}

func TestItemRepository_UpsertInsertThenUpdate(t *testing.T) {
	db := newFakeDB()
	repo := NewPostgresItemRepository(db)

	it := item.Item{
		Source:        "acme-api",
		ExternalID:    "42",
		Title:         "Widget",
		URL:           "https://example.com/42",
		PriceCurrency: "USD",
	}

	res, firstID, err := repo.Upsert(context.Background(), it)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res != UpsertInserted {
		t.Fatalf("expected inserted, got %s", res)
	}

	it.Title = "Widget v2"
	res, secondID, err := repo.Upsert(context.Background(), it)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res != UpsertUpdated {
		t.Fatalf("expected updated, got %s", res)
	}
	if firstID != secondID {
		t.Fatalf("same key must keep its row id")
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.itemsByKey) != 1 {
		t.Fatalf("expected 1 row, got %d", len(db.itemsByKey))
	}
}

func TestItemRepository_RecordRaw(t *testing.T) {
	db := newFakeDB()
	repo := NewPostgresItemRepository(db)

	id := uuid.New()
	err := repo.RecordRaw(context.Background(), rawFixture(), &id)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.rawRows != 1 {
		t.Fatalf("expected 1 raw row, got %d", db.rawRows)
	}
}

func TestItemRepository_ListBuildsFilterClauses(t *testing.T) {
	db := newFakeDB()
	repo := NewPostgresItemRepository(db)

	min := 100.0
	_, err := repo.List(context.Background(), ItemListFilter{
		Source:   "site_one",
		MinPrice: &min,
		Query:    "lamp",
		Limit:    20,
		Offset:   5,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	q := db.lastQuery
	for _, clause := range []string{
		"source = $1",
		"price_amount >= $2",
		"title ILIKE $3 OR description ILIKE $4",
		"ORDER BY last_seen_at DESC, id ASC",
		"LIMIT $5 OFFSET $6",
	} {
		if !strings.Contains(q, clause) {
			t.Fatalf("query missing %q:\n%s", clause, q)
		}
	}
	want := []any{"site_one", 100.0, "%lamp%", "%lamp%", 20, 5}
	if len(db.lastArgs) != len(want) {
		t.Fatalf("expected %d args, got %v", len(want), db.lastArgs)
	}
	for i := range want {
		if db.lastArgs[i] != want[i] {
			t.Fatalf("arg %d: expected %v, got %v", i, want[i], db.lastArgs[i])
		}
	}
}

func TestItemRepository_ListDateRangeClauses(t *testing.T) {
	db := newFakeDB()
	repo := NewPostgresItemRepository(db)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	maxP := 50.0
	_, err := repo.List(context.Background(), ItemListFilter{
		SeenFrom: &from,
		SeenTo:   &to,
		MaxPrice: &maxP,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	q := db.lastQuery
	for _, clause := range []string{
		"last_seen_at >= $1",
		"last_seen_at <= $2",
		"price_amount <= $3",
		"LIMIT $4 OFFSET $5",
	} {
		if !strings.Contains(q, clause) {
			t.Fatalf("query missing %q:\n%s", clause, q)
		}
	}
	if db.lastArgs[0] != from || db.lastArgs[1] != to {
		t.Fatalf("unexpected date args: %v", db.lastArgs)
	}
}

func TestItemRepository_ListNoFiltersHasNoWhere(t *testing.T) {
	db := newFakeDB()
	repo := NewPostgresItemRepository(db)

	_, err := repo.List(context.Background(), ItemListFilter{Limit: 20})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if strings.Contains(db.lastQuery, "WHERE") {
		t.Fatalf("unfiltered list must not emit a WHERE clause:\n%s", db.lastQuery)
	}
	if len(db.lastArgs) != 2 {
		t.Fatalf("expected only limit and offset args, got %v", db.lastArgs)
	}
}

func TestScrapeJobRepository_FinishExactlyOnce(t *testing.T) {
	db := newFakeDB()
	repo := NewPostgresScrapeJobRepository(db)

	job := scrape.NewJob([]string{"a"})
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("create: %v", err)
	}

	done := job.Reduce(nil)
	if err := repo.Finish(context.Background(), done); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := repo.Finish(context.Background(), done); err == nil {
		t.Fatalf("second finish must fail")
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.jobStatus[job.ID] != string(scrape.StatusSuccess) {
		t.Fatalf("unexpected stored status: %s", db.jobStatus[job.ID])
	}
}

func TestScrapeJobRepository_CreateRejectsTerminalJob(t *testing.T) {
	repo := NewPostgresScrapeJobRepository(newFakeDB())
	job := scrape.NewJob([]string{"a"}).Reduce(nil)
	if err := repo.Create(context.Background(), job); err == nil {
		t.Fatalf("expected create to reject a finished job")
	}
}

func TestScrapeJobRepository_FinishRejectsRunningStatus(t *testing.T) {
	repo := NewPostgresScrapeJobRepository(newFakeDB())
	job := scrape.NewJob([]string{"a"})
	if err := repo.Finish(context.Background(), job); err == nil {
		t.Fatalf("expected finish to reject a running job")
	}
}
