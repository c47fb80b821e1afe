package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/canline/labelstation/internal/core/db"
	"github.com/canline/labelstation/internal/types"
)

func testQueries(t *testing.T) *db.Queries {
	t.Helper()

	database, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	// :memory: databases are per-connection; a second pooled connection
	// would see an empty schema.
	database.SetMaxOpenConns(1)

	if err := db.MigrateUp(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		t.Fatalf("load queries: %v", err)
	}
	return queries
}

func TestCounterStore_ReadAdvance(t *testing.T) {
	ctx := context.Background()
	queries := testQueries(t)
	counters := NewCounterStore(queries)

	if _, err := counters.Read(ctx); !errors.Is(err, types.ErrCounterMissing) {
		t.Fatalf("Read() on empty table error = %v, want ErrCounterMissing", err)
	}

	if err := counters.Init(ctx, "line-1", 100); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	c, err := counters.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if c.Handle != "line-1" || c.NextID != 100 {
		t.Fatalf("Read() = %+v, want line-1/100", c)
	}

	if err := counters.Advance(ctx, c.Handle, 100, 101); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	c, _ = counters.Read(ctx)
	if c.NextID != 101 {
		t.Errorf("NextID after advance = %d, want 101", c.NextID)
	}
}

func TestCounterStore_AdvanceConflict(t *testing.T) {
	ctx := context.Background()
	queries := testQueries(t)
	counters := NewCounterStore(queries)

	if err := counters.Init(ctx, "line-1", 100); err != nil {
		t.Fatal(err)
	}

	// Stale expected value: another session already advanced.
	err := counters.Advance(ctx, "line-1", 99, 100)
	if !errors.Is(err, types.ErrCounterConflict) {
		t.Fatalf("Advance() with stale expected error = %v, want ErrCounterConflict", err)
	}

	// The stored value must be untouched by the failed advance.
	c, _ := counters.Read(ctx)
	if c.NextID != 100 {
		t.Errorf("NextID after conflict = %d, want 100", c.NextID)
	}
}

func sampleEvent(canID int, lot string) types.PrintEvent {
	return types.PrintEvent{
		CanID:       canID,
		Lot:         lot,
		BrandName:   "ACME",
		ProductName: "Dulce de leche",
		WeightGrams: 1250,
		RNE:         "04001234",
		RNPA:        "04567890",
		Code:        "000100000075012001250",
		ProducedOn:  "2026-08-30",
		ExpiresOn:   "2028-08-30",
		RecordedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestEventStore_CreateAndLotCheck(t *testing.T) {
	ctx := context.Background()
	queries := testQueries(t)
	events := NewEventStore(queries)

	exists, err := events.ExistsByLot(ctx, "00007")
	if err != nil {
		t.Fatalf("ExistsByLot() error = %v", err)
	}
	if exists {
		t.Fatal("ExistsByLot() = true on empty log")
	}

	if err := events.Create(ctx, sampleEvent(100, "00007")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	exists, err = events.ExistsByLot(ctx, "00007")
	if err != nil {
		t.Fatalf("ExistsByLot() error = %v", err)
	}
	if !exists {
		t.Error("ExistsByLot() = false after create")
	}

	ev, err := events.ByCanID(ctx, 100)
	if err != nil {
		t.Fatalf("ByCanID() error = %v", err)
	}
	if ev.Lot != "00007" || ev.Code != "000100000075012001250" {
		t.Errorf("ByCanID() = %+v, want lot 00007", ev)
	}
	if ev.EventID == "" {
		t.Error("EventID was not generated on create")
	}
}

func TestEventStore_CreateRejectsMalformedID(t *testing.T) {
	ctx := context.Background()
	queries := testQueries(t)
	events := NewEventStore(queries)

	ev := sampleEvent(100, "00007")
	ev.EventID = "not-a-uuid"
	if err := events.Create(ctx, ev); err == nil {
		t.Fatal("Create() with malformed event id succeeded, want error")
	}

	// A caller-supplied well-formed id is kept as-is.
	ev.EventID = types.NewEventID()
	if err := events.Create(ctx, ev); err != nil {
		t.Fatalf("Create() with valid id error = %v", err)
	}
	got, err := events.ByCanID(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if got.EventID != ev.EventID {
		t.Errorf("EventID = %s, want caller-supplied %s", got.EventID, ev.EventID)
	}
}

func TestEventStore_DuplicateCanLotPairRejected(t *testing.T) {
	ctx := context.Background()
	queries := testQueries(t)
	events := NewEventStore(queries)

	if err := events.Create(ctx, sampleEvent(100, "00007")); err != nil {
		t.Fatal(err)
	}
	// Same can_id under a different lot is a legal retry artifact.
	if err := events.Create(ctx, sampleEvent(100, "00008")); err != nil {
		t.Fatalf("Create() with new lot error = %v", err)
	}
	// The exact pair repeating means a double record; the index rejects it.
	if err := events.Create(ctx, sampleEvent(100, "00007")); err == nil {
		t.Error("Create() with duplicate can_id+lot pair succeeded, want unique violation")
	}
}

func TestCatalog_RoundTrip(t *testing.T) {
	ctx := context.Background()
	queries := testQueries(t)
	catalog := NewCatalog(queries)

	acme := types.Brand{ID: "b-acme", Name: "ACME", Indicator: 5}
	other := types.Brand{ID: "b-other", Name: "Otra", Indicator: 7}
	if err := catalog.AddBrand(ctx, acme); err != nil {
		t.Fatal(err)
	}
	if err := catalog.AddBrand(ctx, other); err != nil {
		t.Fatal(err)
	}

	ddl := types.Product{
		ID: "p-ddl", Name: "Dulce de leche", Code: "012",
		Ingredients: "Leche entera. Azucar.", RNE: "04001234", RNPA: "04567890",
		BrandIDs: []string{"b-acme"},
	}
	if err := catalog.AddProduct(ctx, ddl); err != nil {
		t.Fatal(err)
	}

	brands, err := catalog.Brands(ctx)
	if err != nil {
		t.Fatalf("Brands() error = %v", err)
	}
	if len(brands) != 2 {
		t.Fatalf("Brands() returned %d, want 2", len(brands))
	}

	products, err := catalog.Products(ctx)
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("Products() returned %d, want 1", len(products))
	}
	p := products[0]
	if !p.SoldUnder("b-acme") {
		t.Error("product should be sold under b-acme")
	}
	if p.SoldUnder("b-other") {
		t.Error("product should not be sold under b-other")
	}
}
