// Command seed-db loads a catalog JSON file into PostgreSQL: units first,
// then products referencing them by unit name. Existing rows are updated in
// place, so re-running the seed is safe.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-store/internal/repository"
)

type catalogJSON struct {
	Units    []string      `json:"units"`
	Products []productJSON `json:"products"`
}

type productJSON struct {
	Name    string          `json:"name"`
	Barcode string          `json:"barcode"`
	Price   decimal.Decimal `json:"price"`
	Unit    string          `json:"unit"`
}

const (
	upsertUnitSQL = `INSERT INTO units (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertProductSQL = `INSERT INTO products (id, unit_id, name, barcode, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (barcode) DO UPDATE SET
			unit_id = EXCLUDED.unit_id,
			name    = EXCLUDED.name,
			price   = EXCLUDED.price`
)

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}
	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	unitIDs, err := seedUnits(ctx, pool, catalog.Units)
	if err != nil {
		return errors.Wrap(err, "seed units")
	}
	if err := seedProducts(ctx, pool, unitIDs, catalog.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	return nil
}

func seedUnits(ctx context.Context, pool *pgxpool.Pool, names []string) (map[string]string, error) {
	slog.Info("upserting units", slog.Int("count", len(names)))

	ids := make(map[string]string, len(names))
	for _, name := range names {
		var id string
		if err := pool.QueryRow(ctx, upsertUnitSQL, uuid.New().String(), name).Scan(&id); err != nil {
			return nil, errors.Wrapf(err, "upsert unit %s", name)
		}
		ids[name] = id

		slog.Info("upserted unit", slog.String("id", id), slog.String("name", name))
	}
	return ids, nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, unitIDs map[string]string, products []productJSON) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		unitID, ok := unitIDs[p.Unit]
		if !ok {
			return errors.Errorf("product %s references unknown unit %s", p.Barcode, p.Unit)
		}
		if _, err := pool.Exec(ctx, upsertProductSQL,
			uuid.New().String(), unitID, p.Name, p.Barcode, p.Price,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Barcode)
		}

		slog.Info("upserted product", slog.String("barcode", p.Barcode), slog.String("name", p.Name))
	}
	return nil
}
