// Command catalog-import loads large gzipped JSONL product dumps into the
// catalog. Files are read concurrently; a bloom filter drops duplicate
// barcodes across files before they reach the database, and a single writer
// upserts the survivors.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-store/internal/repository"
)

const (
	bloomFPR      = 0.001
	progressEvery = 100_000
	// maxLineBytes bounds a single JSONL record.
	maxLineBytes = 1 << 20
)

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

// record is one parsed product line ready for upsert.
type record struct {
	name    string
	barcode string
	price   decimal.Decimal
	unit    string
}

func main() {
	var (
		dataDir     string
		databaseURL string
		capacity    uint
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalog*.jsonl.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&capacity, "capacity", 10_000_000, "expected number of distinct barcodes (bloom filter sizing)")
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

	if err := run(ctx, dataDir, databaseURL, capacity); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, capacity uint) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "catalog*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no catalog*.jsonl.gz files in %s", dataDir)
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("importing catalog files",
		slog.Int("files", len(files)),
		slog.Uint64("capacity", uint64(capacity)),
	)

	// seen drops barcodes that (probably) went through already. A false
	// positive skips a record; the upsert makes re-runs safe regardless.
	var (
		seenMu sync.Mutex
		seen   = bloom.NewWithEstimates(capacity, bloomFPR)
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records := make(chan record, 1024)
	g, gctx := errgroup.WithContext(ctx)

	for _, file := range files {
		g.Go(func() error {
			return readFile(gctx, file, records, func(barcode string) bool {
				seenMu.Lock()
				defer seenMu.Unlock()
				return seen.TestOrAddString(barcode)
			})
		})
	}

	// A writer failure cancels the readers so they never block on a full
	// channel with nobody draining it.
	done := make(chan error, 1)
	go func() {
		err := writeRecords(ctx, pool, records)
		if err != nil {
			cancel()
		}
		done <- err
	}()

	err = g.Wait()
	close(records)
	if werr := <-done; werr != nil {
		return errors.Wrap(werr, "write records")
	}
	if err != nil {
		return errors.Wrap(err, "read files")
	}
	return nil
}

// readFile streams one gzipped JSONL file, skipping records whose barcode was
// already seen according to dedup.
func readFile(ctx context.Context, path string, out chan<- record, dedup func(string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader %s", path)
	}
	defer gz.Close()

	var total, skipped int64
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			return errors.Wrapf(err, "parse %s line %d", path, total+1)
		}
		total++

		if dedup(rec.barcode) {
			skipped++
			continue
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}

		if total%progressEvery == 0 {
			slog.Info("progress",
				slog.String("file", filepath.Base(path)),
				slog.Int64("lines", total),
				slog.Int64("skipped", skipped),
			)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	slog.Info("file done",
		slog.String("file", filepath.Base(path)),
		slog.Int64("lines", total),
		slog.Int64("skipped", skipped),
	)
	return nil
}

func parseRecord(line []byte) (record, error) {
	var rec record
	d := jx.DecodeBytes(line)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			rec.name = v
			return err
		case "barcode":
			v, err := d.Str()
			rec.barcode = v
			return err
		case "price":
			n, err := d.Num()
			if err != nil {
				return err
			}
			rec.price, err = decimal.NewFromString(n.String())
			return err
		case "unit":
			v, err := d.Str()
			rec.unit = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return rec, err
	}
	if rec.barcode == "" || rec.name == "" || rec.unit == "" {
		return rec, errors.New("record needs name, barcode, and unit")
	}
	return rec, nil
}

// writeRecords upserts records one by one, resolving unit names to ids with a
// local cache. It is the only writer, so the cache needs no locking.
func writeRecords(ctx context.Context, pool *pgxpool.Pool, records <-chan record) error {
	unitIDs := make(map[string]string)
	var written int64

	for rec := range records {
		unitID, ok := unitIDs[rec.unit]
		if !ok {
			if err := pool.QueryRow(ctx, upsertUnitSQL, uuid.New().String(), rec.unit).Scan(&unitID); err != nil {
				return errors.Wrapf(err, "upsert unit %s", rec.unit)
			}
			unitIDs[rec.unit] = unitID
		}

		if _, err := pool.Exec(ctx, upsertProductSQL,
			uuid.New().String(), unitID, rec.name, rec.barcode, rec.price,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", rec.barcode)
		}

		written++
		if written%progressEvery == 0 {
			slog.Info("upserted", slog.Int64("products", written))
		}
	}

	slog.Info("write done", slog.Int64("products", written))
	return nil
}
