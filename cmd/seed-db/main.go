// Command seed-db loads a product catalog and demo customers into the
// database and ensures an initial discount configuration exists.
//
// The catalog file is a JSON array of products; a .gz suffix is transparently
// decompressed. Large catalogs are streamed rather than read into memory.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"catalog-orders/internal/postgres"
)

const seedWorkers = 8

type productRow struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

type customerRow struct {
	ID       string
	Name     string
	Email    string
	Frequent bool
}

func main() {
	var (
		databaseURL string
		catalogFile string
		withDemo    bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to product catalog JSON (optionally .gz)")
	flag.BoolVar(&withDemo, "demo", true, "seed demo customers and a default discount config")
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

	if err := run(ctx, databaseURL, catalogFile, withDemo); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string, withDemo bool) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if withDemo {
		if err := seedCustomers(ctx, pool); err != nil {
			return errors.Wrap(err, "seed customers")
		}
		if err := seedDiscountConfig(ctx, pool); err != nil {
			return errors.Wrap(err, "seed discount config")
		}
	}

	return nil
}

const upsertProductSQL = `
INSERT INTO products (id, name, price, stock, is_active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock`

// seedCatalog streams the catalog file and upserts products concurrently.
func seedCatalog(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading catalog", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open catalog file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	rows := make(chan productRow, seedWorkers)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rows)
		return decodeCatalog(ctx, r, rows)
	})

	var upserted [seedWorkers]int
	for i := range seedWorkers {
		g.Go(func() error {
			for p := range rows {
				if _, err := pool.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.Price, p.Stock); err != nil {
					return errors.Wrapf(err, "upsert product %s", p.ID)
				}
				upserted[i]++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	total := 0
	for _, n := range upserted {
		total += n
	}
	slog.Info("upserted products", slog.Int("count", total))
	return nil
}

// decodeCatalog streams a JSON array of product objects into out.
func decodeCatalog(ctx context.Context, r io.Reader, out chan<- productRow) error {
	d := jx.Decode(r, 4096)
	return d.Arr(func(d *jx.Decoder) error {
		var p productRow
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				v, err := d.Str()
				p.ID = v
				return err
			case "name":
				v, err := d.Str()
				p.Name = v
				return err
			case "price":
				raw, err := d.Raw()
				if err != nil {
					return err
				}
				v, err := decimal.NewFromString(strings.Trim(raw.String(), `"`))
				p.Price = v
				return err
			case "stock":
				v, err := d.Int()
				p.Stock = v
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		if p.ID == "" {
			return errors.New("product without id in catalog")
		}
		select {
		case out <- p:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

const upsertCustomerSQL = `
INSERT INTO customers (id, name, email, is_frequent)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, email = EXCLUDED.email, is_frequent = EXCLUDED.is_frequent`

func seedCustomers(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo customers")

	customers := []customerRow{
		{ID: "cust-alice", Name: "Alice Martin", Email: "alice@example.com", Frequent: true},
		{ID: "cust-bob", Name: "Bob Novak", Email: "bob@example.com", Frequent: false},
		{ID: "cust-carol", Name: "Carol Reyes", Email: "carol@example.com", Frequent: true},
	}

	for _, c := range customers {
		if _, err := pool.Exec(ctx, upsertCustomerSQL, c.ID, c.Name, c.Email, c.Frequent); err != nil {
			return errors.Wrapf(err, "upsert customer %s", c.ID)
		}
		slog.Info("upserted customer", slog.String("id", c.ID), slog.Bool("frequent", c.Frequent))
	}

	return nil
}

const (
	countActiveConfigsSQL = `SELECT COUNT(*) FROM discount_configs WHERE is_active`

	insertConfigSQL = `
INSERT INTO discount_configs (id, start_date, end_date, time_percent, random_percent, frequent_percent, is_active)
VALUES ($1, $2, $3, $4, $5, $6, TRUE)`
)

// seedDiscountConfig inserts a 30-day promotional window unless an active
// config already exists.
func seedDiscountConfig(ctx context.Context, pool *pgxpool.Pool) error {
	var active int
	if err := pool.QueryRow(ctx, countActiveConfigsSQL).Scan(&active); err != nil {
		return errors.Wrap(err, "count active configs")
	}
	if active > 0 {
		slog.Info("active discount config already present, skipping")
		return nil
	}

	now := time.Now()
	_, err := pool.Exec(ctx, insertConfigSQL,
		uuid.NewString(),
		now.Add(-time.Hour),
		now.AddDate(0, 0, 30),
		decimal.NewFromInt(10),
		decimal.NewFromInt(25),
		decimal.NewFromInt(5),
	)
	if err != nil {
		return errors.Wrap(err, "insert discount config")
	}

	slog.Info("seeded default discount config", slog.Int("window_days", 30))
	return nil
}
