// cmd/seed/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandlens/internal/analytics"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the database with catalog and history data",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory containing seed CSV files",
				Value:   "./data/seeds",
				EnvVars: []string{"SEED_DATA_DIR"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "catalog",
				Usage:  "Seed products and customers",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runCatalogSeeder,
			},
			{
				Name:   "history",
				Usage:  "Seed sales, price history and inventory snapshots",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runHistorySeeder,
			},
			{
				Name:  "all",
				Usage: "Seed catalog and history data",
				Flags: []cli.Flag{newDBURLFlag()},
				Action: func(c *cli.Context) error {
					if err := runCatalogSeeder(c); err != nil {
						return fmt.Errorf("error seeding catalog: %w", err)
					}
					if err := runHistorySeeder(c); err != nil {
						return fmt.Errorf("error seeding history: %w", err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withTx(c *cli.Context, fn func(ctx context.Context, tx *sql.Tx, dataDir string) error) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx, c.String("data-dir")); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func runCatalogSeeder(c *cli.Context) error {
	return withTx(c, func(ctx context.Context, tx *sql.Tx, dataDir string) error {
		log.Println("Seeding catalog data...")
		if err := seedNamedTable(ctx, tx, "products", filepath.Join(dataDir, "products.csv")); err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
		if err := seedNamedTable(ctx, tx, "customers", filepath.Join(dataDir, "customers.csv")); err != nil {
			return fmt.Errorf("failed to seed customers: %w", err)
		}
		log.Println("Catalog seeding completed successfully!")
		return nil
	})
}

func runHistorySeeder(c *cli.Context) error {
	return withTx(c, func(ctx context.Context, tx *sql.Tx, dataDir string) error {
		log.Println("Seeding history data...")
		if err := seedSales(ctx, tx, filepath.Join(dataDir, "sales.csv")); err != nil {
			return fmt.Errorf("failed to seed sales: %w", err)
		}
		if err := seedPriceHistory(ctx, tx, filepath.Join(dataDir, "price_history.csv")); err != nil {
			return fmt.Errorf("failed to seed price history: %w", err)
		}
		if err := seedInventory(ctx, tx, filepath.Join(dataDir, "inventory_snapshots.csv")); err != nil {
			return fmt.Errorf("failed to seed inventory snapshots: %w", err)
		}
		log.Println("History seeding completed successfully!")
		return nil
	})
}

// seedNamedTable loads an id,name CSV into a catalog table.
func seedNamedTable(ctx context.Context, tx *sql.Tx, tableName, filePath string) error {
	log.Printf("Seeding %s from %s\n", tableName, filePath)

	query := fmt.Sprintf(
		"INSERT INTO %s (id, name) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name",
		tableName,
	)

	return forEachRecord(filePath, 2, func(line int, record []string) error {
		id, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: bad id %q", line, record[0])
		}
		if _, err := tx.ExecContext(ctx, query, id, record[1]); err != nil {
			return fmt.Errorf("line %d: insert failed: %w", line, err)
		}
		return nil
	})
}

// seedSales loads product_id,customer_id,sale_date,quantity,unit_price rows.
// Empty quantity and price default to zero; a malformed value fails the
// import with the offending line.
func seedSales(ctx context.Context, tx *sql.Tx, filePath string) error {
	log.Printf("Seeding sales from %s\n", filePath)

	query := `
        INSERT INTO sales (product_id, customer_id, sale_date, quantity, unit_price)
        VALUES ($1, $2, $3, $4, $5)
    `

	return forEachRecord(filePath, 5, func(line int, record []string) error {
		productID, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: bad product_id %q", line, record[0])
		}
		customerID, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: bad customer_id %q", line, record[1])
		}
		saleDate, err := time.Parse("2006-01-02", record[2])
		if err != nil {
			return fmt.Errorf("line %d: bad sale_date %q", line, record[2])
		}

		quantity, err := requireNumberOrEmpty(record[3])
		if err != nil {
			return fmt.Errorf("line %d: quantity: %w", line, err)
		}
		unitPrice, err := requireNumberOrEmpty(record[4])
		if err != nil {
			return fmt.Errorf("line %d: unit_price: %w", line, err)
		}

		if _, err := tx.ExecContext(ctx, query, productID, customerID, saleDate, quantity, unitPrice); err != nil {
			return fmt.Errorf("line %d: insert failed: %w", line, err)
		}
		return nil
	})
}

// seedPriceHistory loads product_id,effective_date,unit_cost,unit_price rows.
// An empty unit_cost is stored as NULL, not as zero.
func seedPriceHistory(ctx context.Context, tx *sql.Tx, filePath string) error {
	log.Printf("Seeding price history from %s\n", filePath)

	query := `
        INSERT INTO price_history (product_id, effective_date, unit_cost, unit_price)
        VALUES ($1, $2, $3, $4)
    `

	return forEachRecord(filePath, 4, func(line int, record []string) error {
		productID, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: bad product_id %q", line, record[0])
		}
		effectiveDate, err := time.Parse("2006-01-02", record[1])
		if err != nil {
			return fmt.Errorf("line %d: bad effective_date %q", line, record[1])
		}

		var unitCost sql.NullFloat64
		parsed := analytics.ParseNumber(record[2])
		switch {
		case parsed.Valid:
			unitCost = sql.NullFloat64{Float64: parsed.Value, Valid: true}
		case parsed.Reason == "empty":
			// NULL cost; the engine coerces it to zero at read time.
		default:
			return fmt.Errorf("line %d: unit_cost: %s", line, parsed.Reason)
		}

		unitPrice, err := requireNumberOrEmpty(record[3])
		if err != nil {
			return fmt.Errorf("line %d: unit_price: %w", line, err)
		}

		if _, err := tx.ExecContext(ctx, query, productID, effectiveDate, unitCost, unitPrice); err != nil {
			return fmt.Errorf("line %d: insert failed: %w", line, err)
		}
		return nil
	})
}

// seedInventory loads product_id,on_hand,backorder,as_of rows.
func seedInventory(ctx context.Context, tx *sql.Tx, filePath string) error {
	log.Printf("Seeding inventory snapshots from %s\n", filePath)

	query := `
        INSERT INTO inventory_snapshots (product_id, on_hand, backorder, as_of)
        VALUES ($1, $2, $3, $4)
    `

	return forEachRecord(filePath, 4, func(line int, record []string) error {
		productID, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: bad product_id %q", line, record[0])
		}

		onHand, err := requireNumberOrEmpty(record[1])
		if err != nil {
			return fmt.Errorf("line %d: on_hand: %w", line, err)
		}
		backorder, err := requireNumberOrEmpty(record[2])
		if err != nil {
			return fmt.Errorf("line %d: backorder: %w", line, err)
		}

		asOf, err := time.Parse("2006-01-02", record[3])
		if err != nil {
			return fmt.Errorf("line %d: bad as_of %q", line, record[3])
		}

		if _, err := tx.ExecContext(ctx, query, productID, onHand, backorder, asOf); err != nil {
			return fmt.Errorf("line %d: insert failed: %w", line, err)
		}
		return nil
	})
}

// requireNumberOrEmpty accepts a numeric field where blank means zero but a
// malformed value is an error rather than a silent zero.
func requireNumberOrEmpty(raw string) (float64, error) {
	parsed := analytics.ParseNumber(raw)
	if !parsed.Valid && parsed.Reason != "empty" {
		return 0, errors.New(parsed.Reason)
	}
	return parsed.OrZero(), nil
}

// forEachRecord streams a headered CSV, checking the column count per row.
func forEachRecord(filePath string, minColumns int, fn func(line int, record []string) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	line := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		if len(record) < minColumns {
			return fmt.Errorf("line %d: expected %d columns, got %d", line, minColumns, len(record))
		}
		if err := fn(line, record); err != nil {
			return err
		}
	}
	return nil
}
