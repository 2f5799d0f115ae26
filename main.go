package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/importer"
	appInventory "github.com/Zhima-Mochi/minishop-pos/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/returns"
	"github.com/Zhima-Mochi/minishop-pos/internal/config"
	domproduct "github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/jsonfile"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/sqlite"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
	"github.com/Zhima-Mochi/minishop-pos/internal/pkg/logging"
	"github.com/Zhima-Mochi/minishop-pos/internal/presentation/terminal"
)

// store is what both backends provide.
type store interface {
	application.UnitOfWork
	Stores() application.Stores
	Close() error
}

func main() {
	importDir := flag.String("import", "", "load products.json, orders.json and inventory.json from `dir`, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Stdout:  cfg.Log.Stdout,
	})
	zap.ReplaceGlobals(baseLogger)

	metrics := prometrics.New("pos")
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), zaplogger.New(baseLogger), metrics)
	systemLogger := tel.Logger().With(observability.F("component", "main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, *importDir, tel)
	stop()

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			systemLogger.Error("metrics_textfile_error", observability.F("path", cfg.MetricsFile), observability.F("error", werr))
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		systemLogger.Error("pos_exit_error", observability.F("error", err))
		fmt.Fprintln(os.Stderr, err)
	}
	_ = baseLogger.Sync()
	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, importDir string, tel observability.Observability) error {
	systemLogger := tel.Logger().With(observability.F("component", "main"))

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			systemLogger.Error("store_close_error", observability.F("error", cerr))
		}
	}()
	systemLogger.Info("store_opened",
		observability.F("backend", cfg.Store.Backend),
		observability.F("path", cfg.Store.Path),
	)

	stores := st.Stores()
	imports := importer.New(st, tel)

	if importDir != "" {
		return runImport(ctx, imports, importDir)
	}
	if cfg.Seed.Enabled {
		if err := seed(ctx, stores, imports, cfg.Seed.Products, systemLogger); err != nil {
			return err
		}
	}

	bus := outbox.NewBus(tel.Logger())
	appInventory.NewLowStockWorker(bus, stores.Inventory, cfg.LowStockThreshold, tel).Start()

	term := terminal.New(terminal.Deps{
		Checkout: checkout.NewService(stores, st, id.NewOrderIDs(), bus, tel),
		Returns:  returns.NewService(stores, st, bus, tel),
		Lookup:   appInventory.NewLookup(stores.Products, stores.Inventory, cfg.LowStockThreshold, tel),
		Tel:      tel,
	}, os.Stdin, os.Stdout)

	// Stdin reads cannot be interrupted, so a signal abandons the terminal
	// goroutine instead of waiting for the next line.
	done := make(chan error, 1)
	go func() { done <- term.Run(ctx) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		fmt.Fprintln(os.Stdout, "\n\nOperation cancelled")
		return ctx.Err()
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return memory.NewStore(), nil
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// seed loads the configured catalog when no products exist yet.
func seed(ctx context.Context, stores application.Stores, imports *importer.UseCase, products []config.SeedProduct, logger observability.Logger) error {
	existing, err := stores.Products.List(ctx)
	if err != nil {
		return fmt.Errorf("seed: list products: %w", err)
	}
	if len(existing) > 0 || len(products) == 0 {
		return nil
	}

	batch := importer.Batch{Inventory: make(map[string]int, len(products))}
	for _, p := range products {
		batch.Products = append(batch.Products, domproduct.Product{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Barcode:  p.Barcode,
			Category: p.Category,
		})
		batch.Inventory[p.ID] = p.Stock
	}
	report, err := imports.Execute(ctx, batch)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	logger.Info("sample_data_initialized", observability.F("products", report.Products.Inserted))
	return nil
}

func runImport(ctx context.Context, imports *importer.UseCase, dir string) error {
	batch, err := jsonfile.LoadDir(dir)
	if err != nil {
		return err
	}
	report, err := imports.Execute(ctx, batch)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Imported from %s\n", dir)
	fmt.Fprintf(os.Stdout, "  Products:  %d inserted, %d skipped\n", report.Products.Inserted, report.Products.Skipped)
	fmt.Fprintf(os.Stdout, "  Orders:    %d inserted, %d skipped\n", report.Orders.Inserted, report.Orders.Skipped)
	fmt.Fprintf(os.Stdout, "  Inventory: %d inserted, %d skipped\n", report.Inventory.Inserted, report.Inventory.Skipped)
	return nil
}
