package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"pricescout/internal/competitor"
	"pricescout/internal/config"
	"pricescout/internal/database"
	"pricescout/internal/logging"
	"pricescout/internal/service"
)

const usage = `usage: pricescout [-config dir] <command> [flags]

commands:
  create    -name NAME -base PRICE [-sale PRICE] [-cost PRICE] [-keywords TEXT]
  reprice   -product ID -base PRICE [-sale PRICE] [-reason TEXT]
  set-price -product ID -price PRICE [-reason TEXT]
  view      -product ID
  purchase  -product ID
  refresh   -product ID
  insight   -product ID
`

func main() {
	configDir := flag.String("config", ".", "directory containing config.yaml")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildService(ctx, logger, &cfg)
	if err != nil {
		logger.Error("Failed to initialise", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	out, err := run(ctx, svc, flag.Arg(0), flag.Args()[1:])
	if cfg.Metrics.Textfile != "" {
		writeMetrics(logger, cfg.Metrics.Textfile)
	}
	if err != nil {
		logger.Error("Command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("Failed to write output", "error", err)
		os.Exit(1)
	}
}

func buildService(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*service.PriceService, func(), error) {
	var (
		repo     database.Repository
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if dsn := cfg.Database.DSN(); dsn != "" {
		pg, err := database.NewPostgresRepository(ctx, dsn)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, pg.Close)
		repo = pg
	} else {
		logger.Warn("No database configured, using in-memory product store")
		repo = database.NewMemoryRepository()
	}
	if err := repo.Migrate(ctx); err != nil {
		cleanup()
		return nil, func() {}, err
	}

	var cache competitor.SnapshotCache
	if cfg.Redis.Addr != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx).Err(); err != nil {
			_ = rc.Close()
			cleanup()
			return nil, func() {}, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cleanups = append(cleanups, func() { _ = rc.Close() })
		cache = competitor.NewRedisSnapshotCache(rc, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
	} else {
		cache = competitor.NewMemorySnapshotCache()
	}

	provider, err := competitor.NewProvider(logger, cfg.Competitors)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return service.NewPriceService(logger, repo, provider, cache, cfg), cleanup, nil
}

// writeMetrics dumps the collectors for the node_exporter textfile
// collector, since a single command exits before anything could scrape it.
func writeMetrics(logger *slog.Logger, path string) {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		logger.Warn("Failed to write metrics", "path", path, "error", err)
	}
}

func run(ctx context.Context, svc *service.PriceService, command string, args []string) (any, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	var (
		productID = fs.String("product", "", "product ID")
		name      = fs.String("name", "", "product name")
		keywords  = fs.String("keywords", "", "extra search keywords")
		base      = fs.String("base", "", "base price")
		sale      = fs.String("sale", "", "sale price")
		cost      = fs.String("cost", "", "unit cost")
		price     = fs.String("price", "", "new effective price")
		reason    = fs.String("reason", "", "price change reason")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if command == "create" {
		basePrice, err := decimal.NewFromString(*base)
		if err != nil {
			return nil, fmt.Errorf("invalid -base: %w", err)
		}
		salePrice, err := optionalDecimal(*sale)
		if err != nil {
			return nil, fmt.Errorf("invalid -sale: %w", err)
		}
		unitCost, err := optionalDecimal(*cost)
		if err != nil {
			return nil, fmt.Errorf("invalid -cost: %w", err)
		}
		return svc.CreateProduct(ctx, service.NewProduct{
			Name:      *name,
			Keywords:  *keywords,
			BasePrice: basePrice,
			SalePrice: salePrice,
			Cost:      unitCost,
		})
	}

	id, err := uuid.Parse(*productID)
	if err != nil {
		return nil, fmt.Errorf("invalid -product: %w", err)
	}

	switch command {
	case "reprice":
		basePrice, err := decimal.NewFromString(*base)
		if err != nil {
			return nil, fmt.Errorf("invalid -base: %w", err)
		}
		salePrice, err := optionalDecimal(*sale)
		if err != nil {
			return nil, fmt.Errorf("invalid -sale: %w", err)
		}
		return svc.UpdatePricing(ctx, id, service.PriceUpdate{BasePrice: basePrice, SalePrice: salePrice, Reason: *reason})
	case "set-price":
		newPrice, err := decimal.NewFromString(*price)
		if err != nil {
			return nil, fmt.Errorf("invalid -price: %w", err)
		}
		return svc.RecordPriceChange(ctx, id, newPrice, *reason)
	case "view":
		snapshot, _ := svc.RecordView(ctx, id)
		return snapshot, nil
	case "purchase":
		snapshot, _ := svc.RecordPurchase(ctx, id)
		return snapshot, nil
	case "refresh":
		return svc.RefreshCompetitors(ctx, id)
	case "insight":
		return svc.Insight(ctx, id)
	default:
		return nil, fmt.Errorf("unknown command: %s", command)
	}
}

func optionalDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
