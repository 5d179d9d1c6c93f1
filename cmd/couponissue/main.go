// Command couponissue grants coupons to users from gzipped grant files.
//
// Usage:
//
//	couponissue [-batch 500] grants-2026-06.gz [more.gz ...]
//
// Each file holds one "userID,couponID" pair per line. Files are read from
// S3 (under S3_PREFIX) when S3_ENABLED is set, falling back to local paths.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"travel-checkout/internal/config"
	"travel-checkout/internal/coupon"
	"travel-checkout/internal/database"
	"travel-checkout/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	batchSize := flag.Int("batch", 500, "number of grants inserted per statement")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		return fmt.Errorf("at least one grant file is required")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	fileLoader := coupon.NewFileLoader(logger)
	var s3Loader coupon.Loader
	if cfg.S3.Enabled {
		s3Loader, err = coupon.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
			s3Loader = nil
		}
	}
	loader := coupon.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)

	issuer := coupon.NewIssuer(loader, repository.NewCouponRepository(pool, logger), *batchSize, logger)

	report, err := issuer.Issue(ctx, files)
	if report != nil {
		logger.Info().
			Int("files", report.Files).
			Int("loaded", report.Loaded).
			Int("skipped_unknown", report.SkippedUnknown).
			Int("skipped_inactive", report.SkippedInactive).
			Int64("issued", report.Issued).
			Msg("coupon issuance finished")
	}
	if err != nil {
		return fmt.Errorf("coupon issuance failed: %w", err)
	}

	return nil
}
