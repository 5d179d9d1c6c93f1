package coupon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"travel-checkout/internal/model"
	"travel-checkout/internal/repository"

	"github.com/rs/zerolog"
)

// DefaultIssueBatchSize caps how many grants go into one database batch.
const DefaultIssueBatchSize = 1000

// IssueReport summarises one issuance run.
type IssueReport struct {
	Files           int   `json:"files"`
	Loaded          int   `json:"loaded"`
	SkippedUnknown  int   `json:"skippedUnknown"`
	SkippedInactive int   `json:"skippedInactive"`
	Issued          int64 `json:"issued"`
}

// issuer implements Issuer.
type issuer struct {
	loader     Loader
	couponRepo repository.CouponRepository
	batchSize  int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewIssuer creates a new coupon issuer. A batchSize below one uses
// DefaultIssueBatchSize.
func NewIssuer(loader Loader, couponRepo repository.CouponRepository, batchSize int, logger zerolog.Logger) Issuer {
	if batchSize < 1 {
		batchSize = DefaultIssueBatchSize
	}
	return &issuer{
		loader:     loader,
		couponRepo: couponRepo,
		batchSize:  batchSize,
		now:        time.Now,
		logger:     logger.With().Str("component", "coupon-issuer").Logger(),
	}
}

// Issue loads every file concurrently, merges their grants, drops grants for
// coupons that are unknown, disabled or already ended, and inserts the rest
// in batches. Batches committed before a failure stay committed and are
// counted in the returned report.
func (i *issuer) Issue(ctx context.Context, filePaths []string) (*IssueReport, error) {
	report := &IssueReport{Files: len(filePaths)}

	sets, err := i.loadAll(ctx, filePaths)
	if err != nil {
		return report, err
	}

	merged := newGrantSet(1024)
	for _, set := range sets {
		for _, g := range set.Grants() {
			merged.Add(g)
		}
	}
	report.Loaded = merged.Size()

	usable, err := i.usableCoupons(ctx, merged.Grants())
	if err != nil {
		return report, err
	}

	grants := make([]model.CouponGrant, 0, merged.Size())
	for _, g := range merged.Grants() {
		active, known := usable[g.CouponID]
		switch {
		case !known:
			report.SkippedUnknown++
		case !active:
			report.SkippedInactive++
		default:
			grants = append(grants, g)
		}
	}

	for start := 0; start < len(grants); start += i.batchSize {
		end := min(start+i.batchSize, len(grants))
		n, err := i.couponRepo.IssueBatch(ctx, grants[start:end])
		if err != nil {
			i.logger.Error().
				Err(err).
				Int("batch_start", start).
				Int64("issued", report.Issued).
				Msg("failed to issue coupon batch")
			return report, fmt.Errorf("failed to issue coupons: %w", err)
		}
		report.Issued += n
	}

	i.logger.Info().
		Int("files", report.Files).
		Int("loaded", report.Loaded).
		Int("skipped_unknown", report.SkippedUnknown).
		Int("skipped_inactive", report.SkippedInactive).
		Int64("issued", report.Issued).
		Msg("coupon issuance finished")

	return report, nil
}

// loadAll loads the files concurrently and returns their sets in input order.
func (i *issuer) loadAll(ctx context.Context, filePaths []string) ([]GrantSet, error) {
	type loadResult struct {
		index int
		set   GrantSet
		err   error
	}

	resultChan := make(chan loadResult, len(filePaths))
	var wg sync.WaitGroup

	for idx, filePath := range filePaths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			set, err := i.loader.Load(ctx, path)
			resultChan <- loadResult{index: index, set: set, err: err}
		}(idx, filePath)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(filePaths))
	for result := range resultChan {
		results[result.index] = result
	}

	sets := make([]GrantSet, 0, len(filePaths))
	for idx, result := range results {
		if result.err != nil {
			i.logger.Error().
				Err(result.err).
				Str("file", filePaths[idx]).
				Msg("failed to load grant file")
			return nil, fmt.Errorf("failed to load grant file %s: %w", filePaths[idx], result.err)
		}
		sets = append(sets, result.set)
	}

	return sets, nil
}

// usableCoupons maps every referenced coupon id that exists to whether it
// can still be issued.
func (i *issuer) usableCoupons(ctx context.Context, grants []model.CouponGrant) (map[int64]bool, error) {
	ids := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, g := range grants {
		if _, ok := seen[g.CouponID]; !ok {
			seen[g.CouponID] = struct{}{}
			ids = append(ids, g.CouponID)
		}
	}

	coupons, err := i.couponRepo.GetCoupons(ctx, ids)
	if err != nil {
		i.logger.Error().Err(err).Int("coupon_count", len(ids)).Msg("failed to load coupons")
		return nil, fmt.Errorf("failed to load coupons: %w", err)
	}

	now := i.now()
	usable := make(map[int64]bool, len(coupons))
	for _, c := range coupons {
		ended := c.ValidEndTime != nil && c.ValidEndTime.Before(now)
		usable[c.ID] = c.Enabled() && !ended
	}
	return usable, nil
}
