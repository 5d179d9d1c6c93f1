package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-checkout/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

const couponColumns = `c.id, c.name, c.type, c.amount, c.min_amount, c.scope, c.scope_ids,
	c.valid_start_time, c.valid_end_time, c.status, c.created_at, c.updated_at`

// couponDest returns scan targets for couponColumns. A NULL scope is read
// as ALL.
func couponDest(c *model.Coupon, scope **string) []any {
	return []any{
		&c.ID, &c.Name, &c.Type, &c.Amount, &c.MinAmount, scope, &c.ScopeIDs,
		&c.ValidStartTime, &c.ValidEndTime, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	}
}

func applyScope(c *model.Coupon, scope *string) {
	if scope == nil || *scope == "" {
		c.Scope = model.CouponScopeAll
		return
	}
	c.Scope = model.CouponScope(*scope)
}

func (r *couponRepository) GetUserCoupon(ctx context.Context, id int64) (*model.UserCoupon, error) {
	query := `
		SELECT id, user_id, coupon_id, status, used_time, order_id, created_at, updated_at
		FROM user_coupons
		WHERE id = $1
	`

	var uc model.UserCoupon
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&uc.ID, &uc.UserID, &uc.CouponID, &uc.Status, &uc.UsedTime, &uc.OrderID, &uc.CreatedAt, &uc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("user_coupon_id", id).Msg("user coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("user_coupon_id", id).Msg("failed to query user coupon")
		return nil, fmt.Errorf("failed to query user coupon: %w", err)
	}

	return &uc, nil
}

func (r *couponRepository) GetCoupon(ctx context.Context, id int64) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons c WHERE c.id = $1`

	var (
		c     model.Coupon
		scope *string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(couponDest(&c, &scope)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("coupon_id", id).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("coupon_id", id).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	applyScope(&c, scope)

	return &c, nil
}

func (r *couponRepository) GetCoupons(ctx context.Context, ids []int64) ([]model.Coupon, error) {
	if len(ids) == 0 {
		return []model.Coupon{}, nil
	}

	query := `SELECT ` + couponColumns + ` FROM coupons c WHERE c.id = ANY($1) ORDER BY c.id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query coupons by IDs")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		var (
			c     model.Coupon
			scope *string
		)
		if err := rows.Scan(couponDest(&c, &scope)...); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coupon row")
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		applyScope(&c, scope)
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

func (r *couponRepository) ListUserCoupons(ctx context.Context, userID int64, status *model.UserCouponStatus) ([]model.UserCoupon, error) {
	query := `
		SELECT uc.id, uc.user_id, uc.coupon_id, uc.status, uc.used_time, uc.order_id, uc.created_at, uc.updated_at,
			` + couponColumns + `
		FROM user_coupons uc
		JOIN coupons c ON c.id = uc.coupon_id
		WHERE uc.user_id = $1 AND ($2::smallint IS NULL OR uc.status = $2)
		ORDER BY uc.created_at DESC, uc.id DESC
	`

	var statusArg *int
	if status != nil {
		s := int(*status)
		statusArg = &s
	}

	rows, err := r.pool.Query(ctx, query, userID, statusArg)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list user coupons")
		return nil, fmt.Errorf("failed to list user coupons: %w", err)
	}
	defer rows.Close()

	result := []model.UserCoupon{}
	for rows.Next() {
		var (
			uc    model.UserCoupon
			c     model.Coupon
			scope *string
		)
		dest := append([]any{
			&uc.ID, &uc.UserID, &uc.CouponID, &uc.Status, &uc.UsedTime, &uc.OrderID, &uc.CreatedAt, &uc.UpdatedAt,
		}, couponDest(&c, &scope)...)
		if err := rows.Scan(dest...); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan user coupon row")
			return nil, fmt.Errorf("failed to scan user coupon: %w", err)
		}
		applyScope(&c, scope)
		uc.Coupon = &c
		result = append(result, uc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user coupons: %w", err)
	}

	return result, nil
}

func (r *couponRepository) MarkUsed(ctx context.Context, tx pgx.Tx, userCouponID, orderID int64, usedAt time.Time) (bool, error) {
	query := `
		UPDATE user_coupons
		SET status = $2, used_time = $3, order_id = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`

	tag, err := tx.Exec(ctx, query, userCouponID, int(model.UserCouponUsed), usedAt, orderID, int(model.UserCouponUnused))
	if err != nil {
		r.logger.Error().Err(err).Int64("user_coupon_id", userCouponID).Msg("failed to mark coupon used")
		return false, fmt.Errorf("failed to mark coupon used: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *couponRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE user_coupons uc
		SET status = $1, updated_at = NOW()
		FROM coupons c
		WHERE uc.coupon_id = c.id
			AND uc.status = $2
			AND c.valid_end_time IS NOT NULL
			AND c.valid_end_time < $3
	`

	tag, err := r.pool.Exec(ctx, query, int(model.UserCouponExpired), int(model.UserCouponUnused), now)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to expire coupons")
		return 0, fmt.Errorf("failed to expire coupons: %w", err)
	}

	return tag.RowsAffected(), nil
}

// IssueBatch inserts all grants in one round trip.
func (r *couponRepository) IssueBatch(ctx context.Context, grants []model.CouponGrant) (int64, error) {
	if len(grants) == 0 {
		return 0, nil
	}

	query := `INSERT INTO user_coupons (user_id, coupon_id, status) VALUES ($1, $2, $3)`

	batch := &pgx.Batch{}
	for _, g := range grants {
		batch.Queue(query, g.UserID, g.CouponID, int(model.UserCouponUnused))
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var issued int64
	for i := range grants {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Int64("user_id", grants[i].UserID).
				Int64("coupon_id", grants[i].CouponID).
				Msg("failed to issue coupon")
			// the batch runs in one implicit transaction, so nothing was kept
			return 0, fmt.Errorf("failed to issue coupon: %w", err)
		}
		issued += tag.RowsAffected()
	}

	r.logger.Debug().Int64("issued", issued).Msg("coupons issued")

	return issued, nil
}
