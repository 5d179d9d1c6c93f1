package service

import (
	"context"
	"fmt"

	"travel-checkout/internal/model"
	"travel-checkout/internal/repository"

	"github.com/rs/zerolog"
)

type couponService struct {
	couponRepo repository.CouponRepository
	logger     zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(couponRepo repository.CouponRepository, logger zerolog.Logger) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		logger:     logger.With().Str("service", "coupon").Logger(),
	}
}

func (s *couponService) ListUserCoupons(ctx context.Context, userID int64, status *model.UserCouponStatus) ([]model.UserCoupon, error) {
	if status != nil && (*status < model.UserCouponUnused || *status > model.UserCouponExpired) {
		return nil, model.ErrInvalidRequest.Withf("unknown coupon status %d", *status)
	}

	coupons, err := s.couponRepo.ListUserCoupons(ctx, userID, status)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list user coupons")
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	if coupons == nil {
		coupons = []model.UserCoupon{}
	}
	return coupons, nil
}
