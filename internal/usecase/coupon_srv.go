package usecase

import (
	"context"
	"fmt"
	"time"

	"dustclean/internal/data/entity"
	"dustclean/internal/data/repository"
	"dustclean/internal/dto/request"
	"dustclean/internal/dto/response"
	"dustclean/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CouponService interface {
	// ApplyCoupon previews the discount for a given total without
	// consuming a use. Redemption happens atomically at booking creation.
	ApplyCoupon(ctx context.Context, req *request.ApplyCouponRequest) (*response.ApplyCouponResponse, error)

	GetCoupons(ctx context.Context, req *request.PaginatedRequest) ([]response.CouponResponse, error)
	CreateCoupon(ctx context.Context, req *request.CouponRequest) (*response.CouponResponse, error)
	UpdateCoupon(ctx context.Context, code string, req *request.CouponRequest) (*response.CouponResponse, error)
}

type couponService struct {
	coupons repository.CouponRepository
	log     *zap.Logger
}

func NewCouponService(coupons repository.CouponRepository, log *zap.Logger) CouponService {
	return &couponService{
		coupons: coupons,
		log:     log.With(zap.String("service", "coupon")),
	}
}

func (s *couponService) ApplyCoupon(ctx context.Context, req *request.ApplyCouponRequest) (*response.ApplyCouponResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	coupon, err := s.coupons.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	if coupon == nil {
		return nil, fmt.Errorf("coupon %s: %w", req.Code, ErrNotFound)
	}

	resp := &response.ApplyCouponResponse{Code: coupon.Code, Total: req.Total}
	if !coupon.IsValid(time.Now()) {
		return resp, nil
	}

	discount := utils.Round2(coupon.Discount(req.Total))
	resp.Valid = discount > 0 || req.Total >= coupon.MinOrderValue
	resp.Discount = discount
	resp.Total = utils.Round2(req.Total - discount)

	return resp, nil
}

func (s *couponService) GetCoupons(ctx context.Context, req *request.PaginatedRequest) ([]response.CouponResponse, error) {
	coupons, err := s.coupons.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get coupons: %w", err)
	}

	couponResponses := make([]response.CouponResponse, len(coupons))
	for i, coupon := range coupons {
		couponResponses[i] = response.CouponToResponse(coupon)
	}

	return couponResponses, nil
}

func (s *couponService) CreateCoupon(ctx context.Context, req *request.CouponRequest) (*response.CouponResponse, error) {
	coupon, err := s.couponFromRequest(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.coupons.FindByCode(ctx, coupon.Code)
	if err != nil {
		return nil, fmt.Errorf("check existing coupon: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: coupon code %s already exists", ErrValidation, coupon.Code)
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		s.log.Error("Failed to create coupon", zap.Error(err), zap.String("code", coupon.Code))
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	s.log.Info("Coupon created",
		zap.String("code", coupon.Code),
		zap.String("discount_type", string(coupon.DiscountType)),
	)

	resp := response.CouponToResponse(coupon)
	return &resp, nil
}

func (s *couponService) UpdateCoupon(ctx context.Context, code string, req *request.CouponRequest) (*response.CouponResponse, error) {
	updated, err := s.couponFromRequest(req)
	if err != nil {
		return nil, err
	}

	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	if coupon == nil {
		return nil, fmt.Errorf("coupon %s: %w", code, ErrNotFound)
	}

	coupon.Description = updated.Description
	coupon.DiscountType = updated.DiscountType
	coupon.DiscountValue = updated.DiscountValue
	coupon.MaxDiscount = updated.MaxDiscount
	coupon.MinOrderValue = updated.MinOrderValue
	coupon.ValidFrom = updated.ValidFrom
	coupon.ValidUntil = updated.ValidUntil
	coupon.UsageLimit = updated.UsageLimit
	coupon.IsActive = updated.IsActive
	coupon.UpdatedAt = time.Now()

	if err := s.coupons.Update(ctx, coupon); err != nil {
		s.log.Error("Failed to update coupon", zap.Error(err), zap.String("code", code))
		return nil, fmt.Errorf("update coupon: %w", err)
	}

	s.log.Info("Coupon updated", zap.String("code", code))

	resp := response.CouponToResponse(coupon)
	return &resp, nil
}

func (s *couponService) couponFromRequest(req *request.CouponRequest) (*entity.Coupon, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return nil, fmt.Errorf("%w: valid_from must be RFC3339", ErrValidation)
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		return nil, fmt.Errorf("%w: valid_until must be RFC3339", ErrValidation)
	}
	if !validUntil.After(validFrom) {
		return nil, fmt.Errorf("%w: valid_until must be after valid_from", ErrValidation)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now()
	return &entity.Coupon{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Code:          req.Code,
		Description:   req.Description,
		DiscountType:  entity.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		MaxDiscount:   req.MaxDiscount,
		MinOrderValue: req.MinOrderValue,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
		UsageLimit:    req.UsageLimit,
		IsActive:      isActive,
	}, nil
}
