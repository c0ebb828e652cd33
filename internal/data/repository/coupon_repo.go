package repository

import (
	"context"
	"fmt"

	"dustclean/internal/data/entity"
	"dustclean/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *entity.Coupon) error
	FindByCode(ctx context.Context, code string) (*entity.Coupon, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Coupon, error)
	Update(ctx context.Context, coupon *entity.Coupon) error

	// Redeem validates and consumes one use of the coupon in a single
	// conditional update, closing the window between the validity check
	// and the usage-count increment. Returns (nil, nil) when the coupon
	// is missing, inactive, out of window, or exhausted.
	Redeem(ctx context.Context, code string) (*entity.Coupon, error)

	// Unredeem releases one consumed use, for when the booking the coupon
	// was reserved for fails to persist.
	Unredeem(ctx context.Context, code string) error
}

type couponRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCouponRepository(db database.PgxIface, log *zap.Logger) CouponRepository {
	return &couponRepository{
		db:  db,
		log: log.With(zap.String("repository", "coupon")),
	}
}

const couponColumns = `id, code, description, discount_type, discount_value, max_discount,
	min_order_value, valid_from, valid_until, usage_limit, used_count, is_active, created_at, updated_at`

func (r *couponRepository) scanCoupon(row pgx.Row) (*entity.Coupon, error) {
	var coupon entity.Coupon

	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Description,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		&coupon.MaxDiscount,
		&coupon.MinOrderValue,
		&coupon.ValidFrom,
		&coupon.ValidUntil,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.IsActive,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &coupon, nil
}

func (r *couponRepository) Create(ctx context.Context, coupon *entity.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, description, discount_type, discount_value, max_discount,
			min_order_value, valid_from, valid_until, usage_limit, used_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.Description,
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.MaxDiscount,
		coupon.MinOrderValue,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.UsageLimit,
		coupon.IsActive,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create coupon",
			zap.Error(err),
			zap.String("code", coupon.Code),
		)
		return fmt.Errorf("create coupon %s: %w", coupon.Code, err)
	}

	return nil
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := r.scanCoupon(r.db.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find coupon by code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("find coupon by code %s: %w", code, err)
	}

	return coupon, nil
}

func (r *couponRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find coupons", zap.Error(err))
		return nil, fmt.Errorf("find coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*entity.Coupon
	for rows.Next() {
		coupon, err := r.scanCoupon(rows)
		if err != nil {
			r.log.Error("Failed to scan coupon row", zap.Error(err))
			return nil, fmt.Errorf("scan coupon row: %w", err)
		}
		coupons = append(coupons, coupon)
	}

	return coupons, nil
}

func (r *couponRepository) Update(ctx context.Context, coupon *entity.Coupon) error {
	query := `
		UPDATE coupons
		SET description = $2, discount_type = $3, discount_value = $4, max_discount = $5,
		    min_order_value = $6, valid_from = $7, valid_until = $8, usage_limit = $9,
		    is_active = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		coupon.ID,
		coupon.Description,
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.MaxDiscount,
		coupon.MinOrderValue,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.UsageLimit,
		coupon.IsActive,
		coupon.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update coupon",
			zap.Error(err),
			zap.String("coupon_id", coupon.ID.String()),
		)
		return fmt.Errorf("update coupon %s: %w", coupon.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("coupon %s not found", coupon.ID.String())
	}

	return nil
}

func (r *couponRepository) Redeem(ctx context.Context, code string) (*entity.Coupon, error) {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE code = $1
		  AND is_active = TRUE
		  AND NOW() BETWEEN valid_from AND valid_until
		  AND (usage_limit <= 0 OR used_count < usage_limit)
		RETURNING ` + couponColumns

	coupon, err := r.scanCoupon(r.db.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to redeem coupon",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("redeem coupon %s: %w", code, err)
	}

	return coupon, nil
}

func (r *couponRepository) Unredeem(ctx context.Context, code string) error {
	query := `UPDATE coupons SET used_count = GREATEST(used_count - 1, 0), updated_at = NOW() WHERE code = $1`

	_, err := r.db.Exec(ctx, query, code)
	if err != nil {
		r.log.Error("Failed to release coupon redemption",
			zap.Error(err),
			zap.String("code", code),
		)
		return fmt.Errorf("release coupon %s: %w", code, err)
	}

	return nil
}
