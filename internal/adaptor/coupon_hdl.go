package adaptor

import (
	"encoding/json"
	"net/http"

	"dustclean/internal/dto/request"
	"dustclean/internal/usecase"
	"dustclean/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CouponHandler struct {
	service usecase.CouponService
	log     *zap.Logger
}

func NewCouponHandler(service usecase.CouponService, log *zap.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		log:     log.With(zap.String("handler", "coupon")),
	}
}

// ApplyCoupon handles POST /api/coupons/apply (protected). Preview only,
// nothing is consumed until a booking is created with the code.
func (h *CouponHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req request.ApplyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	preview, err := h.service.ApplyCoupon(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "apply coupon")
		return
	}

	utils.ResponseSuccess(w, "success", preview)
}

// GetCoupons handles GET /api/admin/coupons (admin)
func (h *CouponHandler) GetCoupons(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	coupons, err := h.service.GetCoupons(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get coupons")
		return
	}

	utils.ResponseSuccess(w, "success", coupons)
}

// CreateCoupon handles POST /api/admin/coupons (admin)
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req request.CouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	coupon, err := h.service.CreateCoupon(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create coupon")
		return
	}

	utils.ResponseCreated(w, "Coupon created", coupon)
}

// UpdateCoupon handles PUT /api/admin/coupons/{code} (admin)
func (h *CouponHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var req request.CouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	coupon, err := h.service.UpdateCoupon(r.Context(), chi.URLParam(r, "code"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update coupon")
		return
	}

	utils.ResponseSuccess(w, "Coupon updated", coupon)
}
