package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/balcao-pos/balcao/internal/money"
	"github.com/balcao-pos/balcao/internal/platform/httpx"
	"github.com/balcao-pos/balcao/internal/shared"
)

// IdempotencyPort guards replayed posting requests at the HTTP boundary. The
// engine itself never deduplicates.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler wires HTTP endpoints for the ledger module.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency IdempotencyPort
	validator   *validator.Validate
}

// NewHandler constructs the ledger handler. idempotency may be nil.
func NewHandler(logger *slog.Logger, service *Service, idempotency IdempotencyPort) *Handler {
	v := validator.New()
	if err := money.RegisterValidators(v); err != nil {
		panic(err)
	}
	return &Handler{logger: logger, service: service, idempotency: idempotency, validator: v}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchases", h.handlePost(KindPurchase))
	r.Get("/purchases", h.handleList(KindPurchase))
	r.Get("/purchases/{id}", h.handleGet(KindPurchase))
	r.Post("/sales", h.handlePost(KindSale))
	r.Get("/sales", h.handleList(KindSale))
	r.Get("/sales/{id}", h.handleGet(KindSale))
}

type postResponse struct {
	HeaderID int64 `json:"header_id"`
}

func (h *Handler) handlePost(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form PostBatchForm
		if err := httpx.DecodeJSON(r, &form); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
			return
		}
		if err := h.validator.Struct(form); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
			return
		}

		key := r.Header.Get("Idempotency-Key")
		if key != "" && h.idempotency != nil {
			if err := h.idempotency.CheckAndInsert(r.Context(), key, "ledger"); err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
					return
				}
				h.logger.Error("idempotency check failed", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
		}

		headerID, err := h.service.Post(r.Context(), kind, form.ToLines())
		if err != nil {
			if key != "" && h.idempotency != nil {
				_ = h.idempotency.Delete(r.Context(), key)
			}
			h.respondPostError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, postResponse{HeaderID: headerID})
	}
}

func (h *Handler) handleList(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		headers, err := h.service.ListHeaders(r.Context(), kind, limit)
		if err != nil {
			h.logger.Error("list headers failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		views := make([]HeaderView, 0, len(headers))
		for _, header := range headers {
			views = append(views, NewHeaderView(header))
		}
		httpx.JSON(w, http.StatusOK, views)
	}
}

type headerDetail struct {
	HeaderView
	Lines []Line `json:"lines"`
}

func (h *Handler) handleGet(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid header id")
			return
		}
		header, lines, err := h.service.Header(r.Context(), kind, id)
		if err != nil {
			if errors.Is(err, ErrHeaderNotFound) {
				httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
				return
			}
			h.logger.Error("load posting failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		detail := headerDetail{
			HeaderView: NewHeaderView(header),
			Lines:      lines,
		}
		httpx.JSON(w, http.StatusOK, detail)
	}
}

// respondPostError maps the posting failure taxonomy onto HTTP statuses:
// NOT_FOUND → 404, INSUFFICIENT_STOCK → 409, VALIDATION → 400, rest → 500.
func (h *Handler) respondPostError(w http.ResponseWriter, err error) {
	var notFound NotFoundError
	var insufficient InsufficientStockError
	switch {
	case errors.As(err, &notFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", notFound.Error())
	case errors.As(err, &insufficient):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", insufficient.Error())
	case errors.Is(err, ErrEmptyBatch),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrUnknownProduct),
		errors.Is(err, ErrInvalidKind):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("posting failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return "invalid field: " + fieldErrs[0].Field()
	}
	return "invalid input"
}
