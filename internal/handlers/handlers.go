// Package handlers содержит HTTP-обработчики API склада.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMaxUpload = 10 << 20

// Inventory описывает операции склада, доступные через HTTP.
type Inventory interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, in service.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, categoryID uuid.UUID, sold *bool) ([]models.Item, error)
	CreateItem(ctx context.Context, in service.ItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, in service.ItemFields) (*models.Item, error)
	SetSold(ctx context.Context, id uuid.UUID, sold bool) (*models.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, categoryID uuid.UUID, ids []uuid.UUID) error
	ImportSheet(ctx context.Context, categoryID uuid.UUID, file io.Reader, sold bool) (*service.ImportReport, error)
	ExportItems(ctx context.Context, categoryID uuid.UUID, sold *bool) (*models.Category, []models.Item, error)
}

type Handler struct {
	inventory Inventory
	logger    *zap.Logger
	maxUpload int64
}

func NewHandler(inventory Inventory, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{inventory: inventory, logger: logger, maxUpload: defaultMaxUpload}
}

// WithMaxUpload задает предельный размер загружаемой таблицы в байтах.
func (h *Handler) WithMaxUpload(n int64) *Handler {
	if n > 0 {
		h.maxUpload = n
	}
	return h
}

// Routes регистрирует маршруты API. Изменяющие маршруты проходят через guard.
func (h *Handler) Routes(r chi.Router, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{id}", h.GetCategory)
		r.Get("/items/{categoryId}", h.ListItems)
		r.Get("/items/{categoryId}/current", h.ListCurrentItems)
		r.Get("/items/{categoryId}/sold", h.ListSoldItems)
		r.Get("/items/{categoryId}/export", h.ExportItems)

		r.Group(func(r chi.Router) {
			r.Use(guard)
			r.Post("/categories", h.CreateCategory)
			r.Delete("/categories/{id}", h.DeleteCategory)
			r.Post("/items", h.CreateItem)
			r.Put("/items/{id}", h.UpdateItem)
			r.Put("/items/{id}/sold", h.SetSold)
			r.Delete("/items/{id}", h.DeleteItem)
			r.Post("/items/{categoryId}/reorder", h.Reorder)
			r.Post("/items/{categoryId}/import", h.ImportItems)
		})
	})
}

// HealthHandler возвращает статус 200 OK и тело "OK" для проверки состояния сервера.
//
//	@Summary	Liveness probe
//	@Tags		health
//	@Produce	plain
//	@Success	200	{string}	string	"OK"
//	@Router		/healthz [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler отвечает 503, пока хранилище недоступно.
//
//	@Summary	Readiness probe
//	@Tags		health
//	@Produce	plain
//	@Success	200	{string}	string	"OK"
//	@Failure	503	{string}	string
//	@Router		/readyz [get]
func ReadyHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type itemResponse struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"categoryId"`
	Brand      string    `json:"brand"`
	Size       string    `json:"size"`
	SKU        string    `json:"sku"`
	Price      float64   `json:"price"`
	Color      string    `json:"color"`
	Sold       bool      `json:"sold"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toCategory(c *models.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func toItem(it *models.Item) itemResponse {
	return itemResponse{
		ID:         it.ID,
		CategoryID: it.CategoryID,
		Brand:      it.Brand,
		Size:       it.Size,
		SKU:        it.SKU,
		Price:      it.Price.InexactFloat64(),
		Color:      it.Color,
		Sold:       it.Sold,
		Order:      it.Order,
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}

func toItems(items []models.Item) []itemResponse {
	out := make([]itemResponse, len(items))
	for i := range items {
		out[i] = toItem(&items[i])
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail отвечает кодом по виду ошибки сервиса. Прочие ошибки логируются,
// клиент получает общее сообщение.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		writeError(w, statusFor(svcErr.Kind), svcErr.Message)
		return
	}
	h.logger.Error("request failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, service.ErrValidation), errors.Is(kind, service.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(kind, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, service.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decode читает JSON-тело. Неизвестные поля допускаются.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// pathID разбирает UUID из параметра маршрута. При ошибке ответ уже записан.
func pathID(w http.ResponseWriter, r *http.Request, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}
