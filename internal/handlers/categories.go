package handlers

import (
	"net/http"

	"github.com/RoGogDBD/closet/internal/service"
)

// ListCategories возвращает все категории по имени.
//
//	@Summary	List categories
//	@Tags		categories
//	@Produce	json
//	@Success	200	{array}		categoryResponse
//	@Failure	500	{object}	errorResponse
//	@Router		/api/categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.inventory.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]categoryResponse, len(categories))
	for i := range categories {
		out[i] = toCategory(&categories[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCategory
//
//	@Summary	Get category
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		string	true	"Category ID"
//	@Success	200	{object}	categoryResponse
//	@Failure	400	{object}	errorResponse
//	@Failure	404	{object}	errorResponse
//	@Router		/api/categories/{id} [get]
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "category")
	if !ok {
		return
	}
	c, err := h.inventory.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategory(c))
}

// CreateCategory
//
//	@Summary	Create category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Param		body	body		service.CategoryInput	true	"Category"
//	@Success	200		{object}	categoryResponse
//	@Failure	400		{object}	errorResponse
//	@Router		/api/categories [post]
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.inventory.CreateCategory(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategory(c))
}

// DeleteCategory удаляет категорию вместе с вещами.
//
//	@Summary	Delete category and its items
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		string	true	"Category ID"
//	@Success	200	{object}	successResponse
//	@Failure	404	{object}	errorResponse
//	@Router		/api/categories/{id} [delete]
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "category")
	if !ok {
		return
	}
	if err := h.inventory.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
