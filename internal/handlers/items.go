package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/RoGogDBD/closet/internal/service"
	"github.com/RoGogDBD/closet/internal/sheet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type soldRequest struct {
	Sold *bool `json:"sold"`
}

type reorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// ListItems
//
//	@Summary	List items of a category by position
//	@Tags		items
//	@Produce	json
//	@Param		categoryId	path		string	true	"Category ID"
//	@Success	200			{array}		itemResponse
//	@Failure	500			{object}	errorResponse
//	@Router		/api/items/{categoryId} [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	h.listItems(w, r, nil)
}

// ListCurrentItems
//
//	@Summary	List unsold items
//	@Tags		items
//	@Produce	json
//	@Param		categoryId	path	string	true	"Category ID"
//	@Success	200			{array}	itemResponse
//	@Router		/api/items/{categoryId}/current [get]
func (h *Handler) ListCurrentItems(w http.ResponseWriter, r *http.Request) {
	sold := false
	h.listItems(w, r, &sold)
}

// ListSoldItems
//
//	@Summary	List sold items
//	@Tags		items
//	@Produce	json
//	@Param		categoryId	path	string	true	"Category ID"
//	@Success	200			{array}	itemResponse
//	@Router		/api/items/{categoryId}/sold [get]
func (h *Handler) ListSoldItems(w http.ResponseWriter, r *http.Request) {
	sold := true
	h.listItems(w, r, &sold)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request, sold *bool) {
	categoryID, ok := pathID(w, r, "categoryId", "category")
	if !ok {
		return
	}
	items, err := h.inventory.ListItems(r.Context(), categoryID, sold)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItems(items))
}

// CreateItem добавляет вещь в конец категории. Цвет вычисляется по цене.
//
//	@Summary	Create item
//	@Tags		items
//	@Accept		json
//	@Produce	json
//	@Param		body	body		service.ItemInput	true	"Item"
//	@Success	200		{object}	itemResponse
//	@Failure	400		{object}	errorResponse
//	@Failure	404		{object}	errorResponse
//	@Router		/api/items [post]
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	it, err := h.inventory.CreateItem(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(it))
}

// UpdateItem меняет поля вещи; позиция и флаг продажи сохраняются.
//
//	@Summary	Update item
//	@Tags		items
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Item ID"
//	@Param		body	body		service.ItemFields	true	"Fields"
//	@Success	200		{object}	itemResponse
//	@Failure	400		{object}	errorResponse
//	@Failure	404		{object}	errorResponse
//	@Router		/api/items/{id} [put]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "item")
	if !ok {
		return
	}
	var in service.ItemFields
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	it, err := h.inventory.UpdateItem(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(it))
}

// SetSold
//
//	@Summary	Mark item sold or current
//	@Tags		items
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string		true	"Item ID"
//	@Param		body	body		soldRequest	true	"Sold flag"
//	@Success	200		{object}	itemResponse
//	@Failure	400		{object}	errorResponse
//	@Failure	404		{object}	errorResponse
//	@Router		/api/items/{id}/sold [put]
func (h *Handler) SetSold(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "item")
	if !ok {
		return
	}
	var req soldRequest
	if err := decode(r, &req); err != nil || req.Sold == nil {
		writeError(w, http.StatusBadRequest, "sold must be a boolean")
		return
	}
	it, err := h.inventory.SetSold(r.Context(), id, *req.Sold)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(it))
}

// DeleteItem удаляет вещь и перенумеровывает оставшиеся.
//
//	@Summary	Delete item
//	@Tags		items
//	@Produce	json
//	@Param		id	path		string	true	"Item ID"
//	@Success	200	{object}	successResponse
//	@Failure	404	{object}	errorResponse
//	@Router		/api/items/{id} [delete]
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "item")
	if !ok {
		return
	}
	if err := h.inventory.DeleteItem(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Reorder
//
//	@Summary	Reorder items of a category
//	@Description	ids must list every item of the category exactly once, or every item of one sold/current group.
//	@Tags		items
//	@Accept		json
//	@Produce	json
//	@Param		categoryId	path		string			true	"Category ID"
//	@Param		body		body		reorderRequest	true	"Item ids in new order"
//	@Success	200			{object}	successResponse
//	@Failure	400			{object}	errorResponse
//	@Router		/api/items/{categoryId}/reorder [post]
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(w, r, "categoryId", "category")
	if !ok {
		return
	}
	var req reorderRequest
	if err := decode(r, &req); err != nil || req.IDs == nil {
		writeError(w, http.StatusBadRequest, "ids must be an array of item ids")
		return
	}
	if err := h.inventory.Reorder(r.Context(), categoryID, req.IDs); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ImportItems
//
//	@Summary	Import items from an xlsx sheet
//	@Tags		items
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		categoryId	path		string	true	"Category ID"
//	@Param		file		formData	file	true	"Workbook"
//	@Param		sold		query		bool	false	"Import as sold"
//	@Success	200			{object}	service.ImportReport
//	@Failure	400			{object}	errorResponse
//	@Failure	404			{object}	errorResponse
//	@Router		/api/items/{categoryId}/import [post]
func (h *Handler) ImportItems(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(w, r, "categoryId", "category")
	if !ok {
		return
	}
	sold, err := soldQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	report, err := h.inventory.ImportSheet(r.Context(), categoryID, file, sold != nil && *sold)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportItems
//
//	@Summary	Export items as an xlsx sheet
//	@Tags		items
//	@Produce	application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param		categoryId	path	string	true	"Category ID"
//	@Param		sold		query	bool	false	"Only sold or only current"
//	@Success	200			{file}	file
//	@Failure	404			{object}	errorResponse
//	@Router		/api/items/{categoryId}/export [get]
func (h *Handler) ExportItems(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(w, r, "categoryId", "category")
	if !ok {
		return
	}
	sold, err := soldQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, items, err := h.inventory.ExportItems(r.Context(), categoryID, sold)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	f, err := sheet.Render(items)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(sheet.FileName(category.Name)))
	if err := f.Write(w); err != nil {
		h.logger.Warn("export write failed", zap.Error(err), zap.String("category_id", categoryID.String()))
	}
}

func soldQuery(r *http.Request) (*bool, error) {
	raw := r.URL.Query().Get("sold")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New("sold must be true or false")
	}
	return &v, nil
}
