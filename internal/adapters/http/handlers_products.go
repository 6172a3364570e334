package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockdeck/stockdeck/internal/application"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	query, err := parseListQuery(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	page, err := h.service.ListProducts(r.Context(), claims.UserID, query)
	if err != nil {
		writeMappedError(w, "list_products", err)
		return
	}
	writeSuccess(w, http.StatusOK, page)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	var input application.ProductInput
	if err := decodeBody(r, &input); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	item, err := h.service.CreateProduct(r.Context(), claims.UserID, input)
	if err != nil {
		writeMappedError(w, "create_product", err)
		return
	}
	writeSuccess(w, http.StatusCreated, item)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "product_id"))
	if err != nil {
		writeValidationError(w, "invalid product id")
		return
	}
	var patch application.ProductPatch
	if err := decodeBody(r, &patch); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	item, err := h.service.UpdateProduct(r.Context(), claims.UserID, productID, patch)
	if err != nil {
		writeMappedError(w, "update_product", err)
		return
	}
	writeSuccess(w, http.StatusOK, item)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "product_id"))
	if err != nil {
		writeValidationError(w, "invalid product id")
		return
	}
	if err := h.service.DeleteProduct(r.Context(), claims.UserID, productID); err != nil {
		writeMappedError(w, "delete_product", err)
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted successfully.")
}

func (h *Handler) productStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	stats, err := h.service.GetProductStats(r.Context(), claims.UserID)
	if err != nil {
		writeMappedError(w, "product_stats", err)
		return
	}
	writeSuccess(w, http.StatusOK, stats)
}

func parseListQuery(r *http.Request) (application.ListProductsQuery, error) {
	q := r.URL.Query()
	query := application.ListProductsQuery{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}
	var err error
	if query.Page, err = intParam(q.Get("page"), 1); err != nil {
		return query, errInvalidParam("page")
	}
	if query.PerPage, err = intParam(q.Get("per_page"), 10); err != nil {
		return query, errInvalidParam("per_page")
	}
	if raw := q.Get("min_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return query, errInvalidParam("min_price")
		}
		query.MinPrice = &v
	}
	if raw := q.Get("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return query, errInvalidParam("max_price")
		}
		query.MaxPrice = &v
	}
	if raw := q.Get("in_stock"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return query, errInvalidParam("in_stock")
		}
		query.InStock = &v
	}
	return query, nil
}

type paramError string

func (e paramError) Error() string { return "invalid query parameter: " + string(e) }

func errInvalidParam(name string) error { return paramError(name) }

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
