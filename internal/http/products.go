package http

import (
	"net/http"
	"strconv"

	"github.com/bitmerch/bitmerch/internal/service"
	"github.com/bitmerch/bitmerch/pkg/httpx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
)

// ListProductsHandler serves GET /api/v1/products/list.
type ListProductsHandler struct {
	ProductService *service.ProductService
}

// ServeHTTP godoc
//
//	@Summary		List products
//	@Description	Returns one page of the catalogue, oldest first, plus the total page count at the requested page size.
//	@Tags			Products
//	@Produce		json
//	@Param			page	query		int				true	"page number, starting at 1"
//	@Param			limit	query		int				true	"page size"
//	@Success		200		{object}	httpx.Envelope	"data holds products and pageCount"
//	@Failure		400		{object}	httpx.Envelope	"missing or non-positive page/limit"
//	@Failure		500		{object}	httpx.Envelope
//	@Router			/api/v1/products/list [get].
func (h *ListProductsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page, err := positiveIntQuery(r, "page")
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := positiveIntQuery(r, "limit")
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.ProductService.GetPage(r.Context(), page, limit)
	if err != nil {
		slogx.FromContext(r.Context()).Error("listing products failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.OK(w, "Paginated list of products", result)
}

func positiveIntQuery(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, &queryError{name + " is required"}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return 0, &queryError{name + " must be a positive integer"}
	}
	return v, nil
}

type queryError struct{ msg string }

func (e *queryError) Error() string { return e.msg }
