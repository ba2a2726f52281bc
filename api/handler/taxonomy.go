package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	taxonomyUC "github.com/fastygo/taskboard/usecase/taxonomy"
)

// TaxonomyHandler serves one kind of taxonomy item: categories or tags.
type TaxonomyHandler struct {
	baseHandler
	uc   *taxonomyUC.UseCase
	kind domain.TaxonomyKind
}

func NewTaxonomyHandler(uc *taxonomyUC.UseCase, kind domain.TaxonomyKind, adapter *httpcontext.Adapter, logger *zap.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		kind:        kind,
	}
}

// @Summary List categories or tags
// @Tags taxonomy
// @Router /api/v1/categories [get]
// @Router /api/v1/tags [get]
func (h *TaxonomyHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.uc.List(stdCtx, h.kind)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, items)
}

// Create always inserts a new item, even when the name is already in use.
//
// @Summary Create a category or tag
// @Tags taxonomy
// @Router /api/v1/categories [post]
// @Router /api/v1/tags [post]
func (h *TaxonomyHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.NameRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	item, err := h.uc.Create(stdCtx, h.kind, req.Name)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, item)
}
