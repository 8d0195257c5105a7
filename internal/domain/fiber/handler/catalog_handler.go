package handler

import (
	"errors"

	"github.com/fadilmartias/career-assessment/internal/catalog"
	"github.com/fadilmartias/career-assessment/internal/util"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the read-only question catalog.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

func (h *CatalogHandler) RegisterRoutes(app *fiber.App) {
	g := app.Group("/catalog")
	g.Get("/lite", h.Lite)
	g.Get("/modules", h.Modules)
	g.Get("/modules/:id", h.Module)
}

func (h *CatalogHandler) Lite(c *fiber.Ctx) error {
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get lite categories",
		Data:    h.catalog.ListLiteCategories(),
		Meta:    fiber.Map{"version": h.catalog.Version()},
	})
}

func (h *CatalogHandler) Modules(c *fiber.Ctx) error {
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get modules",
		Data:    h.catalog.ListDeepModuleMetadata(),
		Meta:    fiber.Map{"version": h.catalog.Version()},
	})
}

func (h *CatalogHandler) Module(c *fiber.Ctx) error {
	module, err := h.catalog.DeepModule(c.Params("id"))
	if errors.Is(err, catalog.ErrModuleNotFound) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:      fiber.StatusNotFound,
			ErrorCode: "module_not_found",
			Message:   "module not found",
		}, err)
	}
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{Message: "failed to get module"}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get module",
		Data:    module,
	})
}
