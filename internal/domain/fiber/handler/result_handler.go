package handler

import (
	"time"

	"github.com/fadilmartias/career-assessment/internal/middleware"
	"github.com/fadilmartias/career-assessment/internal/usecase"
	"github.com/fadilmartias/career-assessment/internal/util"
	"github.com/gofiber/fiber/v2"
)

type ResultHandler struct {
	uc *usecase.ResultUsecase
}

func NewResultHandler(uc *usecase.ResultUsecase) *ResultHandler {
	return &ResultHandler{uc: uc}
}

func (h *ResultHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/interviews/:id/results", h.Results)
	app.Post("/interviews/:id/results/regenerate", middleware.RateLimiter(1, 10*time.Second), h.Regenerate)
	app.Get("/interviews/:id/results/export", middleware.RequireRequester(), h.Export)
	app.Get("/users/:userId/results", h.List)
}

func (h *ResultHandler) Results(c *fiber.Ctx) error {
	id, err := interviewID(c)
	if err != nil {
		return badRequest(c, "invalid interview id", err)
	}
	result, err := h.uc.GetResults(c.UserContext(), id)
	if err != nil {
		return util.AppErrorResponse(c, "failed to get results", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get results",
		Data:    result,
	})
}

func (h *ResultHandler) Regenerate(c *fiber.Ctx) error {
	id, err := interviewID(c)
	if err != nil {
		return badRequest(c, "invalid interview id", err)
	}
	result, err := h.uc.RegenerateResults(c.UserContext(), id)
	if err != nil {
		return util.AppErrorResponse(c, "failed to regenerate results", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success regenerate results",
		Data:    result,
	})
}

func (h *ResultHandler) Export(c *fiber.Ctx) error {
	id, err := interviewID(c)
	if err != nil {
		return badRequest(c, "invalid interview id", err)
	}
	bundle, err := h.uc.GetResultsForExport(c.UserContext(), usecase.ExportInput{
		InterviewID: id,
		RequesterID: middleware.RequesterID(c),
		Recipient:   c.Query("recipient"),
	})
	if err != nil {
		return util.AppErrorResponse(c, "failed to export results", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success export results",
		Data:    bundle,
	})
}

func (h *ResultHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", usecase.DefaultResultsPageSize)
	items, pagination, err := h.uc.ListResults(c.UserContext(), c.Params("userId"), page, pageSize)
	if err != nil {
		return util.AppErrorResponse(c, "failed to list results", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:       fiber.StatusOK,
		Message:    "Success list results",
		Data:       items,
		Pagination: pagination,
	})
}
