package handler

import (
	"time"

	"github.com/fadilmartias/career-assessment/internal/dto"
	"github.com/fadilmartias/career-assessment/internal/middleware"
	"github.com/fadilmartias/career-assessment/internal/usecase"
	"github.com/fadilmartias/career-assessment/internal/util"
	"github.com/gofiber/fiber/v2"
)

type CareerHandler struct {
	uc *usecase.CareerUsecase
}

func NewCareerHandler(uc *usecase.CareerUsecase) *CareerHandler {
	return &CareerHandler{uc: uc}
}

func (h *CareerHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/careers/embeddings", middleware.RateLimiter(1, time.Minute), h.SeedEmbeddings)
}

func (h *CareerHandler) SeedEmbeddings(c *fiber.Ctx) error {
	n, err := h.uc.SeedCareerEmbeddings(c.UserContext())
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to create career embeddings",
			Details: dto.SeedCareersResponse{Seeded: n},
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success create career embeddings",
		Data:    dto.SeedCareersResponse{Seeded: n},
	})
}
