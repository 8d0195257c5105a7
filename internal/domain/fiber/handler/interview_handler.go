package handler

import (
	"context"

	"github.com/fadilmartias/career-assessment/internal/dto"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/usecase"
	"github.com/fadilmartias/career-assessment/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InterviewHandler struct {
	uc *usecase.InterviewUsecase
}

func NewInterviewHandler(uc *usecase.InterviewUsecase) *InterviewHandler {
	return &InterviewHandler{uc: uc}
}

func (h *InterviewHandler) RegisterRoutes(app *fiber.App) {
	g := app.Group("/interviews")
	g.Post("/", h.Start)
	g.Get("/active", h.Active)
	g.Put("/:id/answers", h.SaveAnswer)
	g.Put("/:id/position", h.UpdatePosition)
	g.Post("/:id/modules/:moduleId/complete", h.CompleteModule)
	g.Post("/:id/complete", h.Complete)
	g.Post("/:id/upgrade", h.Upgrade)
	g.Delete("/:id", h.Abandon)
	g.Get("/:id/status", h.Status)
}

func (h *InterviewHandler) Start(c *fiber.Ctx) error {
	var req dto.StartInterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	iv, err := h.uc.StartInterview(c.UserContext(), usecase.StartInterviewInput{
		UserID:          req.UserID,
		InterviewType:   model.InterviewType(req.InterviewType),
		SelectedModules: req.SelectedModules,
	})
	if err != nil {
		return util.AppErrorResponse(c, "failed to start interview", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success start interview",
		Data:    dto.NewInterviewDTO(iv),
	})
}

func (h *InterviewHandler) Active(c *fiber.Ctx) error {
	view, err := h.uc.ActiveInterview(c.UserContext(), c.Query("userId"))
	if err != nil {
		return util.AppErrorResponse(c, "failed to get active interview", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get active interview",
		Data:    statusDTO(view),
	})
}

func (h *InterviewHandler) SaveAnswer(c *fiber.Ctx) error {
	id, err := interviewID(c)
	if err != nil {
		return badRequest(c, "invalid interview id", err)
	}
	var req dto.SaveAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	iv, err := h.uc.SaveAnswer(c.UserContext(), usecase.SaveAnswerInput{
		InterviewID: id,
		QuestionID:  req.QuestionID,
		Answer:      req.Answer,
		ModuleID:    req.ModuleID,
		Category:    req.Category,
	})
	if err != nil {
		return util.AppErrorResponse(c, "failed to save answer", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success save answer",
		Data:    dto.NewInterviewDTO(iv),
	})
}

func (h *InterviewHandler) UpdatePosition(c *fiber.Ctx) error {
	id, err := interviewID(c)
	if err != nil {
		return badRequest(c, "invalid interview id", err)
	}
	var req dto.UpdatePositionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if req.QuestionIndex == nil {
		return badRequest(c, "questionIndex is required", nil)
	}
	iv, err := h.uc.UpdatePosition(c.UserContext(), id, req.ModuleID, *req.QuestionIndex)
	if err != nil {
		return util.AppErrorResponse(c, "failed to update position", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success update position",
		Data:    dto.NewInterviewDTO(iv),
	})
}

func (h *InterviewHandler) CompleteModule(c *fiber.Ctx) error {
	id, err := interviewID(c)
	if err != nil {
		return badRequest(c, "invalid interview id", err)
	}
	iv, err := h.uc.CompleteModule(c.UserContext(), id, c.Params("moduleId"))
	if err != nil {
		return util.AppErrorResponse(c, "failed to complete module", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success complete module",
		Data:    dto.NewInterviewDTO(iv),
	})
}

func (h *InterviewHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, h.uc.CompleteInterview, "complete interview")
}

func (h *InterviewHandler) Abandon(c *fiber.Ctx) error {
	return h.transition(c, h.uc.AbandonInterview, "abandon interview")
}

func (h *InterviewHandler) Upgrade(c *fiber.Ctx) error {
	id, err := interviewID(c)
	if err != nil {
		return badRequest(c, "invalid interview id", err)
	}
	var req dto.UpgradeInterviewRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body", err)
		}
	}
	iv, err := h.uc.UpgradeInterview(c.UserContext(), id, req.SelectedModules)
	if err != nil {
		return util.AppErrorResponse(c, "failed to upgrade interview", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success upgrade interview",
		Data:    dto.NewInterviewDTO(iv),
	})
}

func (h *InterviewHandler) Status(c *fiber.Ctx) error {
	id, err := interviewID(c)
	if err != nil {
		return badRequest(c, "invalid interview id", err)
	}
	view, err := h.uc.GetInterviewStatus(c.UserContext(), id)
	if err != nil {
		return util.AppErrorResponse(c, "failed to get interview status", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get interview status",
		Data:    statusDTO(view),
	})
}

func (h *InterviewHandler) transition(c *fiber.Ctx, fn func(ctx context.Context, id uuid.UUID) (*model.Interview, error), action string) error {
	id, err := interviewID(c)
	if err != nil {
		return badRequest(c, "invalid interview id", err)
	}
	iv, err := fn(c.UserContext(), id)
	if err != nil {
		return util.AppErrorResponse(c, "failed to "+action, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success " + action,
		Data:    dto.NewInterviewDTO(iv),
	})
}

func statusDTO(view *usecase.InterviewStatusView) dto.InterviewStatusDTO {
	modules := make([]dto.ModuleStateDTO, 0, len(view.Modules))
	for _, m := range view.Modules {
		modules = append(modules, dto.ModuleStateDTO{
			ModuleID:      m.ModuleID,
			Title:         m.Title,
			QuestionCount: m.QuestionCount,
			Answered:      m.Answered,
			Completed:     m.Completed,
		})
	}
	return dto.InterviewStatusDTO{
		InterviewDTO: dto.NewInterviewDTO(view.Interview),
		Progress: dto.ProgressDTO{
			TotalQuestions:    view.Progress.TotalQuestions,
			AnsweredQuestions: view.Progress.AnsweredQuestions,
			PercentComplete:   view.Progress.PercentComplete,
		},
		Answers: view.Answers,
		Modules: modules,
	}
}

func interviewID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:      fiber.StatusBadRequest,
		ErrorCode: "bad_request",
		Message:   message,
	}, err)
}
