package util

import (
	"runtime/debug"

	"github.com/fadilmartias/career-assessment/internal/apperr"
	"github.com/fadilmartias/career-assessment/internal/config"
	"github.com/fadilmartias/career-assessment/internal/response"
	"github.com/gofiber/fiber/v2"
)

type SuccessResponseFormat struct {
	Code       int
	Message    string
	Data       any
	Pagination *response.Pagination
	Meta       any
}

type OrderedSuccessResponse struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	Meta       any                  `json:"meta,omitempty"`
	Pagination *response.Pagination `json:"pagination,omitempty"`
	Data       any                  `json:"data,omitempty"`
}

type ErrorResponseFormat struct {
	Code       int
	ErrorCode  string
	Message    string
	DevMessage string
	Details    any
	Trace      string
}

type OrderedErrorResponse struct {
	Success    bool   `json:"success"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	DevMessage string `json:"dev_message,omitempty"`
	Details    any    `json:"details,omitempty"`
	Trace      string `json:"trace,omitempty"`
}

// SuccessResponse mengirim response JSON standar untuk sukses
func SuccessResponse(c *fiber.Ctx, params SuccessResponseFormat) error {
	response := OrderedSuccessResponse{
		Success:    true,
		Message:    params.Message,
		Data:       params.Data,
		Pagination: params.Pagination,
		Meta:       params.Meta,
	}
	return c.Status(params.Code).JSON(response)
}

// ErrorResponse mengirim response JSON standar untuk error
func ErrorResponse(c *fiber.Ctx, params ErrorResponseFormat, errs ...error) error {
	response := OrderedErrorResponse{
		Success: false,
		Code:    params.ErrorCode,
		Message: params.Message,
	}
	if params.Details != nil {
		response.Details = params.Details
	}
	if config.LoadAppConfig().Env != "production" {
		if len(errs) > 0 && errs[0] != nil {
			response.DevMessage = errs[0].Error()
			response.Details = errs[0]
			response.Trace = string(debug.Stack())
		}

		if params.DevMessage != "" {
			response.DevMessage = params.DevMessage
		}
		if params.Details != nil {
			response.Details = params.Details
		}
		if params.Trace != "" {
			response.Trace = params.Trace
		}
	}

	errorCode := params.Code
	if params.Code == 0 {
		errorCode = fiber.StatusInternalServerError
	}
	return c.Status(errorCode).JSON(response)
}

// AppErrorResponse maps a usecase error onto the error envelope. Errors outside the
// apperr taxonomy become a 500 carrying fallback as the message.
func AppErrorResponse(c *fiber.Ctx, fallback string, err error) error {
	if e, ok := apperr.As(err); ok {
		message := e.Message
		if message == "" {
			message = fallback
		}
		return ErrorResponse(c, ErrorResponseFormat{
			Code:      e.Status(),
			ErrorCode: e.Code,
			Message:   message,
		}, err)
	}
	return ErrorResponse(c, ErrorResponseFormat{
		Code:    fiber.StatusInternalServerError,
		Message: fallback,
	}, err)
}
