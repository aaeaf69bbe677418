package handler

import (
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/nobita2041/ai-chatbot/internal/domain"
	"github.com/nobita2041/ai-chatbot/internal/handler/dto"
)

// ErrorResponse returns an error response based on error type
func ErrorResponse(c *app.RequestContext, err error) {
	switch {
	case domain.IsInvalidInput(err):
		c.JSON(consts.StatusBadRequest, dto.ErrorResponse{
			Error:   dto.ErrValidationFailed,
			Details: domain.ValidationDetails(err),
		})
	default:
		// upstream 及其他错误：不暴露任何细节
		c.JSON(consts.StatusInternalServerError, dto.ErrorResponse{
			Error: dto.ErrInternalServer,
		})
	}
}

// BadRequestResponse reports a body that could not be decoded
func BadRequestResponse(c *app.RequestContext, err error) {
	details := []string{"request body must be valid JSON"}
	var de *domain.DomainError
	if errors.As(err, &de) && len(de.Details) > 0 {
		details = de.Details
	}
	c.JSON(consts.StatusBadRequest, dto.ErrorResponse{
		Error:   dto.ErrValidationFailed,
		Details: details,
	})
}
