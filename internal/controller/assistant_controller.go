package controller

import (
	"errors"
	"time"

	"atlas-assistant-be/internal/constant"
	"atlas-assistant-be/internal/dto"
	"atlas-assistant-be/internal/pkg/serverutils"
	"atlas-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	LocalChat(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Analytics(ctx *fiber.Ctx) error
}

type assistantController struct {
	service service.IAssistantService
}

func NewAssistantController(service service.IAssistantService) IAssistantController {
	return &assistantController{service: service}
}

// RegisterRoutes exposes the public assistant endpoints. Bodies are returned
// unwrapped because the chat clients read them directly.
func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("/chat", c.Chat)
	h.Post("/chat/local", c.LocalChat)
	h.Post("/search", c.Search)
	h.Post("/analytics", c.Analytics)
}

func (c *assistantController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badBody(ctx)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.UserContext(), &req)
	if err != nil {
		return writeAssistantError(ctx, err)
	}
	return ctx.JSON(res)
}

func (c *assistantController) LocalChat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badBody(ctx)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.LocalChat(ctx.UserContext(), &req)
	if err != nil {
		return writeAssistantError(ctx, err)
	}
	return ctx.JSON(res)
}

func (c *assistantController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badBody(ctx)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.WebSearch(ctx.UserContext(), serverutils.ClientID(ctx), &req)
	if err != nil {
		return writeAssistantError(ctx, err)
	}
	return ctx.JSON(res)
}

func (c *assistantController) Analytics(ctx *fiber.Ctx) error {
	var req dto.AnalyticsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badBody(ctx)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	c.service.RecordAnalytics(ctx.UserContext(), &req)
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Event accepted", nil))
}

func writeAssistantError(ctx *fiber.Ctx, err error) error {
	var ae *dto.AssistantError
	if errors.As(err, &ae) {
		return ctx.Status(ae.Status).JSON(ae.Body)
	}
	return err
}

func badBody(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(dto.ChatResponse{
		Message:            constant.FormatErrorMessage,
		Error:              "Request body must be valid JSON",
		Code:               constant.CodeFormatError,
		SuggestedQuestions: constant.FallbackSuggestions,
		Timestamp:          time.Now().UTC(),
		RequestId:          uuid.NewString(),
	})
}
