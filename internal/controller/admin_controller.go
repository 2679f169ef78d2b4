package controller

import (
	"atlas-assistant-be/internal/pkg/serverutils"
	"atlas-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	AssistantStatus(ctx *fiber.Ctx) error
	ResetProtection(ctx *fiber.Ctx) error
}

type adminController struct {
	service   service.IAssistantService
	jwtSecret string
}

func NewAdminController(service service.IAssistantService, jwtSecret string) IAdminController {
	return &adminController{service: service, jwtSecret: jwtSecret}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1/assistant")
	h.Use(serverutils.NewJwtMiddleware(c.jwtSecret), serverutils.RequireRole("admin"))
	h.Get("/status", c.AssistantStatus)
	h.Post("/reset", c.ResetProtection)
}

func (c *adminController) AssistantStatus(ctx *fiber.Ctx) error {
	res := c.service.Status(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Success get assistant status", res))
}

func (c *adminController) ResetProtection(ctx *fiber.Ctx) error {
	c.service.ResetProtection(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Circuit breaker reset", c.service.Status(ctx.UserContext())))
}
