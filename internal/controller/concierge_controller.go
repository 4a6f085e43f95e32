package controller

import (
	"wine-concierge-be/internal/dto"
	"wine-concierge-be/internal/pkg/serverutils"
	"wine-concierge-be/internal/service"
	"wine-concierge-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

const bannerText = "🍷 Wine Concierge API is running!"

type IConciergeController interface {
	RegisterRoutes(r fiber.Router)
	Root(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
	Weather(ctx *fiber.Ctx) error
}

type conciergeController struct {
	service service.IConciergeService
}

func NewConciergeController(service service.IConciergeService) IConciergeController {
	return &conciergeController{service: service}
}

func (c *conciergeController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Root)
	r.Post("/ask", c.Ask)
	r.Get("/weather", c.Weather)
}

func (c *conciergeController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.AskResponse{Response: bannerText})
}

// Ask answers with 200 and {"response": ...} whatever happens.
func (c *conciergeController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.JSON(dto.AskResponse{Response: apperr.Render(apperr.ErrEmptyQuery)})
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.JSON(dto.AskResponse{Response: apperr.Render(err)})
	}

	return ctx.JSON(c.service.Ask(ctx.UserContext(), &req))
}

func (c *conciergeController) Weather(ctx *fiber.Ctx) error {
	res := c.service.Weather(ctx.UserContext(), ctx.Query("location", ""))
	return ctx.JSON(dto.AskResponse{Response: res.Response})
}
