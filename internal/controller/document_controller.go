package controller

import (
	"wine-concierge-be/internal/dto"
	"wine-concierge-be/internal/pkg/serverutils"
	"wine-concierge-be/internal/service"
	"wine-concierge-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	IndexStatus(ctx *fiber.Ctx) error
	Rebuild(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
	indexService    service.IIndexService
}

func NewDocumentController(documentService service.IDocumentService, indexService service.IIndexService) IDocumentController {
	return &documentController{
		documentService: documentService,
		indexService:    indexService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	r.Post("/upload", c.Upload)
	r.Get("/documents", c.List)

	h := r.Group("/index")
	h.Get("/status", c.IndexStatus)
	h.Post("/rebuild", c.Rebuild)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(dto.AskResponse{
			Response: apperr.WarningMarker + " A file field named \"file\" is required.",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(dto.AskResponse{Response: apperr.Render(err)})
	}
	defer file.Close()

	res, err := c.documentService.Upload(ctx.UserContext(), fileHeader.Filename, file)
	if err != nil {
		return ctx.Status(apperr.HTTPStatusCode(err)).JSON(dto.AskResponse{Response: apperr.Render(err)})
	}
	return ctx.JSON(res)
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	res, err := c.documentService.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Documents retrieved", res))
}

func (c *documentController) IndexStatus(ctx *fiber.Ctx) error {
	res, err := c.indexService.Status(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Index status", res))
}

func (c *documentController) Rebuild(ctx *fiber.Ctx) error {
	res, err := c.documentService.RequestRebuild(ctx.UserContext(), ctx.Query("reason", ""))
	if err != nil {
		return err
	}
	resp := serverutils.SuccessResponse(res.Message, res)
	resp.Code = fiber.StatusAccepted
	return ctx.Status(fiber.StatusAccepted).JSON(resp)
}
