package code

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medicode/medicode-api/internal/handler"
	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/service/code"
	"github.com/medicode/medicode-api/internal/service/validation"
)

type Handler struct {
	service   *code.Service
	validator *validation.Service
}

func NewHandler(service *code.Service, validator *validation.Service) *Handler {
	return &Handler{service: service, validator: validator}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	codes := r.Group("/codes")
	{
		codes.POST("", h.CreateCode)
		codes.GET("", h.ListCodes)
		codes.GET("/:id", h.GetCode)
		codes.PUT("/:id", h.UpdateCode)

		codes.POST("/validate", h.ValidateCode)
		codes.POST("/import", h.ImportCodes)
	}
}

func (h *Handler) CreateCode(c *gin.Context) {
	var req model.CreateMedicalCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entry, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

func (h *Handler) GetCode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid code ID"))
		return
	}

	entry, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) UpdateCode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid code ID"))
		return
	}

	var req model.UpdateMedicalCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entry, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) ListCodes(c *gin.Context) {
	var filters model.CodeFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entries, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

// ValidateCode runs a dry-run validation: the outcome is returned but
// no clinical item, audit record or notification is created.
func (h *Handler) ValidateCode(c *gin.Context) {
	var req model.ValidateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	outcome := h.validator.Validate(c.Request.Context(), req.Code, model.CodeSystem(req.CodeSystem))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(outcome))
}

// ImportCodes bulk-loads catalog entries, skipping duplicates.
func (h *Handler) ImportCodes(c *gin.Context) {
	var entries []*model.CreateMedicalCodeRequest
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	imported, err := h.service.Import(c.Request.Context(), entries)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"imported": imported}))
}
