package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/Procesamiento-api/internal/application/auth"
	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/pkg/logger"
)

// StageHandler etapas de procesamiento y lecturas de secado.
type StageHandler struct {
	uc  *processing.StageUseCase
	log *logger.Logger
}

// NewStageHandler construye el handler.
func NewStageHandler(uc *processing.StageUseCase, log *logger.Logger) *StageHandler {
	return &StageHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Abrir la siguiente etapa de un lote
// @Description  Requiere que la última etapa esté FINISHED con disponible positivo.
// @Tags         processing-stages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStageRequest  true  "Etapa"
// @Success      201   {object}  dto.StageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/processing-stages [post]
func (h *StageHandler) Create(c *fiber.Ctx, p auth.Principal) error {
	var in dto.CreateStageRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if _, err := uuid.Parse(in.ProcessingBatchID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "processingBatchId debe ser un UUID válido"})
	}
	out, err := h.uc.CreateNextStage(c.UserContext(), p.UserID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Finalize godoc
// @Summary      Finalizar etapa
// @Tags         processing-stages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        stageId  path  string                    true  "ID de la etapa"
// @Param        body     body  dto.FinalizeStageRequest  true  "Cantidad final"
// @Success      200      {object}  dto.StageResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Router       /api/processing-stages/{stageId}/finalize [put]
func (h *StageHandler) Finalize(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "stageId")
	if !ok {
		return invalidID(c, "stageId")
	}
	var in dto.FinalizeStageRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.FinalizeStage(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar etapa
// @Tags         processing-stages
// @Security     Bearer
// @Produce      json
// @Param        stageId  path  string  true  "ID de la etapa"
// @Success      200      {object}  dto.StageResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Router       /api/processing-stages/{stageId}/cancel [put]
func (h *StageHandler) Cancel(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "stageId")
	if !ok {
		return invalidID(c, "stageId")
	}
	out, err := h.uc.CancelStage(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// AddDrying godoc
// @Summary      Registrar lectura de secado
// @Tags         processing-stages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        stageId  path  string                        true  "ID de la etapa"
// @Param        body     body  dto.CreateDryingEntryRequest  true  "Lectura"
// @Success      201      {object}  dto.DryingEntryResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Router       /api/processing-stages/{stageId}/drying [post]
func (h *StageHandler) AddDrying(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "stageId")
	if !ok {
		return invalidID(c, "stageId")
	}
	var in dto.CreateDryingEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddDryingEntry(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListDrying godoc
// @Summary      Lecturas de secado de una etapa
// @Tags         processing-stages
// @Security     Bearer
// @Produce      json
// @Param        stageId  path  string  true  "ID de la etapa"
// @Success      200      {array}   dto.DryingEntryResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Router       /api/processing-stages/{stageId}/drying [get]
func (h *StageHandler) ListDrying(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "stageId")
	if !ok {
		return invalidID(c, "stageId")
	}
	out, err := h.uc.ListDryingEntries(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
