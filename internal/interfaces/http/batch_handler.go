package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/Procesamiento-api/internal/application/auth"
	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/pkg/logger"
)

// BatchHandler lotes de procesamiento: alta, consulta, ficha PDF y baja.
type BatchHandler struct {
	batches *processing.BatchUseCase
	query   *processing.QueryUseCase
	reports *processing.ReportUseCase
	log     *logger.Logger
}

// NewBatchHandler construye el handler.
func NewBatchHandler(batches *processing.BatchUseCase, query *processing.QueryUseCase, reports *processing.ReportUseCase, log *logger.Logger) *BatchHandler {
	return &BatchHandler{batches: batches, query: query, reports: reports, log: log}
}

// Create godoc
// @Summary      Crear lote de procesamiento
// @Description  Agrupa procurements sin lote del mismo cultivo y lote, y crea la etapa 1 en la misma transacción.
// @Tags         processing-batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProcessingBatchRequest  true  "crop, lotNo, procurementIds, firstStageDetails"
// @Success      201   {object}  map[string]dto.ProcessingBatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/processing-batches [post]
func (h *BatchHandler) Create(c *fiber.Ctx, p auth.Principal) error {
	var in dto.CreateProcessingBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	for _, id := range in.ProcurementIDs {
		if _, err := uuid.Parse(id); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "procurementIds contiene un id inválido: " + id})
		}
	}
	out, err := h.batches.Create(c.UserContext(), p.UserID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"batch": out})
}

// List godoc
// @Summary      Listar lotes
// @Description  El filtro status se aplica sobre el estado efectivo (incluye SOLD_OUT y NO_STAGES).
// @Tags         processing-batches
// @Security     Bearer
// @Produce      json
// @Param        page    query  int     false  "Página (>= 1)"
// @Param        limit   query  int     false  "Tamaño de página (1-100)"
// @Param        search  query  string  false  "Código de lote o cultivo"
// @Param        status  query  string  false  "IN_PROGRESS | FINISHED | CANCELLED | SOLD_OUT | NO_STAGES"
// @Success      200     {object}  dto.BatchListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/processing-batches [get]
func (h *BatchHandler) List(c *fiber.Ctx) error {
	var q dto.BatchListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de consulta inválidos"})
	}
	out, err := h.query.List(c.UserContext(), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de lote
// @Tags         processing-batches
// @Security     Bearer
// @Produce      json
// @Param        batchId  path  string  true  "ID del lote"
// @Success      200  {object}  dto.ProcessingBatchDetail
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/processing-batches/{batchId} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "batchId")
	if !ok {
		return invalidID(c, "batchId")
	}
	out, err := h.query.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Ficha PDF del lote
// @Tags         processing-batches
// @Security     Bearer
// @Produce      application/pdf
// @Param        batchId  path  string  true  "ID del lote"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/processing-batches/{batchId}/report [get]
func (h *BatchHandler) Report(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "batchId")
	if !ok {
		return invalidID(c, "batchId")
	}
	pdf, filename, err := h.reports.Download(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}

// Delete godoc
// @Summary      Eliminar lote (admin)
// @Description  Libera los procurements y borra etapas, lecturas y ventas del lote.
// @Tags         processing-batches
// @Security     Bearer
// @Produce      json
// @Param        batchId  path  string  true  "ID del lote"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/processing-batches/{batchId} [delete]
func (h *BatchHandler) Delete(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "batchId")
	if !ok {
		return invalidID(c, "batchId")
	}
	batch, err := h.batches.Delete(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Lote %s eliminado.", batch.BatchCode),
	})
}
