package processing

import (
	"context"
	"fmt"
)

// ReportUseCase ficha PDF de un lote, construida desde el mismo detalle que sirve la API.
type ReportUseCase struct {
	query     *QueryUseCase
	generator BatchReportGenerator
}

// NewReportUseCase construye el caso de uso de reportes.
func NewReportUseCase(query *QueryUseCase, generator BatchReportGenerator) *ReportUseCase {
	return &ReportUseCase{query: query, generator: generator}
}

// Download devuelve el PDF y el nombre de archivo sugerido.
func (uc *ReportUseCase) Download(ctx context.Context, batchID string) ([]byte, string, error) {
	detail, err := uc.query.GetByID(ctx, batchID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.generator.GenerateBatchReport(ctx, detail)
	if err != nil {
		return nil, "", fmt.Errorf("generar ficha de lote: %w", err)
	}
	return pdf, fmt.Sprintf("lote-%s.pdf", detail.BatchCode), nil
}
