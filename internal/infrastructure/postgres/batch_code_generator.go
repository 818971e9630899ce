package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var _ processing.BatchCodeGenerator = (*BatchCodeGenerator)(nil)

// BatchCodeGenerator códigos CROP-LOTE-AAAAMMDD-N, con N = mayor sufijo en uso + 1.
// Los huecos que deja un lote borrado no se reutilizan. Dos altas simultáneas pueden
// calcular el mismo N: el UNIQUE de batch_code lo rechaza (domain.ErrDuplicate) y
// BatchUseCase vuelve a pedir código.
type BatchCodeGenerator struct {
	q Querier
}

// NewBatchCodeGenerator construye el generador.
func NewBatchCodeGenerator(q Querier) *BatchCodeGenerator {
	return &BatchCodeGenerator{q: q}
}

// Generate calcula el siguiente código libre para ese cultivo, lote y fecha.
func (g *BatchCodeGenerator) Generate(ctx context.Context, crop string, lotNo int, date time.Time) (string, error) {
	prefix := CodePrefix(crop, lotNo, date)
	rows, err := g.q.Query(ctx,
		`SELECT batch_code FROM processing_batches WHERE batch_code LIKE $1`,
		strings.ReplaceAll(prefix, "_", `\_`)+"-%",
	)
	if err != nil {
		return "", fmt.Errorf("list batch codes: %w", err)
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return "", fmt.Errorf("scan batch code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("list batch codes: %w", err)
	}
	return fmt.Sprintf("%s-%d", prefix, NextSuffix(prefix, codes)), nil
}

// NextSuffix devuelve el mayor sufijo numérico de los códigos con ese prefijo, más uno.
// Códigos con sufijo no numérico se ignoran.
func NextSuffix(prefix string, codes []string) int {
	highest := 0
	for _, code := range codes {
		rest, ok := strings.CutPrefix(code, prefix+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// CodePrefix prefijo legible: tres primeras letras del cultivo en mayúsculas, lote y fecha.
func CodePrefix(crop string, lotNo int, date time.Time) string {
	upper := cases.Upper(language.Und).String(crop)
	var code []rune
	for _, r := range upper {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			code = append(code, r)
		}
		if len(code) == 3 {
			break
		}
	}
	if len(code) == 0 {
		code = []rune("LOT")
	}
	return fmt.Sprintf("%s-%d-%s", string(code), lotNo, date.UTC().Format("20060102"))
}
