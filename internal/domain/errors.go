package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrUserNotFound = errors.New("usuario no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	// ErrTxTimeout la transacción excedió su presupuesto de espera/ejecución; no hubo commit parcial.
	ErrTxTimeout = errors.New("la operación excedió el tiempo límite")
)

// Reglas de negocio de lotes de procesamiento. Todas envuelven ErrInvalidInput (400).
var (
	ErrEmptyProcurementSet = fmt.Errorf("%w: debe indicar al menos un procurement", ErrInvalidInput)
	ErrProcurementMismatch = fmt.Errorf("%w: uno o más procurements no existen, no coinciden con cultivo/lote o ya pertenecen a un lote", ErrInvalidInput)
	ErrNonPositiveQuantity = fmt.Errorf("%w: la cantidad total del lote debe ser positiva", ErrInvalidInput)
	ErrInvalidProcessDate  = fmt.Errorf("%w: dateOfProcessing inválida", ErrInvalidInput)
	ErrInvalidStatus       = fmt.Errorf("%w: estado no válido", ErrInvalidInput)
	ErrStageNotInProgress  = fmt.Errorf("%w: la etapa no está en proceso", ErrInvalidInput)
	ErrStageNotFinished    = fmt.Errorf("%w: la etapa más reciente no está finalizada", ErrInvalidInput)
	ErrStageNotLatest      = fmt.Errorf("%w: la etapa no es la más reciente del lote", ErrInvalidInput)
	ErrNothingAvailable    = fmt.Errorf("%w: no hay cantidad disponible en la etapa", ErrInvalidInput)
	ErrExceedsAvailable    = fmt.Errorf("%w: la cantidad supera lo disponible", ErrInvalidInput)
	ErrInvalidDryingDay    = fmt.Errorf("%w: el día de secado debe ser mayor al último registrado", ErrInvalidInput)
)

// Reglas de administración de usuarios.
var (
	ErrEmailInUse       = fmt.Errorf("%w: el email ya está registrado", ErrDuplicate)
	ErrWeakPassword     = fmt.Errorf("%w: password debe tener al menos 8 caracteres", ErrInvalidInput)
	ErrInvalidRole      = fmt.Errorf("%w: role debe ser ADMIN o STAFF", ErrInvalidInput)
	ErrInvalidEmail     = fmt.Errorf("%w: email inválido", ErrInvalidInput)
	ErrAdminUndeletable = fmt.Errorf("%w: no se puede eliminar un administrador", ErrForbidden)
	ErrSelfDisable      = fmt.Errorf("%w: un administrador no puede deshabilitarse a sí mismo", ErrForbidden)
	ErrUserHasRecords   = fmt.Errorf("%w: el usuario tiene lotes, etapas o ventas registradas", ErrConflict)
)
