package domain

import "errors"

// Error es el error tipado del dominio: la terna {status, code, message} que la capa HTTP
// traduce a respuesta sin filtrar trazas. Status sigue la numeración HTTP.
type Error struct {
	Status  int
	Code    string
	Message string
}

// Error implementa la interfaz error.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Is compara por Code, de modo que errors.Is(err, ErrForbidden) funciona también con copias
// creadas mediante WithMessage.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage devuelve una copia del error con un mensaje específico.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Status: e.Status, Code: e.Code, Message: msg}
}

// Errores de dominio (sin dependencias externas).
var (
	// Autorización
	ErrUnauthorized = &Error{Status: 401, Code: "UNAUTHORIZED", Message: "no autenticado"}
	ErrForbidden    = &Error{Status: 403, Code: "FORBIDDEN", Message: "acceso denegado"}

	// Validación
	ErrInvalidInput             = &Error{Status: 400, Code: "VALIDATION", Message: "entrada inválida"}
	ErrInvalidStatusTransition  = &Error{Status: 400, Code: "INVALID_STATUS_TRANSITION", Message: "transición de estado no permitida"}
	ErrPastCancellationDeadline = &Error{Status: 400, Code: "PAST_CANCELLATION_DEADLINE", Message: "el plazo de cancelación ya venció"}
	ErrNotFound                 = &Error{Status: 404, Code: "NOT_FOUND", Message: "recurso no encontrado"}

	// Conflicto
	ErrInsufficientCapacity = &Error{Status: 409, Code: "INSUFFICIENT_CAPACITY", Message: "el viaje no tiene cupos disponibles"}
	ErrAlreadyExists        = &Error{Status: 409, Code: "ALREADY_EXISTS", Message: "el recurso ya existe"}
	ErrDuplicateEntry       = &Error{Status: 409, Code: "DUPLICATE_ENTRY", Message: "registro duplicado"}

	// Confianza externa (webhooks)
	ErrInvalidSignature = &Error{Status: 400, Code: "INVALID_SIGNATURE", Message: "la firma del webhook no es válida"}
	ErrInvalidPayload   = &Error{Status: 400, Code: "INVALID_PAYLOAD", Message: "payload del webhook inválido"}

	// Infraestructura
	ErrInternal = &Error{Status: 500, Code: "INTERNAL_SERVER_ERROR", Message: "error interno"}
)

// AsError devuelve la terna de dominio de err. Cualquier error que no sea de dominio
// (BD, red, etc.) se reporta como ErrInternal para no filtrar detalles al cliente.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return ErrInternal
}
