// Package lifecycle contiene las tablas de transición de Trip, Booking y Payment.
// Son funciones puras y totales: cualquier par (estado, acción) fuera de la tabla es inválido.
package lifecycle

import (
	"strings"

	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
)

// TripAction acción solicitada sobre un viaje.
type TripAction string

// Acciones de Trip.
const (
	TripSubmit  TripAction = "submit"
	TripApprove TripAction = "approve"
	TripPublish TripAction = "publish"
	TripArchive TripAction = "archive"
	TripRestore TripAction = "restore"
)

type tripEdge struct {
	from       entity.TripStatus
	to         entity.TripStatus
	permission string
}

var tripTable = map[TripAction]tripEdge{
	TripSubmit:  {from: entity.TripStatusDraft, to: entity.TripStatusPendingReview, permission: rbac.PermTripSubmit},
	TripApprove: {from: entity.TripStatusPendingReview, to: entity.TripStatusApproved, permission: rbac.PermTripApprove},
	TripPublish: {from: entity.TripStatusApproved, to: entity.TripStatusPublished, permission: rbac.PermTripPublish},
	TripArchive: {from: entity.TripStatusPublished, to: entity.TripStatusArchived, permission: rbac.PermTripArchive},
	TripRestore: {from: entity.TripStatusArchived, to: entity.TripStatusDraft, permission: rbac.PermTripRestore},
}

// ParseTripAction normaliza y valida el nombre de acción (ej. "Publish" -> TripPublish).
func ParseTripAction(s string) (TripAction, error) {
	a := TripAction(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tripTable[a]; !ok {
		return "", domain.ErrInvalidStatusTransition.WithMessage("acción de viaje desconocida: " + s)
	}
	return a, nil
}

// TripPermission devuelve la clave de permiso que exige la acción.
func TripPermission(a TripAction) string {
	return tripTable[a].permission
}

// NextTripStatus aplica la tabla de transición. Devuelve ErrInvalidStatusTransition si la
// acción no es válida desde el estado actual.
func NextTripStatus(current entity.TripStatus, a TripAction) (entity.TripStatus, error) {
	edge, ok := tripTable[a]
	if !ok || edge.from != current {
		return "", domain.ErrInvalidStatusTransition.WithMessage(
			"no se puede aplicar '" + string(a) + "' a un viaje en estado " + string(current))
	}
	return edge.to, nil
}

// TripAuditAction nombre de la entrada de auditoría (ej. TRIP_PUBLISH).
func TripAuditAction(a TripAction) string {
	return "TRIP_" + strings.ToUpper(string(a))
}
