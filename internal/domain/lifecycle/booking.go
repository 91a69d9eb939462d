package lifecycle

import (
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
)

// BookingAction acción solicitada sobre una reserva.
type BookingAction string

// Acciones de Booking.
const (
	BookingApprove  BookingAction = "approve"
	BookingReject   BookingAction = "reject"
	BookingCancel   BookingAction = "cancel"
	BookingComplete BookingAction = "complete"
)

type bookingEdge struct {
	from  entity.BookingStatus
	to    entity.BookingStatus
	audit string
}

var bookingTable = map[BookingAction]bookingEdge{
	BookingApprove:  {from: entity.BookingStatusRequested, to: entity.BookingStatusConfirmed, audit: entity.AuditBookingConfirmed},
	BookingReject:   {from: entity.BookingStatusRequested, to: entity.BookingStatusRejected, audit: entity.AuditBookingRejected},
	BookingCancel:   {from: entity.BookingStatusConfirmed, to: entity.BookingStatusCancelled, audit: entity.AuditBookingCancelled},
	BookingComplete: {from: entity.BookingStatusConfirmed, to: entity.BookingStatusCompleted, audit: entity.AuditBookingCompleted},
}

// NextBookingStatus aplica la tabla de transición de reservas.
func NextBookingStatus(current entity.BookingStatus, a BookingAction) (entity.BookingStatus, error) {
	edge, ok := bookingTable[a]
	if !ok || edge.from != current {
		return "", domain.ErrInvalidStatusTransition.WithMessage(
			"no se puede aplicar '" + string(a) + "' a una reserva en estado " + string(current))
	}
	return edge.to, nil
}

// BookingAuditAction acción de auditoría asociada.
func BookingAuditAction(a BookingAction) string {
	return bookingTable[a].audit
}
