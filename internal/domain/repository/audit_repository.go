package repository

import (
	"context"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
)

// AuditRepository bitácora append-only. Append dentro de una transacción hace que la
// entrada se confirme o se descarte junto con la mutación auditada.
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
}
