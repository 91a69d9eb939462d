package dto

// RoleChangeRequest entrada de asignación o revocación de rol.
type RoleChangeRequest struct {
	UserID   string `json:"userId" validate:"required"`
	RoleName string `json:"roleName" validate:"required"`
}

// RoleChangeResponse resultado. Changed es false cuando la operación no tuvo efecto
// (rol ya asignado o no asignado).
type RoleChangeResponse struct {
	UserID   string `json:"userId"`
	RoleName string `json:"roleName"`
	Changed  bool   `json:"changed"`
}
