package docs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	"github.com/jhoicas/travel-commerce-api/docs"
)

func TestSwagger_RegistradoConTodasLasRutas(t *testing.T) {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	for _, p := range []string{
		"/api/auth/register", "/api/auth/login", "/api/me/permissions",
		"/api/trips/{id}/{action}", "/api/bookings", "/api/bookings/{id}/{action}",
		"/api/bookings/{id}/pay", "/api/admin/roles/assign", "/api/admin/roles/revoke",
		"/webhooks/{provider}",
	} {
		assert.Contains(t, doc.Paths, p)
	}
}
