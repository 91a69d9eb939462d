// seed_rbac siembra roles del sistema, permisos y su matriz, y opcionalmente asigna SUPER_ADMIN
// al usuario indicado. Es idempotente: puede ejecutarse en cada despliegue.
//
// Uso: go run ./cmd/seed_rbac [email]
// Sin argumento usa BOOTSTRAP_SUPER_ADMIN_EMAIL. Aplica las migraciones pendientes antes de sembrar.
package main

import (
	"context"
	"os"
	"time"

	"github.com/jhoicas/travel-commerce-api/internal/application/roles"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/internal/infrastructure/postgres"
	"github.com/jhoicas/travel-commerce-api/pkg/config"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	email := cfg.Bootstrap.SuperAdminEmail
	if len(os.Args) > 1 {
		email = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.NewMigrator(pool).Up(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	if err := roles.Bootstrap(ctx, postgres.NewTxRunner(pool), email); err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("siembra RBAC")
	}

	ev := log.Info().Strs("migrations", applied).Int("roles", len(rbac.SystemRoles())).Int("permissions", len(rbac.AllPermissions()))
	if email != "" {
		ev = ev.Str("super_admin", email)
	}
	ev.Msg("RBAC sembrado")
}
