// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/migrations"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/adminlogs"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/cases"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/documents"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/professionals"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/questionnaires"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/users"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/verifications"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Professionals(db dbx.DBTX) professionals.Repository {
	return professionals.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Verifications(db dbx.DBTX) verifications.Repository {
	return verifications.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Cases(db dbx.DBTX) cases.Repository {
	return cases.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Questionnaires(db dbx.DBTX) questionnaires.Repository {
	return questionnaires.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Documents(db dbx.DBTX) documents.Repository {
	return documents.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) AdminLogs(db dbx.DBTX) adminlogs.Repository {
	return adminlogs.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations with the pgx dialect.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
