package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/adminlogs"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/cases"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/documents"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/professionals"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/questionnaires"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/users"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/verifications"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same constructors inside and outside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Professionals(db dbx.DBTX) professionals.Repository
	Verifications(db dbx.DBTX) verifications.Repository
	Cases(db dbx.DBTX) cases.Repository
	Questionnaires(db dbx.DBTX) questionnaires.Repository
	Documents(db dbx.DBTX) documents.Repository
	AdminLogs(db dbx.DBTX) adminlogs.Repository
}
