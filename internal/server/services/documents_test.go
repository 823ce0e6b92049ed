package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/documents"
	"github.com/dmitrijs2005/lexbridge/internal/server/storage"
)

type documentFixture struct {
	*caseFixture
	store *storage.MemoryStore
	docs  *DocumentService
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	cf := newCaseFixture(t)
	store := storage.NewMemoryStore()
	return &documentFixture{
		caseFixture: cf,
		store:       store,
		docs:        NewDocumentService(newTxDB(t), &fakeRepoManager{cf.db}, store, logging.Discard()),
	}
}

func TestDocumentAttach(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()
	c := f.newCase(t)
	stranger := f.db.addUser("client2", common.RoleUser)

	_, err := f.docs.Attach(ctx, principal(stranger), c.ID, filex.LocalFile{Name: "a.png", Data: pngHeader})
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = f.docs.Attach(ctx, principal(f.lawyer), c.ID, filex.LocalFile{Name: "a.png", Data: pngHeader})
	assert.ErrorIs(t, err, common.ErrorForbidden, "pool visibility does not allow attaching")
	_, err = f.docs.Attach(ctx, principal(f.client), c.ID, filex.LocalFile{Name: "a.txt", Data: []byte("plain text")})
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = f.docs.Attach(ctx, principal(f.client), "missing", filex.LocalFile{Name: "a.png", Data: pngHeader})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got, err := f.docs.Attach(ctx, principal(f.client), c.ID, filex.LocalFile{Name: "lease.png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentCaseAttachment, got.DocumentType)
	assert.Equal(t, "image/png", got.MimeType)
	require.NotNil(t, got.CaseID)
	assert.Equal(t, c.ID, *got.CaseID)
	assert.NotEmpty(t, got.DownloadURL)
	assert.Equal(t, 1, f.store.Len())

	_, err = f.pros.Accept(ctx, principal(f.lawyer), c.ID)
	require.NoError(t, err)
	_, err = f.docs.Attach(ctx, principal(f.lawyer), c.ID, filex.LocalFile{Name: "memo.pdf", Data: []byte("%PDF-1.4\n")})
	require.NoError(t, err)

	list, err := f.docs.CaseDocuments(ctx, principal(f.lawyer), c.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "lease.png", list[0].FileName)

	_, err = f.docs.CaseDocuments(ctx, principal(stranger), c.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestDocumentDetach(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()
	c := f.newCase(t)
	_, err := f.pros.Accept(ctx, principal(f.lawyer), c.ID)
	require.NoError(t, err)

	byLawyer, err := f.docs.Attach(ctx, principal(f.lawyer), c.ID, filex.LocalFile{Name: "memo.png", Data: pngHeader})
	require.NoError(t, err)
	byClient, err := f.docs.Attach(ctx, principal(f.client), c.ID, filex.LocalFile{Name: "lease.png", Data: pngHeader})
	require.NoError(t, err)

	assert.ErrorIs(t, f.docs.Detach(ctx, principal(f.lawyer), c.ID, byClient.ID), common.ErrorForbidden)
	assert.ErrorIs(t, f.docs.Detach(ctx, principal(f.client), "other-case", byClient.ID), common.ErrorNotFound)

	require.NoError(t, f.docs.Detach(ctx, principal(f.lawyer), c.ID, byLawyer.ID))
	require.NoError(t, f.docs.Detach(ctx, principal(f.client), c.ID, byClient.ID))
	assert.Equal(t, 0, f.store.Len())
	assert.Empty(t, f.db.documents)

	assert.ErrorIs(t, f.docs.Detach(ctx, principal(f.client), c.ID, byClient.ID), common.ErrorNotFound)
}

func TestDocumentDetach_KeepsQuestionnaireEvidence(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()
	c := f.newCase(t)
	f.db.documents = append(f.db.documents, &models.Document{
		ID: "ev-1", UserID: f.client.ID, CaseID: &c.ID, DocumentType: models.DocumentQuestionnaireAttachment,
	})

	list, err := f.docs.CaseDocuments(ctx, principal(f.client), c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.ErrorIs(t, f.docs.Detach(ctx, principal(f.client), c.ID, "ev-1"), common.ErrorConflict)
}

func TestDocumentMineAndDownload(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()
	c := f.newCase(t)
	stranger := f.db.addUser("client2", common.RoleUser)

	att, err := f.docs.Attach(ctx, principal(f.client), c.ID, filex.LocalFile{Name: "lease.png", Data: pngHeader})
	require.NoError(t, err)
	require.NoError(t, f.store.Put(ctx, "generated/k1.txt", "text/plain", []byte("claim")))
	f.db.documents = append(f.db.documents, &models.Document{
		ID: "gen-1", UserID: f.client.ID, DocumentType: models.DocumentGenerated, FileName: "claim.txt", StorageKey: "generated/k1.txt",
	})

	all, err := f.docs.Mine(ctx, principal(f.client), documents.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onCase, err := f.docs.Mine(ctx, principal(f.client), documents.ListFilter{CaseID: c.ID})
	require.NoError(t, err)
	require.Len(t, onCase, 1)
	assert.Equal(t, att.ID, onCase[0].ID)

	generated, err := f.docs.Mine(ctx, principal(f.client), documents.ListFilter{DocumentType: models.DocumentGenerated})
	require.NoError(t, err)
	require.Len(t, generated, 1)

	_, err = f.docs.Mine(ctx, principal(f.client), documents.ListFilter{DocumentType: "contract"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	none, err := f.docs.Mine(ctx, principal(stranger), documents.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	d, body, err := f.docs.Download(ctx, principal(f.client), "gen-1")
	require.NoError(t, err)
	assert.Equal(t, "claim.txt", d.FileName)
	assert.Equal(t, "claim", string(body))

	_, _, err = f.docs.Download(ctx, principal(stranger), "gen-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
