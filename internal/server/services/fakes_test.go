package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/adminlogs"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/cases"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/documents"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/professionals"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/questionnaires"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/users"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/verifications"
)

// newTxDB returns a sqlmock database that accepts any number of
// transactions (up to a generous limit) in any order. The repositories are
// in-memory fakes, so the database only ever sees BEGIN/COMMIT/ROLLBACK.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 512; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeDB holds the rows of every fake repository.
type fakeDB struct {
	mu  sync.Mutex
	seq int

	users         map[string]*models.User
	tokens        map[string]*models.RefreshToken
	professionals map[string]*models.Professional
	verifications []*models.VerificationRequest
	cases         map[string]*models.Case
	sessions      map[string]*models.QuestionnaireSession
	submissions   []*models.QuestionnaireSubmission
	documents     []*models.Document
	logs          []*models.AdminLog

	// fail makes the named method return the error, e.g. "Cases.Create".
	fail map[string]error

	// interleaveFn runs once, right after the interleaveAt-th GetSession,
	// so a test can slip another request in while one is being served.
	interleaveAt int
	interleaveFn func()
}

// interleave runs fn right after the n-th next GetSession call returns its copy.
func (f *fakeDB) interleave(n int, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interleaveAt, f.interleaveFn = n, fn
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:         map[string]*models.User{},
		tokens:        map[string]*models.RefreshToken{},
		professionals: map[string]*models.Professional{},
		cases:         map[string]*models.Case{},
		sessions:      map[string]*models.QuestionnaireSession{},
		fail:          map[string]error{},
	}
}

func (f *fakeDB) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeDB) addUser(name, role string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: f.nextID("user"), UserName: name, Role: role, IsActive: true, CreatedAt: time.Now()}
	f.users[u.ID] = u
	return u
}

func (f *fakeDB) addVerifiedProfessional(name string) *models.User {
	u := f.addUser(name, common.RoleProfessional)
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.professionals[u.ID] = &models.Professional{
		UserID: u.ID, FullName: name, LicenseNumber: "LIC-" + u.ID, IsVerified: true, VerifiedAt: &now,
	}
	return u
}

func principal(u *models.User) auth.Principal {
	return auth.Principal{UserID: u.ID, Role: u.Role}
}

type fakeRepoManager struct{ db *fakeDB }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return &fakeUsers{m.db} }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return &fakeTokens{m.db}
}
func (m *fakeRepoManager) Professionals(dbx.DBTX) professionals.Repository {
	return &fakeProfessionals{m.db}
}
func (m *fakeRepoManager) Verifications(dbx.DBTX) verifications.Repository {
	return &fakeVerifications{m.db}
}
func (m *fakeRepoManager) Cases(dbx.DBTX) cases.Repository { return &fakeCases{m.db} }
func (m *fakeRepoManager) Questionnaires(dbx.DBTX) questionnaires.Repository {
	return &fakeQuestionnaires{m.db}
}
func (m *fakeRepoManager) Documents(dbx.DBTX) documents.Repository { return &fakeDocuments{m.db} }
func (m *fakeRepoManager) AdminLogs(dbx.DBTX) adminlogs.Repository { return &fakeAdminLogs{m.db} }

// --- users ---

type fakeUsers struct{ *fakeDB }

func (r *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail["Users.Create"]; err != nil {
		return nil, err
	}
	for _, other := range r.users {
		if other.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = r.nextID("user")
	c.CreatedAt = time.Now()
	r.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUsers) GetByUserName(_ context.Context, name string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.UserName == name {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsers) List(_ context.Context, f users.ListFilter) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if f.Role == "" || u.Role == f.Role {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsActive = active
	return nil
}

func (r *fakeUsers) PromoteToProfessional(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Role = common.RoleProfessional
	u.IsVerified = true
	return nil
}

func (r *fakeUsers) TouchLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (r *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *fakeUsers) Stats(context.Context) (*models.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &models.UserStats{}
	for _, u := range r.users {
		s.Total++
		if u.IsActive {
			s.Active++
		}
		switch u.Role {
		case common.RoleProfessional:
			s.Professionals++
		case common.RoleAdmin:
			s.Admins++
		}
	}
	return s, nil
}

// --- refresh tokens ---

type fakeTokens struct{ *fakeDB }

func (r *fakeTokens) Create(_ context.Context, userID, hash string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail["RefreshTokens.Create"]; err != nil {
		return err
	}
	r.tokens[hash] = &models.RefreshToken{
		ID: r.nextID("tok"), UserID: userID, TokenHash: hash, Expires: time.Now().Add(validity), CreatedAt: time.Now(),
	}
	return nil
}

func (r *fakeTokens) Find(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTokens) Delete(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, hash)
	return nil
}

func (r *fakeTokens) ListForUser(_ context.Context, userID string) ([]*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RefreshToken
	for _, t := range r.tokens {
		if t.UserID == userID && t.Expires.After(time.Now()) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTokens) DeleteByID(_ context.Context, id string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, t := range r.tokens {
		if t.ID == id {
			delete(r.tokens, h)
			return t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeTokens) DeleteExpired(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for h, t := range r.tokens {
		if !t.Expires.After(time.Now()) {
			delete(r.tokens, h)
			n++
		}
	}
	return n, nil
}

func (r *fakeTokens) DeleteForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, h)
		}
	}
	return nil
}

// --- professionals ---

type fakeProfessionals struct{ *fakeDB }

func (r *fakeProfessionals) Upsert(_ context.Context, p *models.Professional) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.professionals {
		if id != p.UserID && other.LicenseNumber == p.LicenseNumber {
			return common.ErrorAlreadyExists
		}
	}
	c := *p
	now := time.Now()
	c.IsVerified = true
	c.VerifiedAt = &now
	if old, ok := r.professionals[p.UserID]; ok {
		c.ConsultationFee = old.ConsultationFee
		c.AverageRating = old.AverageRating
		c.TotalCasesHandled = old.TotalCasesHandled
	}
	r.professionals[p.UserID] = &c
	return nil
}

func (r *fakeProfessionals) GetByUserID(_ context.Context, userID string) (*models.Professional, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.professionals[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeProfessionals) UpdateProfile(_ context.Context, p *models.Professional) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.professionals[p.UserID]
	if !ok {
		return common.ErrorNotFound
	}
	old.LawFirmName = p.LawFirmName
	old.SpecialtyAreas = p.SpecialtyAreas
	old.YearsOfExperience = p.YearsOfExperience
	old.Bio = p.Bio
	old.ConsultationFee = p.ConsultationFee
	return nil
}

func (r *fakeProfessionals) List(_ context.Context, verifiedOnly bool) ([]*models.Professional, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Professional
	for _, p := range r.professionals {
		if !verifiedOnly || p.IsVerified {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *fakeProfessionals) SetVerified(_ context.Context, userID string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.professionals[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.IsVerified = verified
	return nil
}

func (r *fakeProfessionals) RefreshCaseStats(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.professionals[userID]
	if !ok {
		return common.ErrorNotFound
	}
	var total, rated, sum int
	for _, c := range r.cases {
		if c.ProfessionalID == nil || *c.ProfessionalID != userID || c.Status != models.CaseStatusCompleted {
			continue
		}
		total++
		if c.Rating != nil {
			rated++
			sum += *c.Rating
		}
	}
	p.TotalCasesHandled = total
	p.AverageRating = 0
	if rated > 0 {
		p.AverageRating = float64(sum) / float64(rated)
	}
	return nil
}

// --- verifications ---

type fakeVerifications struct{ *fakeDB }

func (r *fakeVerifications) Create(_ context.Context, v *models.VerificationRequest) (*models.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *v
	c.ID = r.nextID("ver")
	c.Status = models.VerificationPending
	c.CreatedAt = time.Now()
	r.verifications = append(r.verifications, &c)
	out := c
	return &out, nil
}

func (r *fakeVerifications) GetByID(_ context.Context, id string) (*models.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.verifications {
		if v.ID == id {
			c := *v
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeVerifications) LatestForUser(_ context.Context, userID string) (*models.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.verifications) - 1; i >= 0; i-- {
		if v := r.verifications[i]; v.UserID == userID {
			c := *v
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeVerifications) List(_ context.Context, status string) ([]*models.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.VerificationRequest
	for _, v := range r.verifications {
		if status == "" || v.Status == status {
			c := *v
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeVerifications) Review(_ context.Context, id, from, to, adminID, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.verifications {
		if v.ID != id {
			continue
		}
		if v.Status != from {
			return common.ErrorConflict
		}
		now := time.Now()
		v.Status = to
		v.AdminNotes = notes
		v.ReviewedBy = &adminID
		v.ReviewedAt = &now
		return nil
	}
	return common.ErrorNotFound
}

// --- cases ---

type fakeCases struct{ *fakeDB }

func (r *fakeCases) Create(_ context.Context, c *models.Case) (*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail["Cases.Create"]; err != nil {
		return nil, err
	}
	n := *c
	n.ID = r.nextID("case")
	n.Status = models.CaseStatusPending
	n.CreatedAt = time.Now()
	r.cases[n.ID] = &n
	out := n
	return &out, nil
}

func (r *fakeCases) GetByID(_ context.Context, id string) (*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *c
	return &out, nil
}

func (r *fakeCases) filter(keep func(*models.Case) bool) []*models.Case {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Case
	for _, c := range r.cases {
		if keep(c) {
			n := *c
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeCases) ListByUser(_ context.Context, userID string) ([]*models.Case, error) {
	return r.filter(func(c *models.Case) bool { return c.UserID == userID }), nil
}

func (r *fakeCases) ListByProfessional(_ context.Context, professionalID string) ([]*models.Case, error) {
	return r.filter(func(c *models.Case) bool {
		return c.ProfessionalID != nil && *c.ProfessionalID == professionalID
	}), nil
}

func (r *fakeCases) ListPool(context.Context) ([]*models.Case, error) {
	return r.filter(func(c *models.Case) bool {
		return c.Status == models.CaseStatusPending && c.ProfessionalID == nil
	}), nil
}

func (r *fakeCases) ListAll(_ context.Context, f cases.ListFilter) ([]*models.Case, error) {
	return r.filter(func(c *models.Case) bool { return f.Status == "" || c.Status == f.Status }), nil
}

func (r *fakeCases) transition(id string, ok func(*models.Case) bool, apply func(*models.Case)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, found := r.cases[id]
	if !found || !ok(c) {
		return common.ErrorConflict
	}
	apply(c)
	return nil
}

func (r *fakeCases) Update(_ context.Context, u *models.Case) error {
	return r.transition(u.ID,
		func(c *models.Case) bool { return c.UserID == u.UserID && c.Status == models.CaseStatusPending },
		func(c *models.Case) {
			c.Title, c.Description, c.Category = u.Title, u.Description, u.Category
			c.Priority, c.Budget = u.Priority, u.Budget
		})
}

func (r *fakeCases) Accept(_ context.Context, id, professionalID string) error {
	return r.transition(id,
		func(c *models.Case) bool { return c.Status == models.CaseStatusPending && c.ProfessionalID == nil },
		func(c *models.Case) {
			now := time.Now()
			c.Status = models.CaseStatusAccepted
			c.ProfessionalID = &professionalID
			c.AcceptedAt = &now
		})
}

func (r *fakeCases) Start(_ context.Context, id, professionalID string) error {
	return r.transition(id,
		func(c *models.Case) bool {
			return c.Status == models.CaseStatusAccepted && c.ProfessionalID != nil && *c.ProfessionalID == professionalID
		},
		func(c *models.Case) { c.Status = models.CaseStatusInProgress })
}

func (r *fakeCases) Complete(_ context.Context, id, professionalID string) error {
	return r.transition(id,
		func(c *models.Case) bool {
			return (c.Status == models.CaseStatusAccepted || c.Status == models.CaseStatusInProgress) &&
				c.ProfessionalID != nil && *c.ProfessionalID == professionalID
		},
		func(c *models.Case) {
			now := time.Now()
			c.Status = models.CaseStatusCompleted
			c.CompletedAt = &now
		})
}

func (r *fakeCases) Cancel(_ context.Context, id, userID string) error {
	return r.transition(id,
		func(c *models.Case) bool {
			return c.UserID == userID && (c.Status == models.CaseStatusPending || c.Status == models.CaseStatusAccepted)
		},
		func(c *models.Case) { c.Status = models.CaseStatusCancelled })
}

func (r *fakeCases) Rate(_ context.Context, id, userID string, rating int, review string) error {
	return r.transition(id,
		func(c *models.Case) bool {
			return c.UserID == userID && c.Status == models.CaseStatusCompleted && c.Rating == nil
		},
		func(c *models.Case) {
			c.Rating = &rating
			c.Review = review
		})
}

func (r *fakeCases) Stats(_ context.Context, userID string) (*models.CaseStats, error) {
	s := &models.CaseStats{}
	for _, c := range r.filter(func(c *models.Case) bool { return userID == "" || c.UserID == userID }) {
		s.Total++
		switch c.Status {
		case models.CaseStatusPending:
			s.Pending++
		case models.CaseStatusAccepted, models.CaseStatusInProgress:
			s.Active++
		case models.CaseStatusCompleted:
			s.Completed++
		case models.CaseStatusCancelled:
			s.Cancelled++
		}
	}
	return s, nil
}

func (r *fakeCases) ProfessionalStats(ctx context.Context, professionalID string) (*models.ProfessionalStats, error) {
	list, _ := r.ListByProfessional(ctx, professionalID)
	s := &models.ProfessionalStats{}
	var rated, sum int
	for _, c := range list {
		switch c.Status {
		case models.CaseStatusAccepted:
			s.Accepted++
		case models.CaseStatusInProgress:
			s.InProgress++
		case models.CaseStatusCompleted:
			s.Completed++
		}
		if c.Rating != nil {
			rated++
			sum += *c.Rating
		}
	}
	if rated > 0 {
		s.AverageRating = float64(sum) / float64(rated)
	}
	return s, nil
}

// --- questionnaires ---

type fakeQuestionnaires struct{ *fakeDB }

func (r *fakeQuestionnaires) CreateSession(_ context.Context, s *models.QuestionnaireSession) (*models.QuestionnaireSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *s
	c.ID = r.nextID("sess")
	c.StartedAt = time.Now()
	c.LastActivityAt = c.StartedAt
	r.sessions[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeQuestionnaires) GetSession(_ context.Context, id string) (*models.QuestionnaireSession, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	var c models.QuestionnaireSession
	if ok {
		c = *s
	}
	var hook func()
	if r.interleaveFn != nil {
		r.interleaveAt--
		if r.interleaveAt <= 0 {
			hook, r.interleaveFn = r.interleaveFn, nil
		}
	}
	r.mu.Unlock()

	if !ok {
		return nil, common.ErrorNotFound
	}
	if hook != nil {
		hook()
	}
	return &c, nil
}

func (r *fakeQuestionnaires) UpdateSession(_ context.Context, s *models.QuestionnaireSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.sessions[s.ID]
	if !ok || old.Version != s.Version {
		return questionnaires.ErrStaleSession
	}
	old.Version++
	s.Version = old.Version
	old.Status = s.Status
	old.IsFinalized = s.IsFinalized
	old.State = append([]byte(nil), s.State...)
	old.CaseID = s.CaseID
	old.CompletedAt = s.CompletedAt
	old.LastActivityAt = time.Now()
	return nil
}

func (r *fakeQuestionnaires) ListIncomplete(_ context.Context, userID string) ([]*models.QuestionnaireSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.QuestionnaireSession
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == models.SessionInProgress && !s.IsFinalized && s.ExpiresAt.After(time.Now()) {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeQuestionnaires) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; !ok || s.IsFinalized {
		return common.ErrorNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeQuestionnaires) CreateSubmission(_ context.Context, s *models.QuestionnaireSubmission) (*models.QuestionnaireSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail["Questionnaires.CreateSubmission"]; err != nil {
		return nil, err
	}
	for _, other := range r.submissions {
		if other.SessionID == s.SessionID {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *s
	c.ID = r.nextID("sub")
	c.SubmittedAt = time.Now()
	r.submissions = append(r.submissions, &c)
	out := c
	return &out, nil
}

func (r *fakeQuestionnaires) GetSubmissionBySession(_ context.Context, sessionID string) (*models.QuestionnaireSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.submissions {
		if s.SessionID == sessionID {
			c := *s
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- documents ---

type fakeDocuments struct{ *fakeDB }

func (r *fakeDocuments) Create(_ context.Context, d *models.Document) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *d
	c.ID = r.nextID("doc")
	c.UploadedAt = time.Now()
	r.documents = append(r.documents, &c)
	out := c
	return &out, nil
}

func (r *fakeDocuments) GetByID(_ context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.documents {
		if d.ID == id {
			c := *d
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeDocuments) list(keep func(*models.Document) bool) []*models.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Document
	for _, d := range r.documents {
		if keep(d) {
			c := *d
			out = append(out, &c)
		}
	}
	return out
}

func (r *fakeDocuments) ListBySession(_ context.Context, sessionID string) ([]*models.Document, error) {
	return r.list(func(d *models.Document) bool { return d.SessionID != nil && *d.SessionID == sessionID }), nil
}

func (r *fakeDocuments) ListByVerification(_ context.Context, id string) ([]*models.Document, error) {
	return r.list(func(d *models.Document) bool { return d.VerificationID != nil && *d.VerificationID == id }), nil
}

func (r *fakeDocuments) ListByCase(_ context.Context, caseID string) ([]*models.Document, error) {
	return r.list(func(d *models.Document) bool { return d.CaseID != nil && *d.CaseID == caseID }), nil
}

func (r *fakeDocuments) ListByUser(_ context.Context, userID string, f documents.ListFilter) ([]*models.Document, error) {
	out := r.list(func(d *models.Document) bool {
		switch {
		case d.UserID != userID:
			return false
		case f.DocumentType != "" && d.DocumentType != f.DocumentType:
			return false
		case f.CaseID != "" && (d.CaseID == nil || *d.CaseID != f.CaseID):
			return false
		case f.SessionID != "" && (d.SessionID == nil || *d.SessionID != f.SessionID):
			return false
		}
		return true
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakeDocuments) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.documents {
		if d.ID == id {
			r.documents = append(r.documents[:i], r.documents[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *fakeDocuments) AttachSessionToCase(_ context.Context, sessionID, caseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.documents {
		if d.SessionID != nil && *d.SessionID == sessionID {
			id := caseID
			d.CaseID = &id
		}
	}
	return nil
}

// --- admin logs ---

type fakeAdminLogs struct{ *fakeDB }

func (r *fakeAdminLogs) Create(_ context.Context, l *models.AdminLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *l
	c.ID = r.nextID("log")
	c.PerformedAt = time.Now()
	r.logs = append(r.logs, &c)
	return nil
}

func (r *fakeAdminLogs) List(_ context.Context, limit int) ([]*models.AdminLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AdminLog
	for i := len(r.logs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		c := *r.logs[i]
		out = append(out, &c)
	}
	return out, nil
}
