// Package httpapi exposes the LexBridge services as the JSON REST API under
// /api.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/cases"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/documents"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/users"
	"github.com/dmitrijs2005/lexbridge/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, *services.TokenPair, error)
	Login(ctx context.Context, userName, password string) (*models.User, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Authenticate(accessToken string) (auth.Principal, error)
}

type CaseService interface {
	Create(ctx context.Context, p auth.Principal, in services.CaseInput) (*models.Case, error)
	ListMine(ctx context.Context, p auth.Principal) ([]*models.Case, error)
	Get(ctx context.Context, p auth.Principal, id string) (*models.Case, error)
	Update(ctx context.Context, p auth.Principal, id string, u services.CaseUpdate) (*models.Case, error)
	Cancel(ctx context.Context, p auth.Principal, id string) (*models.Case, error)
	Rate(ctx context.Context, p auth.Principal, id string, rating int, review string) (*models.Case, error)
	Stats(ctx context.Context, p auth.Principal) (*models.CaseStats, error)
}

type ProfessionalService interface {
	VerificationStatus(ctx context.Context, p auth.Principal) (*services.VerificationStatus, error)
	Profile(ctx context.Context, p auth.Principal) (*models.Professional, error)
	PublicProfile(ctx context.Context, userID string) (*models.Professional, error)
	UpdateProfile(ctx context.Context, p auth.Principal, in services.ProfileUpdate) (*models.Professional, error)
	Dashboard(ctx context.Context, p auth.Principal) (*services.ProfessionalDashboard, error)
	MyCases(ctx context.Context, p auth.Principal) ([]*models.Case, bool, error)
	Pool(ctx context.Context, p auth.Principal) ([]*models.Case, error)
	Accept(ctx context.Context, p auth.Principal, caseID string) (*models.Case, error)
	Start(ctx context.Context, p auth.Principal, caseID string) (*models.Case, error)
	Complete(ctx context.Context, p auth.Principal, caseID string) (*models.Case, error)
}

type VerificationService interface {
	Submit(ctx context.Context, p auth.Principal, in services.VerificationInput) (*services.VerificationDetail, error)
	MyRequest(ctx context.Context, p auth.Principal) (*services.VerificationDetail, error)
	List(ctx context.Context, status string) ([]*models.VerificationRequest, error)
	Get(ctx context.Context, id string) (*services.VerificationDetail, error)
	Approve(ctx context.Context, admin auth.Principal, id, notes string) (*models.VerificationRequest, error)
	Reject(ctx context.Context, admin auth.Principal, id, notes string) (*models.VerificationRequest, error)
}

type AdminService interface {
	Stats(ctx context.Context) (*services.PlatformStats, error)
	Users(ctx context.Context, f users.ListFilter) ([]*models.User, error)
	SetActive(ctx context.Context, admin auth.Principal, userID string, active bool) error
	ResetPassword(ctx context.Context, admin auth.Principal, userID, newPassword string) error
	Sessions(ctx context.Context, userID string) ([]*models.RefreshToken, error)
	RevokeSession(ctx context.Context, admin auth.Principal, sessionID string) error
	RevokeAllSessions(ctx context.Context, admin auth.Principal, userID string) (int, error)
	CleanupSessions(ctx context.Context) (int64, error)
	Cases(ctx context.Context, f cases.ListFilter) ([]*models.Case, error)
	Logs(ctx context.Context, limit int) ([]*models.AdminLog, error)
	Professionals(ctx context.Context, verifiedOnly bool) ([]*models.Professional, error)
	SetProfessionalVerified(ctx context.Context, admin auth.Principal, userID string, verified bool) error
}

type QuestionnaireService interface {
	Start(ctx context.Context, p auth.Principal, typ int) (*services.SessionStep, error)
	Answer(ctx context.Context, p auth.Principal, in services.AnswerInput) (*services.SessionStep, error)
	ValidateSummary(ctx context.Context, p auth.Principal, sessionID string, approved bool, feedback string) (*services.SessionStep, error)
	GoBack(ctx context.Context, p auth.Principal, sessionID, targetQuestionID string) (*services.SessionStep, error)
	Resume(ctx context.Context, p auth.Principal, sessionID string) (*services.SessionStep, error)
	Status(ctx context.Context, p auth.Principal, sessionID string) (*services.SessionStatus, error)
	ListIncomplete(ctx context.Context, p auth.Principal) ([]*services.SessionStatus, error)
	Delete(ctx context.Context, p auth.Principal, sessionID string) error
	Upload(ctx context.Context, p auth.Principal, sessionID, questionID string, f filex.LocalFile) (*services.UploadResult, error)
	UploadedFile(ctx context.Context, p auth.Principal, sessionID, fileID string) (*services.EvidenceFile, error)
	Finalize(ctx context.Context, p auth.Principal, in services.FinalizeInput) (*services.FinalizeResult, error)
	CreateCase(ctx context.Context, p auth.Principal, sessionID, title, priority string) (*services.CaseRef, error)
	CompletionData(ctx context.Context, p auth.Principal, sessionID string) (*services.CompletionData, error)
	GenerateDocument(ctx context.Context, p auth.Principal, sessionID, code string, previewOnly bool) (*services.DocumentResult, error)
}

type DocumentService interface {
	Mine(ctx context.Context, p auth.Principal, f documents.ListFilter) ([]*models.Document, error)
	Download(ctx context.Context, p auth.Principal, id string) (*models.Document, []byte, error)
	CaseDocuments(ctx context.Context, p auth.Principal, caseID string) ([]services.LinkedDocument, error)
	Attach(ctx context.Context, p auth.Principal, caseID string, f filex.LocalFile) (*services.LinkedDocument, error)
	Detach(ctx context.Context, p auth.Principal, caseID, docID string) error
}

// Services groups everything the API delegates to.
type Services struct {
	Users          UserService
	Cases          CaseService
	Professionals  ProfessionalService
	Verifications  VerificationService
	Admin          AdminService
	Questionnaires QuestionnaireService
	Documents      DocumentService
}

type Server struct {
	address string
	svc     Services
	log     logging.Logger
	handler http.Handler
}

func NewServer(address string, svc Services, l logging.Logger) *Server {
	s := &Server{
		address: address,
		svc:     svc,
		log:     l.With("module", "http_server"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.log.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/token/refresh", s.refresh).Methods(http.MethodPost)

	private := api.NewRoute().Subrouter()
	private.Use(s.authenticate)

	private.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	private.HandleFunc("/auth/me", s.me).Methods(http.MethodGet)
	private.HandleFunc("/auth/password/change", s.changePassword).Methods(http.MethodPost)

	private.HandleFunc("/cases", s.createCase).Methods(http.MethodPost)
	private.HandleFunc("/cases/", s.createCase).Methods(http.MethodPost)
	private.HandleFunc("/cases/my-cases", s.myCases).Methods(http.MethodGet)
	private.HandleFunc("/cases/stats", s.caseStats).Methods(http.MethodGet)
	private.HandleFunc("/cases/pool", s.casePool).Methods(http.MethodGet)
	private.HandleFunc("/cases/{id}", s.getCase).Methods(http.MethodGet)
	private.HandleFunc("/cases/{id}", s.updateCase).Methods(http.MethodPut)
	private.HandleFunc("/cases/{id}/documents", s.caseDocuments).Methods(http.MethodGet)
	private.HandleFunc("/cases/{id}/documents", s.attachCaseDocument).Methods(http.MethodPost)
	private.HandleFunc("/cases/{id}/documents/{doc}", s.detachCaseDocument).Methods(http.MethodDelete)
	private.HandleFunc("/cases/{id}/cancel", s.cancelCase).Methods(http.MethodPost)
	private.HandleFunc("/cases/{id}/rate", s.rateCase).Methods(http.MethodPost)

	private.HandleFunc("/documents/my-documents", s.myDocuments).Methods(http.MethodGet)
	private.HandleFunc("/documents/download/{id}", s.downloadDocument).Methods(http.MethodGet)

	private.HandleFunc("/professional/public/{id}", s.publicProfile).Methods(http.MethodGet)
	pro := private.PathPrefix("/professional").Subrouter()
	pro.Use(requireRole(common.RoleProfessional))
	pro.HandleFunc("/verification-status", s.verificationStatus).Methods(http.MethodGet)
	pro.HandleFunc("/stats", s.professionalStats).Methods(http.MethodGet)
	pro.HandleFunc("/my-cases", s.professionalCases).Methods(http.MethodGet)
	pro.HandleFunc("/available-cases", s.casePool).Methods(http.MethodGet)
	pro.HandleFunc("/me", s.profile).Methods(http.MethodGet)
	pro.HandleFunc("/me", s.updateProfile).Methods(http.MethodPut)
	pro.HandleFunc("/cases/{id}/accept", s.acceptCase).Methods(http.MethodPost)
	pro.HandleFunc("/cases/{id}/start", s.startCase).Methods(http.MethodPost)
	pro.HandleFunc("/cases/{id}/complete", s.completeCase).Methods(http.MethodPost)

	private.HandleFunc("/verification/request", s.submitVerification).Methods(http.MethodPost)
	private.HandleFunc("/verification/my-request", s.myVerification).Methods(http.MethodGet)
	verAdmin := private.PathPrefix("/verification").Subrouter()
	verAdmin.Use(requireRole(common.RoleAdmin))
	verAdmin.HandleFunc("/requests", s.listVerifications).Methods(http.MethodGet)
	verAdmin.HandleFunc("/requests/{id}", s.getVerification).Methods(http.MethodGet)

	adm := private.PathPrefix("/admin").Subrouter()
	adm.Use(requireRole(common.RoleAdmin))
	adm.HandleFunc("/stats", s.adminStats).Methods(http.MethodGet)
	adm.HandleFunc("/users", s.adminUsers).Methods(http.MethodGet)
	adm.HandleFunc("/users/{id}/activate", s.setUserActive(true)).Methods(http.MethodPost)
	adm.HandleFunc("/users/{id}/deactivate", s.setUserActive(false)).Methods(http.MethodPost)
	adm.HandleFunc("/users/{id}/reset-password", s.resetPassword).Methods(http.MethodPost)
	adm.HandleFunc("/users/{id}/sessions", s.userSessions).Methods(http.MethodGet)
	adm.HandleFunc("/users/{id}/revoke-all-sessions", s.revokeAllSessions).Methods(http.MethodPost)
	adm.HandleFunc("/sessions/cleanup", s.cleanupSessions).Methods(http.MethodPost)
	adm.HandleFunc("/sessions/{id}/revoke", s.revokeSession).Methods(http.MethodPost)
	adm.HandleFunc("/professionals", s.adminProfessionals).Methods(http.MethodGet)
	adm.HandleFunc("/professionals/{id}/verify", s.setProfessionalVerified(true)).Methods(http.MethodPost)
	adm.HandleFunc("/professionals/{id}/unverify", s.setProfessionalVerified(false)).Methods(http.MethodPost)
	adm.HandleFunc("/logs", s.adminLogs).Methods(http.MethodGet)
	adm.HandleFunc("/all-cases", s.adminCases).Methods(http.MethodGet)
	adm.HandleFunc("/verifications", s.listVerifications).Methods(http.MethodGet)
	adm.HandleFunc("/verifications/{id}", s.getVerification).Methods(http.MethodGet)
	adm.HandleFunc("/verifications/{id}/approve", s.approveVerification).Methods(http.MethodPost)
	adm.HandleFunc("/verifications/{id}/reject", s.rejectVerification).Methods(http.MethodPost)

	q := private.PathPrefix("/workflow/questionnaire").Subrouter()
	q.HandleFunc("/start", s.startQuestionnaire).Methods(http.MethodPost)
	q.HandleFunc("/answer", s.answerQuestion).Methods(http.MethodPost)
	q.HandleFunc("/validate-summary", s.validateSummary).Methods(http.MethodPost)
	q.HandleFunc("/go-back", s.goBack).Methods(http.MethodPost)
	q.HandleFunc("/upload", s.uploadEvidence).Methods(http.MethodPost)
	q.HandleFunc("/upload/{session}/{file}", s.uploadedFile).Methods(http.MethodGet)
	q.HandleFunc("/finalize", s.finalize).Methods(http.MethodPost)
	q.HandleFunc("/create-case", s.caseFromSession).Methods(http.MethodPost)
	q.HandleFunc("/generate-document", s.generateDocument).Methods(http.MethodPost)
	q.HandleFunc("/sessions/incomplete", s.incompleteSessions).Methods(http.MethodGet)
	q.HandleFunc("/session/{id}", s.sessionStatus).Methods(http.MethodGet)
	q.HandleFunc("/session/{id}", s.deleteSession).Methods(http.MethodDelete)
	q.HandleFunc("/session/{id}/resume", s.resumeSession).Methods(http.MethodGet)
	q.HandleFunc("/session/{id}/completion-data", s.completionData).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return s.logRequests(r)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
