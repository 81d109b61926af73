package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/examprep/internal/auth/middleware"
	"github.com/mind-engage/examprep/internal/event"
	"github.com/mind-engage/examprep/internal/exam"
	"github.com/mind-engage/examprep/internal/grading"
	"github.com/mind-engage/examprep/internal/rbac"
	"github.com/mind-engage/examprep/internal/storage"
)

// API carries what the routes need. Events, Publisher and Blobs are optional.
type API struct {
	Store     exam.Store
	Scorer    *grading.Scorer
	Auth      *auth.AuthService
	Events    EventAppender
	Publisher event.Publisher
	Blobs     storage.BlobStore

	ServeAnswerKeys bool
	EnableGuest     bool
	SecureCookies   bool
}

func (a *API) Routes(r chi.Router) {
	r.Post("/api/auth/login", auth.LoginHandler(a.Auth))
	if a.EnableGuest {
		r.Post("/api/auth/guest", auth.GuestLoginHandler(a.Auth, a.SecureCookies))
	}

	// Question Provider is public so the demo flow works without an account.
	r.Get("/api/questions", ListQuestionsHandler(a.Store, a.ServeAnswerKeys))
	if a.Blobs != nil {
		r.Get("/assets/*", GetAssetHandler(a.Blobs))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(a.Auth))

		pr.With(rbac.Require(rbac.PermResultSubmit)).
			Post("/api/results", SubmitResultHandler(a.Store, a.Scorer, a.Events, a.Publisher))

		ownerOrAll := rbac.RequireOwnerOr(rbac.PermResultViewAll, isOwner)
		pr.With(ownerOrAll).Get("/api/users/{userID}/results", ListUserResultsHandler(a.Store))
		pr.With(ownerOrAll).Get("/api/users/{userID}/wrong", WrongAnswersHandler(a.Store))

		pr.With(rbac.Require(rbac.PermQuestionImport)).
			Post("/api/questions/import", ImportQuestionsHandler(a.Store, a.Events))
		if a.Blobs != nil {
			pr.With(rbac.Require(rbac.PermAssetUpload)).
				Post("/assets/*", UploadAssetHandler(a.Blobs))
		}
	})
}

func isOwner(r *http.Request) bool {
	sub := rbac.SubjectFromContext(r.Context())
	return sub != "" && sub == chi.URLParam(r, "userID")
}
