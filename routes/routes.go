package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
	"github.com/mbolis/launchalot/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		log.RequestLogger(),
		middlewares.Recoverer,
		app.Metrics.Middleware,
		middlewares.CORS(app.CORSOrigins),
		middleware.RequestSize(app.BodyLimit),
	)
	root.NotFound(notFound)
	root.MethodNotAllowed(methodNotAllowed)

	root.Method(http.MethodGet, "/metrics", app.Metrics.Handler())

	uploads := serveFiles(app.UploadDir)
	root.Handle("/api/uploads/*", http.StripPrefix("/api/uploads", uploads))
	root.Handle("/uploads/*", http.StripPrefix("/uploads", uploads))
	root.Handle("/public/*", http.StripPrefix("/public", serveFiles(app.PublicDir)))

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	api.NotFound(notFound)
	api.MethodNotAllowed(methodNotAllowed)

	admin := middlewares.Admin(app.Tokens.JWTAuth)

	api.Get("/health", Health())
	api.Post("/auth/login", Login(app))

	api.Route("/public", func(r chi.Router) {
		r.Get("/surveys/{key}", PublicGetSurvey(app))
		r.Post("/surveys/{key}/submit", PublicSubmitSurvey(app))
		r.Post("/report.pdf", PublicReport(app))
	})

	api.Route("/ui-config", func(r chi.Router) {
		r.Get("/{page}", GetUIConfig(app))
		r.With(admin).Post("/", CreateUIConfig(app))
		r.With(admin).Put("/{page}", PutUIConfig(app))
	})

	api.Route("/thankyou-config", func(r chi.Router) {
		r.Get("/{page}", GetThankYouConfig(app))
		r.With(admin).Put("/{page}", PutThankYouConfig(app))
		r.With(admin).Delete("/{page}", DeleteThankYouConfig(app))
	})

	api.Group(func(r chi.Router) {
		r.Use(admin)

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", ListCompanies(app))
			r.Post("/", CreateCompany(app))
			r.Get("/{id}", GetCompany(app))
			r.Patch("/{id}", PatchCompany(app))
			r.Put("/{id}", ReplaceCompany(app))
			r.Delete("/{id}", DeleteCompany(app))
		})

		r.Route("/surveys", func(r chi.Router) {
			r.Get("/", ListSurveys(app))
			r.Post("/", CreateSurvey(app))
			r.Get("/{id}", GetSurvey(app))
			r.Put("/{id}", UpdateSurvey(app))
			r.Delete("/{id}", DeleteSurvey(app))
			r.Post("/{id}/create-url", CreatePublicURL(app))
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", ListQuestions(app))
			r.Post("/", CreateQuestion(app))
			r.Get("/{id}", GetQuestion(app))
			r.Put("/{id}", UpdateQuestion(app))
			r.Delete("/{id}", DeleteQuestion(app))
		})

		r.Route("/options", func(r chi.Router) {
			r.Get("/", ListOptions(app))
			r.Post("/", CreateOption(app))
			r.Delete("/{id}", DeleteOption(app))
		})

		r.Get("/results", GetResults(app))
		r.Get("/stats/summary", GetStatsSummary(app))
	})

	return api
}

func notFound(w http.ResponseWriter, r *http.Request) {
	log.Debugf("route.not_found: %s %s", r.Method, r.URL.Path)
	httpx.WriteErrorPath(w, r, http.StatusNotFound, "Not found", r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpx.WriteErrorPath(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), r.URL.Path)
}

func serveFiles(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
