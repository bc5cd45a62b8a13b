package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/pak-it/checkin/app"
	"github.com/pak-it/checkin/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Staff(app.TokenSecret))

		r.Get("/poll", GetPoll(app))
		r.Post("/poll/response", SubmitResponse(app))
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		r.Get("/settings", GetSettings(app))
		r.Put("/settings", SaveSettings(app))
		r.Post("/settings/diff", DiffSettings(app))
		r.Delete("/settings", ResetSettings(app))

		r.Get("/employees", ListEmployees(app))
		r.Post("/employees", UploadRoster(app))

		r.Get("/summary", GetSummary(app))
		r.Get("/responses", ListResponses(app))
		r.Get("/absentees", ListAbsentees(app))
		r.Get("/export/voted", ExportVoted(app))
		r.Get("/export/absent", ExportAbsentees(app))

		r.Delete("/responses", ClearResponses(app))
		r.Delete("/database", ResetDatabase(app))
	})

	return api
}
