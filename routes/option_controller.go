package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/model"
)

type optionRequest struct {
	QuestionID string `json:"questionId" validate:"required,objectid"`
	Text       string `json:"text" validate:"notblank"`
	Risk       string `json:"risk"`
}

func ListOptions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter []string
		if questionID := r.URL.Query().Get("questionId"); questionID != "" {
			filter = append(filter, questionID)
		}

		options, err := app.ListOptions(r.Context(), filter...)
		if err != nil {
			httpx.LogInternalError(w, r, "db.list_options", err)
			return
		}
		render.JSON(w, r, orEmpty(options))
	}
}

func CreateOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req optionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "request.create_option", err)
			return
		}

		option := model.Option{
			QuestionID: req.QuestionID,
			Text:       strings.TrimSpace(req.Text),
			Risk:       model.NormalizeRisk(req.Risk),
		}
		if err := app.CreateOption(r.Context(), &option); err != nil {
			httpx.LogInternalError(w, r, "db.create_option", err)
			return
		}
		render.JSON(w, r, option)
	}
}

func DeleteOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := app.DeleteOption(r.Context(), id); err != nil {
			httpx.LogInternalError(w, r, "db.delete_option", err)
			return
		}
		render.JSON(w, r, okResponse{OK: true})
	}
}
