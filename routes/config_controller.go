package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/database"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
	"github.com/mbolis/launchalot/model"
)

// GetUIConfig answers the stored configuration object of a page, or an empty object.
func GetUIConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := chi.URLParam(r, "page")
		c, err := app.GetUIConfig(r.Context(), page)
		if errors.Is(err, database.ErrNotFound) || (err == nil && c.Config == nil) {
			render.JSON(w, r, map[string]any{})
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_ui_config", err)
			return
		}
		render.JSON(w, r, c.Config)
	}
}

type createUIConfigRequest struct {
	Page   string         `json:"page" validate:"notblank"`
	Config map[string]any `json:"config" validate:"required"`
}

func CreateUIConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUIConfigRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "request.create_ui_config", err)
			return
		}

		c := model.UIConfig{Page: req.Page, Config: req.Config}
		err := app.CreateUIConfig(r.Context(), &c)
		if errors.Is(err, database.ErrConflict) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "db.create_ui_config", "UI config already exists for this page")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_ui_config", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, c)
	}
}

// PutUIConfig replaces the configuration of a page with the request body, creating it if needed.
func PutUIConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var config map[string]any
		if err := httpx.DecodeJSON(r, &config); err != nil {
			badRequest(w, r, "request.put_ui_config", err)
			return
		}
		if len(config) == 0 {
			badRequest(w, r, "request.put_ui_config", errors.New("config is required"))
			return
		}

		c := model.UIConfig{Page: chi.URLParam(r, "page"), Config: config}
		if err := app.UpsertUIConfig(r.Context(), &c); err != nil {
			httpx.LogInternalError(w, r, "db.put_ui_config", err)
			return
		}
		render.JSON(w, r, c)
	}
}

// GetThankYouConfig answers null when the page has no configuration.
func GetThankYouConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := chi.URLParam(r, "page")
		c, err := app.GetThankYouConfig(r.Context(), page)
		if errors.Is(err, database.ErrNotFound) {
			render.JSON(w, r, nil)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_thankyou_config", err)
			return
		}
		render.JSON(w, r, c)
	}
}

type thankYouRequest struct {
	Image   string `json:"image" validate:"notblank"`
	Heading string `json:"heading" validate:"notblank"`
	Text    string `json:"text" validate:"notblank"`
}

func PutThankYouConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req thankYouRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "request.put_thankyou_config", err)
			return
		}

		c := model.ThankYouConfig{
			Page:    chi.URLParam(r, "page"),
			Image:   req.Image,
			Heading: req.Heading,
			Text:    req.Text,
		}
		if err := app.UpsertThankYouConfig(r.Context(), &c); err != nil {
			httpx.LogInternalError(w, r, "db.put_thankyou_config", err)
			return
		}
		render.JSON(w, r, c)
	}
}

type deletedThankYou struct {
	Message string               `json:"message"`
	Data    model.ThankYouConfig `json:"data"`
}

func DeleteThankYouConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := chi.URLParam(r, "page")
		deleted, err := app.DeleteThankYouConfig(r.Context(), page)
		if errors.Is(err, database.ErrNotFound) {
			httpx.LogStatusMsg(w, r, http.StatusNotFound, log.DebugLevel, "db.delete_thankyou_config", "Config not found")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_thankyou_config", err)
			return
		}
		render.JSON(w, r, deletedThankYou{Message: "Config deleted successfully", Data: deleted})
	}
}
