package routes

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/model"
)

const (
	tokenChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength = 12
)

type surveyView struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	CompanyID   string             `json:"companyId,omitempty"`
	Status      model.SurveyStatus `json:"status"`
	PublicToken string             `json:"publicToken,omitempty"`
	URL         *string            `json:"url"`
	TotalCount  int64              `json:"totalCount"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func shapeSurvey(s model.Survey, base string) surveyView {
	v := surveyView{
		ID:          s.ID,
		Name:        s.Name,
		CompanyID:   s.CompanyID,
		Status:      s.Status,
		PublicToken: s.PublicToken,
		TotalCount:  s.TotalCount,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if v.Status == "" {
		v.Status = model.StatusActive
	}
	if s.PublicToken != "" {
		url := surveyURL(base, s.PublicToken)
		v.URL = &url
	}
	return v
}

func surveyURL(base, token string) string {
	return base + "/s/" + token
}

// publicBase is the configured public survey base, or the origin the request was sent to.
func publicBase(app app.App, r *http.Request) string {
	if app.PublicSurveyBase != "" {
		return strings.TrimRight(app.PublicSurveyBase, "/")
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return strings.TrimRight(scheme+"://"+r.Host, "/")
}

type createSurveyRequest struct {
	CompanyID string             `json:"companyId" validate:"required,objectid"`
	Name      string             `json:"name" validate:"notblank"`
	Status    model.SurveyStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

type updateSurveyRequest struct {
	CompanyID *string             `json:"companyId" validate:"omitempty,objectid"`
	Name      *string             `json:"name"`
	Status    *model.SurveyStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.ListSurveys(r.Context(), r.URL.Query().Get("companyId"))
		if err != nil {
			httpx.LogInternalError(w, r, "db.list_surveys", err)
			return
		}

		base := publicBase(app, r)
		views := make([]surveyView, len(surveys))
		for i, s := range surveys {
			views[i] = shapeSurvey(s, base)
		}
		render.JSON(w, r, views)
	}
}

func GetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		survey, err := app.GetSurvey(r.Context(), id)
		if err != nil {
			storeError(w, r, "db.get_survey", id, err)
			return
		}
		render.JSON(w, r, shapeSurvey(survey, publicBase(app, r)))
	}
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSurveyRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "request.create_survey", err)
			return
		}

		survey := model.Survey{
			CompanyID: req.CompanyID,
			Name:      strings.TrimSpace(req.Name),
			Status:    req.Status,
		}
		if survey.Status == "" {
			survey.Status = model.StatusActive
		}
		if err := app.CreateSurvey(r.Context(), &survey); err != nil {
			httpx.LogInternalError(w, r, "db.create_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, shapeSurvey(survey, publicBase(app, r)))
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req updateSurveyRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "request.update_survey", err)
			return
		}
		if req.Name != nil {
			if err := requireText("name", req.Name); err != nil {
				badRequest(w, r, "request.update_survey", err)
				return
			}
		}

		survey, err := app.GetSurvey(r.Context(), id)
		if err != nil {
			storeError(w, r, "db.update_survey.get", id, err)
			return
		}
		if req.CompanyID != nil {
			survey.CompanyID = *req.CompanyID
		}
		if req.Name != nil {
			survey.Name = strings.TrimSpace(*req.Name)
		}
		if req.Status != nil {
			survey.Status = *req.Status
		}

		if err = app.UpdateSurvey(r.Context(), &survey); err != nil {
			storeError(w, r, "db.update_survey", id, err)
			return
		}
		render.JSON(w, r, shapeSurvey(survey, publicBase(app, r)))
	}
}

// DeleteSurvey leaves the survey's questions and responses in place.
func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := app.DeleteSurvey(r.Context(), id); err != nil {
			storeError(w, r, "db.delete_survey", id, err)
			return
		}
		render.JSON(w, r, okResponse{OK: true})
	}
}

type publicURLResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// CreatePublicURL gives the survey a public token unless it has one already.
func CreatePublicURL(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		survey, err := app.GetSurvey(r.Context(), id)
		if err != nil {
			storeError(w, r, "db.create_url.get", id, err)
			return
		}

		token := survey.PublicToken
		if token == "" {
			candidate, err := makeToken(tokenLength)
			if err != nil {
				httpx.LogInternalError(w, r, "create_url.token", err)
				return
			}
			token, err = app.EnsurePublicToken(r.Context(), id, candidate)
			if err != nil {
				storeError(w, r, "db.create_url", id, err)
				return
			}
		}

		render.JSON(w, r, publicURLResponse{
			Token: token,
			URL:   surveyURL(publicBase(app, r), token),
		})
	}
}

func makeToken(n int) (string, error) {
	limit := big.NewInt(int64(len(tokenChars)))
	b := make([]byte, n)
	for i := range b {
		k, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = tokenChars[k.Int64()]
	}
	return string(b), nil
}
