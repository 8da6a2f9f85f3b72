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

type companyRequest struct {
	Name     string   `json:"name" validate:"notblank"`
	LogoURL  *string  `json:"logoUrl"`
	LogoURLs []string `json:"logoUrls"`
}

type companyPatch struct {
	Name     *string  `json:"name"`
	LogoURL  *string  `json:"logoUrl"`
	LogoURLs []string `json:"logoUrls"`
}

func ListCompanies(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companies, err := app.ListCompanies(r.Context())
		if err != nil {
			httpx.LogInternalError(w, r, "db.list_companies", err)
			return
		}
		render.JSON(w, r, orEmpty(companies))
	}
}

func GetCompany(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		company, err := app.GetCompany(r.Context(), id)
		if err != nil {
			storeError(w, r, "db.get_company", id, err)
			return
		}
		render.JSON(w, r, company)
	}
}

func CreateCompany(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req companyRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "request.create_company", err)
			return
		}

		logos := req.LogoURLs
		if logos == nil && req.LogoURL != nil && *req.LogoURL != "" {
			logos = []string{*req.LogoURL}
		}
		company := model.Company{
			Name:     strings.TrimSpace(req.Name),
			LogoURLs: orEmpty(logos),
		}
		company.LogoURL = primaryLogo(req.LogoURL, company.LogoURLs)

		if err := app.CreateCompany(r.Context(), &company); err != nil {
			httpx.LogInternalError(w, r, "db.create_company", err)
			return
		}
		render.JSON(w, r, company)
	}
}

// ReplaceCompany overwrites name and logos; logos default to none.
func ReplaceCompany(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req companyRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "request.replace_company", err)
			return
		}

		company, err := app.GetCompany(r.Context(), id)
		if err != nil {
			storeError(w, r, "db.replace_company.get", id, err)
			return
		}
		company.Name = strings.TrimSpace(req.Name)
		company.LogoURLs = orEmpty(req.LogoURLs)
		company.LogoURL = primaryLogo(req.LogoURL, company.LogoURLs)

		if err = app.UpdateCompany(r.Context(), &company); err != nil {
			storeError(w, r, "db.replace_company", id, err)
			return
		}
		render.JSON(w, r, company)
	}
}

// PatchCompany changes only the fields present in the body. New logos without
// a new primary logo make the first of them primary.
func PatchCompany(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req companyPatch
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "request.patch_company", err)
			return
		}
		if req.Name != nil {
			if err := requireText("name", req.Name); err != nil {
				badRequest(w, r, "request.patch_company", err)
				return
			}
		}

		company, err := app.GetCompany(r.Context(), id)
		if err != nil {
			storeError(w, r, "db.patch_company.get", id, err)
			return
		}
		if req.Name != nil {
			company.Name = strings.TrimSpace(*req.Name)
		}
		if req.LogoURLs != nil {
			company.LogoURLs = req.LogoURLs
			if req.LogoURL == nil {
				company.LogoURL = primaryLogo(nil, req.LogoURLs)
			}
		}
		if req.LogoURL != nil {
			company.LogoURL = *req.LogoURL
		}

		if err = app.UpdateCompany(r.Context(), &company); err != nil {
			storeError(w, r, "db.patch_company", id, err)
			return
		}
		render.JSON(w, r, company)
	}
}

func DeleteCompany(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := app.DeleteCompany(r.Context(), id); err != nil {
			httpx.LogInternalError(w, r, "db.delete_company", err)
			return
		}
		render.JSON(w, r, okResponse{OK: true})
	}
}

func primaryLogo(explicit *string, logos []string) string {
	if explicit != nil {
		return *explicit
	}
	if len(logos) > 0 {
		return logos[0]
	}
	return ""
}
