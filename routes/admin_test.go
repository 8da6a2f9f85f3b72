package routes

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mbolis/launchalot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanies(t *testing.T) {
	h := newHarness(t)

	t.Run("name required", func(t *testing.T) {
		rec := h.admin(http.MethodPost, "/api/companies", map[string]any{"name": "   "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		rec := h.admin(http.MethodPost, "/api/companies", map[string]any{"name": "Acme", "color": "red"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec := h.admin(http.MethodPost, "/api/companies", map[string]any{"name": " Acme ", "logoUrl": "/public/acme.png"})
	requireStatus(t, rec, http.StatusOK)
	acme := decode[model.Company](t, rec)
	assert.Equal(t, "Acme", acme.Name)
	assert.Equal(t, "/public/acme.png", acme.LogoURL)
	assert.Equal(t, []string{"/public/acme.png"}, acme.LogoURLs)
	require.True(t, model.IsValidID(acme.ID))

	rec = h.admin(http.MethodPost, "/api/companies", map[string]any{"name": "Globex", "logoUrls": []string{"/a.png", "/b.png"}})
	requireStatus(t, rec, http.StatusOK)
	globex := decode[model.Company](t, rec)
	assert.Equal(t, "/a.png", globex.LogoURL)

	t.Run("list in creation order", func(t *testing.T) {
		rec := h.admin(http.MethodGet, "/api/companies", nil)
		requireStatus(t, rec, http.StatusOK)
		companies := decode[[]model.Company](t, rec)
		require.Len(t, companies, 2)
		assert.Equal(t, acme.ID, companies[0].ID)
		assert.Equal(t, globex.ID, companies[1].ID)
	})

	t.Run("get", func(t *testing.T) {
		rec := h.admin(http.MethodGet, "/api/companies/"+acme.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Equal(t, "Acme", decode[model.Company](t, rec).Name)

		assert.Equal(t, http.StatusNotFound, h.admin(http.MethodGet, "/api/companies/"+model.NewID(), nil).Code)
		assert.Equal(t, http.StatusNotFound, h.admin(http.MethodGet, "/api/companies/not-an-id", nil).Code)
	})

	t.Run("patch logos resets primary logo", func(t *testing.T) {
		rec := h.admin(http.MethodPatch, "/api/companies/"+acme.ID, map[string]any{"logoUrls": []string{"/x.png", "/y.png"}})
		requireStatus(t, rec, http.StatusOK)
		patched := decode[model.Company](t, rec)
		assert.Equal(t, "Acme", patched.Name)
		assert.Equal(t, []string{"/x.png", "/y.png"}, patched.LogoURLs)
		assert.Equal(t, "/x.png", patched.LogoURL)
	})

	t.Run("patch blank name rejected", func(t *testing.T) {
		rec := h.admin(http.MethodPatch, "/api/companies/"+acme.ID, map[string]any{"name": "   "})
		assertError(t, rec, http.StatusBadRequest, "name is required")

		rec = h.admin(http.MethodGet, "/api/companies/"+acme.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Equal(t, "Acme", decode[model.Company](t, rec).Name)
	})

	t.Run("patch name only", func(t *testing.T) {
		rec := h.admin(http.MethodPatch, "/api/companies/"+acme.ID, map[string]any{"name": "Acme Inc"})
		requireStatus(t, rec, http.StatusOK)
		patched := decode[model.Company](t, rec)
		assert.Equal(t, "Acme Inc", patched.Name)
		assert.Equal(t, "/x.png", patched.LogoURL)
	})

	t.Run("put replaces", func(t *testing.T) {
		rec := h.admin(http.MethodPut, "/api/companies/"+acme.ID, map[string]any{"name": "Acme"})
		requireStatus(t, rec, http.StatusOK)
		replaced := decode[model.Company](t, rec)
		assert.Empty(t, replaced.LogoURL)
		assert.Empty(t, replaced.LogoURLs)

		rec = h.admin(http.MethodPut, "/api/companies/"+acme.ID, map[string]any{"logoUrl": "/z.png"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := h.admin(http.MethodDelete, "/api/companies/"+globex.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Equal(t, okResponse{OK: true}, decode[okResponse](t, rec))
		assert.Equal(t, http.StatusNotFound, h.admin(http.MethodGet, "/api/companies/"+globex.ID, nil).Code)
	})
}

func TestSurveys(t *testing.T) {
	h := newHarness(t)
	acme := h.createCompany("Acme")
	globex := h.createCompany("Globex")

	t.Run("validation", func(t *testing.T) {
		for _, body := range []map[string]any{
			{"name": "No company"},
			{"companyId": "nope", "name": "Bad company"},
			{"companyId": acme.ID},
			{"companyId": acme.ID, "name": "Bad status", "status": "PAUSED"},
		} {
			assert.Equal(t, http.StatusBadRequest, h.admin(http.MethodPost, "/api/surveys", body).Code, body)
		}
	})

	s1 := h.createSurvey(acme.ID, "Security")
	assert.Equal(t, model.StatusActive, s1.Status)
	assert.Nil(t, s1.URL)
	assert.Zero(t, s1.TotalCount)
	s2 := h.createSurvey(globex.ID, "Privacy")

	t.Run("list filtered by company", func(t *testing.T) {
		rec := h.admin(http.MethodGet, "/api/surveys", nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Len(t, decode[[]surveyView](t, rec), 2)

		rec = h.admin(http.MethodGet, "/api/surveys?companyId="+globex.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		surveys := decode[[]surveyView](t, rec)
		require.Len(t, surveys, 1)
		assert.Equal(t, s2.ID, surveys[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		rec := h.admin(http.MethodPut, "/api/surveys/"+s2.ID, map[string]any{"status": "INACTIVE", "name": "Privacy v2"})
		requireStatus(t, rec, http.StatusOK)
		updated := decode[surveyView](t, rec)
		assert.Equal(t, model.StatusInactive, updated.Status)
		assert.Equal(t, "Privacy v2", updated.Name)
		assert.Equal(t, globex.ID, updated.CompanyID)

		assert.Equal(t, http.StatusBadRequest, h.admin(http.MethodPut, "/api/surveys/"+s2.ID, map[string]any{"name": ""}).Code)
		assert.Equal(t, http.StatusNotFound, h.admin(http.MethodPut, "/api/surveys/"+model.NewID(), map[string]any{"name": "x"}).Code)
	})

	t.Run("create url is idempotent", func(t *testing.T) {
		rec := h.admin(http.MethodPost, "/api/surveys/"+s1.ID+"/create-url", nil)
		requireStatus(t, rec, http.StatusOK)
		first := decode[publicURLResponse](t, rec)
		assert.Len(t, first.Token, tokenLength)
		assert.Equal(t, "http://example.com/s/"+first.Token, first.URL)

		rec = h.admin(http.MethodPost, "/api/surveys/"+s1.ID+"/create-url", nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Equal(t, first, decode[publicURLResponse](t, rec))

		rec = h.admin(http.MethodGet, "/api/surveys/"+s1.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		survey := decode[surveyView](t, rec)
		assert.Equal(t, first.Token, survey.PublicToken)
		require.NotNil(t, survey.URL)
		assert.Equal(t, first.URL, *survey.URL)

		assert.Equal(t, http.StatusNotFound, h.admin(http.MethodPost, "/api/surveys/"+model.NewID()+"/create-url", nil).Code)
	})

	t.Run("configured public base", func(t *testing.T) {
		h.app.PublicSurveyBase = "https://surveys.example.org"
		handler := Wire(h.app)
		t.Cleanup(func() { h.app.PublicSurveyBase = "" })

		req := httptest.NewRequest(http.MethodGet, "/api/surveys/"+s1.ID, nil)
		req.Header.Set("Authorization", "Bearer "+h.token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		requireStatus(t, rec, http.StatusOK)

		survey := decode[surveyView](t, rec)
		require.NotNil(t, survey.URL)
		assert.Equal(t, "https://surveys.example.org/s/"+survey.PublicToken, *survey.URL)
	})

	t.Run("delete keeps questions", func(t *testing.T) {
		h.createQuestion(globex.ID, s2.ID, map[string]any{"text": "Do you encrypt?"})

		rec := h.admin(http.MethodDelete, "/api/surveys/"+s2.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Equal(t, http.StatusNotFound, h.admin(http.MethodDelete, "/api/surveys/"+s2.ID, nil).Code)

		rec = h.admin(http.MethodGet, "/api/questions?surveyId="+s2.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Len(t, decode[[]model.Question](t, rec), 1)
	})
}

func TestQuestionsAndOptions(t *testing.T) {
	h := newHarness(t)
	acme := h.createCompany("Acme")
	survey := h.createSurvey(acme.ID, "Security")

	t.Run("validation", func(t *testing.T) {
		for _, body := range []map[string]any{
			{"surveyId": survey.ID, "companyId": acme.ID, "type": "radio"},
			{"surveyId": survey.ID, "companyId": acme.ID, "text": "Q"},
			{"surveyId": survey.ID, "text": "Q", "type": "radio"},
			{"surveyId": survey.ID, "companyId": acme.ID, "text": "Q", "type": "slider"},
		} {
			assert.Equal(t, http.StatusBadRequest, h.admin(http.MethodPost, "/api/questions", body).Code, body)
		}
	})

	q := h.createQuestion(acme.ID, survey.ID, map[string]any{
		"text":         " Is MFA enforced? ",
		"type":         "checkbox",
		"segment":      "Segment 2",
		"segmentTitle": "Access",
	})
	assert.Equal(t, "Is MFA enforced?", q.Text)
	assert.Equal(t, model.TypeCheckbox, q.Type)
	assert.Equal(t, 2, q.SegmentNumber())

	t.Run("update never changes type", func(t *testing.T) {
		rec := h.admin(http.MethodPut, "/api/questions/"+q.ID, map[string]any{"text": "Is MFA enforced everywhere?", "type": "text"})
		requireStatus(t, rec, http.StatusOK)
		updated := decode[model.Question](t, rec)
		assert.Equal(t, "Is MFA enforced everywhere?", updated.Text)
		assert.Equal(t, model.TypeCheckbox, updated.Type)
		assert.Equal(t, "Access", updated.SegmentTitle)

		rec = h.admin(http.MethodGet, "/api/questions/"+q.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Equal(t, model.TypeCheckbox, decode[model.Question](t, rec).Type)
	})

	t.Run("options", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, h.admin(http.MethodPost, "/api/options", map[string]any{"questionId": q.ID}).Code)

		yes := h.createOption(q.ID, "Yes", "green")
		partly := h.createOption(q.ID, "Partly", "AMBER")
		no := h.createOption(q.ID, "No", "")
		assert.Equal(t, model.RiskGreen, yes.Risk)
		assert.Equal(t, model.RiskYellow, partly.Risk)
		assert.Equal(t, model.RiskGreen, no.Risk)

		rec := h.admin(http.MethodGet, "/api/options?questionId="+q.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Len(t, decode[[]model.Option](t, rec), 3)

		rec = h.admin(http.MethodDelete, "/api/options/"+no.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		rec = h.admin(http.MethodGet, "/api/options", nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Len(t, decode[[]model.Option](t, rec), 2)
	})

	t.Run("delete cascades options", func(t *testing.T) {
		rec := h.admin(http.MethodDelete, "/api/questions/"+q.ID, nil)
		requireStatus(t, rec, http.StatusOK)

		rec = h.admin(http.MethodGet, "/api/options?questionId="+q.ID, nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Empty(t, decode[[]model.Option](t, rec))

		assert.Equal(t, http.StatusNotFound, h.admin(http.MethodGet, "/api/questions/"+q.ID, nil).Code)
		assert.Equal(t, http.StatusNotFound, h.admin(http.MethodDelete, "/api/questions/"+q.ID, nil).Code)
	})
}

func TestQuestions_Multipart(t *testing.T) {
	h := newHarness(t)
	acme := h.createCompany("Acme")
	survey := h.createSurvey(acme.ID, "Security")

	send := func(method, path string, fields map[string]string, withImage bool) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		for k, v := range fields {
			require.NoError(t, mw.WriteField(k, v))
		}
		if withImage {
			fw, err := mw.CreateFormFile("image", "Diagram.PNG")
			require.NoError(t, err)
			_, err = fw.Write([]byte("not really a png"))
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(method, path, &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+h.token)
		return h.serve(req)
	}
	post := func(fields map[string]string, withImage bool) *httptest.ResponseRecorder {
		return send(http.MethodPost, "/api/questions", fields, withImage)
	}
	storedImages := func(t *testing.T) []string {
		entries, err := os.ReadDir(filepath.Join(h.app.UploadDir, "questions"))
		if os.IsNotExist(err) {
			return nil
		}
		require.NoError(t, err)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return names
	}

	t.Run("rejected requests leave no file behind", func(t *testing.T) {
		rec := post(map[string]string{"companyId": acme.ID, "surveyId": survey.ID, "type": "radio"}, true)
		assertError(t, rec, http.StatusBadRequest, "text is required")

		rec = post(map[string]string{"companyId": acme.ID, "surveyId": survey.ID, "text": "Q", "type": "dropdown"}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = send(http.MethodPut, "/api/questions/"+model.NewID(), map[string]string{"text": "Q"}, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		assert.Empty(t, storedImages(t))
	})

	fields := map[string]string{
		"companyId": acme.ID,
		"surveyId":  survey.ID,
		"text":      "Which network do you use?",
		"type":      "radio",
	}

	rec := post(fields, true)
	requireStatus(t, rec, http.StatusCreated)
	q := decode[model.Question](t, rec)
	assert.True(t, strings.HasPrefix(q.Image, "/uploads/questions/"), q.Image)
	assert.True(t, strings.HasSuffix(q.Image, ".png"), q.Image)

	stored, err := os.ReadFile(filepath.Join(h.app.UploadDir, "questions", filepath.Base(q.Image)))
	require.NoError(t, err)
	assert.Equal(t, "not really a png", string(stored))
	assert.Equal(t, []string{filepath.Base(q.Image)}, storedImages(t))

	rec = send(http.MethodPut, "/api/questions/"+q.ID, map[string]string{"details": "updated"}, true)
	requireStatus(t, rec, http.StatusOK)
	updated := decode[model.Question](t, rec)
	assert.NotEqual(t, q.Image, updated.Image)
	assert.Equal(t, "updated", updated.Details)
	assert.Len(t, storedImages(t), 2)

	for _, prefix := range []string{"", "/api"} {
		rec = h.public(http.MethodGet, prefix+q.Image, nil)
		requireStatus(t, rec, http.StatusOK)
		assert.Equal(t, "not really a png", rec.Body.String())
	}

	fields["color"] = "blue"
	assert.Equal(t, http.StatusBadRequest, post(fields, false).Code)
}
