package routes

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
	"github.com/mbolis/launchalot/model"
)

const (
	questionImageDir  = "questions"
	maxMultipartInMem = 8 << 20
)

type questionRequest struct {
	CompanyID    *string `json:"companyId" validate:"omitempty,objectid"`
	SurveyID     *string `json:"surveyId" validate:"omitempty,objectid"`
	Segment      *string `json:"segment"`
	SegmentTitle *string `json:"segmentTitle"`
	Text         *string `json:"text"`
	Details      *string `json:"details"`
	Type         *string `json:"type" validate:"omitempty,oneof=radio checkbox text"`
	Image        *string `json:"image"`
}

// fields maps form field names onto the request, for multipart bodies.
func (req *questionRequest) fields() map[string]**string {
	return map[string]**string{
		"companyId":    &req.CompanyID,
		"surveyId":     &req.SurveyID,
		"segment":      &req.Segment,
		"segmentTitle": &req.SegmentTitle,
		"text":         &req.Text,
		"details":      &req.Details,
		"type":         &req.Type,
		"image":        &req.Image,
	}
}

// decodeQuestion reads a question from a JSON or multipart body. A multipart
// "image" file is returned as is: storeImage writes it once the request is accepted.
func decodeQuestion(r *http.Request) (req questionRequest, image *multipart.FileHeader, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err = httpx.DecodeJSON(r, &req)
		return
	}

	if err = r.ParseMultipartForm(maxMultipartInMem); err != nil {
		return req, nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	fields := req.fields()
	for name, values := range r.MultipartForm.Value {
		dst, ok := fields[name]
		if !ok {
			return req, nil, fmt.Errorf("unknown field %q", name)
		}
		if len(values) > 0 {
			v := values[0]
			*dst = &v
		}
	}
	for name := range r.MultipartForm.File {
		if name != "image" {
			return req, nil, fmt.Errorf("unknown file field %q", name)
		}
	}
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		image = files[0]
	}

	err = httpx.Validate(&req)
	return
}

func removeMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}

// storeImage saves fh, when present, and points req.Image at it.
// Calling discard deletes the file again.
func storeImage(uploadDir string, req *questionRequest, fh *multipart.FileHeader) (discard func(), err error) {
	discard = func() {}
	if fh == nil {
		return discard, nil
	}
	name, err := saveQuestionImage(uploadDir, fh)
	if err != nil {
		return discard, err
	}
	ref := path.Join("/uploads", questionImageDir, name)
	req.Image = &ref

	return func() {
		if err := os.Remove(filepath.Join(uploadDir, questionImageDir, name)); err != nil {
			log.Warnf("upload.discard: %s", err)
		}
	}, nil
}

func saveQuestionImage(uploadDir string, fh *multipart.FileHeader) (name string, err error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := filepath.Join(uploadDir, questionImageDir)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name = uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return name, nil
}

func ListQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := app.ListQuestions(r.Context(), r.URL.Query().Get("surveyId"))
		if err != nil {
			httpx.LogInternalError(w, r, "db.list_questions", err)
			return
		}
		render.JSON(w, r, orEmpty(questions))
	}
}

func GetQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		question, err := app.GetQuestion(r.Context(), id)
		if err != nil {
			storeError(w, r, "db.get_question", id, err)
			return
		}
		render.JSON(w, r, question)
	}
}

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, image, err := decodeQuestion(r)
		defer removeMultipart(r)
		if err != nil {
			badRequest(w, r, "request.create_question", err)
			return
		}
		for _, f := range []struct {
			name string
			v    *string
		}{
			{"companyId", req.CompanyID},
			{"surveyId", req.SurveyID},
			{"text", req.Text},
			{"type", req.Type},
		} {
			if err = requireText(f.name, f.v); err != nil {
				badRequest(w, r, "request.create_question", err)
				return
			}
		}

		discard, err := storeImage(app.UploadDir, &req, image)
		if err != nil {
			httpx.LogInternalError(w, r, "upload.create_question", err)
			return
		}
		question := model.Question{Type: model.ParseQuestionType(*req.Type)}
		req.apply(&question)

		if err = app.CreateQuestion(r.Context(), &question); err != nil {
			discard()
			httpx.LogInternalError(w, r, "db.create_question", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, question)
	}
}

// UpdateQuestion changes the fields present in the body. The type of a question never changes.
func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		req, image, err := decodeQuestion(r)
		defer removeMultipart(r)
		if err != nil {
			badRequest(w, r, "request.update_question", err)
			return
		}
		if req.Text != nil {
			if err = requireText("text", req.Text); err != nil {
				badRequest(w, r, "request.update_question", err)
				return
			}
		}

		question, err := app.GetQuestion(r.Context(), id)
		if err != nil {
			storeError(w, r, "db.update_question.get", id, err)
			return
		}
		discard, err := storeImage(app.UploadDir, &req, image)
		if err != nil {
			httpx.LogInternalError(w, r, "upload.update_question", err)
			return
		}
		req.apply(&question)

		if err = app.UpdateQuestion(r.Context(), &question); err != nil {
			discard()
			storeError(w, r, "db.update_question", id, err)
			return
		}
		render.JSON(w, r, question)
	}
}

func (req questionRequest) apply(q *model.Question) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&q.CompanyID, req.CompanyID)
	set(&q.SurveyID, req.SurveyID)
	set(&q.Segment, req.Segment)
	set(&q.SegmentTitle, req.SegmentTitle)
	set(&q.Text, req.Text)
	set(&q.Details, req.Details)
	set(&q.Image, req.Image)
}

// DeleteQuestion removes the question together with its options.
func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := app.DeleteQuestion(r.Context(), id)
		if err != nil {
			storeError(w, r, "db.delete_question", id, err)
			return
		}
		render.JSON(w, r, okResponse{OK: true})
	}
}
