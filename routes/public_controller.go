package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/database"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
	"github.com/mbolis/launchalot/model"
)

// findPublicSurvey resolves key as a survey id first, then as a public token.
func findPublicSurvey(ctx context.Context, store database.Store, key string) (model.Survey, error) {
	if model.IsValidID(key) {
		survey, err := store.GetSurvey(ctx, key)
		if !errors.Is(err, database.ErrNotFound) {
			return survey, err
		}
	}
	return store.GetSurveyByToken(ctx, key)
}

func surveyNotFound(w http.ResponseWriter, r *http.Request, code, key string) {
	httpx.LogStatusMsg(w, r, http.StatusNotFound, log.DebugLevel, code, "Survey not found")
	log.Debugf("%s: key %q", code, key)
}

type publicOption struct {
	ID   string     `json:"id"`
	Text string     `json:"text"`
	Risk model.Risk `json:"risk,omitempty"`
}

type publicQuestion struct {
	ID      string             `json:"id"`
	Text    string             `json:"text"`
	Image   string             `json:"image,omitempty"`
	Details string             `json:"details,omitempty"`
	Type    model.QuestionType `json:"type"`
	Options []publicOption     `json:"options"`
}

type publicSegment struct {
	Title     string           `json:"title"`
	Questions []publicQuestion `json:"questions"`
}

type publicSurvey struct {
	CompanyName  string          `json:"companyName"`
	CompanyLogo  string          `json:"companyLogo,omitempty"`
	CompanyLogos []string        `json:"companyLogos"`
	SurveyName   string          `json:"surveyName"`
	Segments     []publicSegment `json:"segments"`
}

// PublicGetSurvey presents a survey to respondents, its questions grouped by segment.
func PublicGetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := chi.URLParam(r, "key")

		survey, err := findPublicSurvey(ctx, app, key)
		if errors.Is(err, database.ErrNotFound) {
			surveyNotFound(w, r, "public.get_survey", key)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.public.get_survey", err)
			return
		}

		var company model.Company
		if survey.CompanyID != "" {
			company, err = app.GetCompany(ctx, survey.CompanyID)
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				httpx.LogInternalError(w, r, "db.public.get_company", err)
				return
			}
		}

		questions, err := app.ListQuestions(ctx, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.public.list_questions", err)
			return
		}
		optionsByQuestion, err := loadOptions(ctx, app, questions)
		if err != nil {
			httpx.LogInternalError(w, r, "db.public.list_options", err)
			return
		}

		logos := company.Logos()
		view := publicSurvey{
			CompanyName:  company.Name,
			CompanyLogos: logos,
			SurveyName:   survey.Name,
			Segments:     buildSegments(questions, optionsByQuestion),
		}
		if len(logos) > 0 {
			view.CompanyLogo = logos[0]
		}
		render.JSON(w, r, view)
	}
}

func loadOptions(ctx context.Context, store database.Store, questions []model.Question) (map[string][]model.Option, error) {
	byQuestion := map[string][]model.Option{}
	if len(questions) == 0 {
		return byQuestion, nil
	}

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	options, err := store.ListOptions(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, o := range options {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	return byQuestion, nil
}

// buildSegments groups questions by segment number, in ascending order.
// A segment takes its title from its first question.
func buildSegments(questions []model.Question, optionsByQuestion map[string][]model.Option) []publicSegment {
	var numbers []int
	segments := map[int]*publicSegment{}

	for _, q := range questions {
		n := q.SegmentNumber()
		seg, ok := segments[n]
		if !ok {
			title := strings.TrimSpace(q.SegmentTitle)
			if title == "" {
				title = fmt.Sprintf("Segment %d", n)
			}
			seg = &publicSegment{Title: title, Questions: []publicQuestion{}}
			segments[n] = seg
			numbers = append(numbers, n)
		}

		options := []publicOption{}
		for _, o := range optionsByQuestion[q.ID] {
			options = append(options, publicOption{ID: o.ID, Text: o.Text, Risk: o.Risk})
		}
		seg.Questions = append(seg.Questions, publicQuestion{
			ID:      q.ID,
			Text:    q.Text,
			Image:   q.Image,
			Details: q.Details,
			Type:    model.ParseQuestionType(string(q.Type)),
			Options: options,
		})
	}

	sort.Ints(numbers)
	out := make([]publicSegment, len(numbers))
	for i, n := range numbers {
		out[i] = *segments[n]
	}
	return out
}

type submitRequest struct {
	Answers map[string]json.RawMessage `json:"answers"`
}

type unresolvedAnswer struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
	Reason     string `json:"reason"`
}

const (
	reasonUnknownQuestion = "unknown question"
	reasonNoMatch         = "no matching option"
)

type resolvedCounts struct {
	ByID   int `json:"by_id"`
	ByText int `json:"by_text"`
}

type submitResponse struct {
	OK         bool               `json:"ok"`
	ID         string             `json:"id"`
	Resolved   resolvedCounts     `json:"resolved"`
	Unresolved []unresolvedAnswer `json:"unresolved"`
}

// PublicSubmitSurvey records one response. Every answer value is matched against the
// options of its question, by option id or by option text; the rest is reported back.
func PublicSubmitSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := chi.URLParam(r, "key")

		survey, err := findPublicSurvey(ctx, app, key)
		if errors.Is(err, database.ErrNotFound) {
			surveyNotFound(w, r, "public.submit", key)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.public.submit.get_survey", err)
			return
		}

		var req submitRequest
		if err = httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "request.submit", err)
			return
		}
		if req.Answers == nil {
			badRequest(w, r, "request.submit", errors.New("answers is required"))
			return
		}

		questions, err := app.ListQuestions(ctx, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.public.submit.list_questions", err)
			return
		}
		optionsByQuestion, err := loadOptions(ctx, app, questions)
		if err != nil {
			httpx.LogInternalError(w, r, "db.public.submit.list_options", err)
			return
		}

		res := resolveAnswers(questions, optionsByQuestion, req.Answers)
		response := model.Response{SurveyID: survey.ID, Choices: res.choices}
		err = app.SubmitResponse(ctx, &response)
		if errors.Is(err, database.ErrNotFound) {
			surveyNotFound(w, r, "public.submit", key)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.public.submit", err)
			return
		}

		app.Metrics.RecordSubmission(res.counts.ByID, res.counts.ByText, len(res.unresolved))
		render.JSON(w, r, submitResponse{
			OK:         true,
			ID:         response.ID,
			Resolved:   res.counts,
			Unresolved: res.unresolved,
		})
	}
}

type resolution struct {
	choices    []model.Choice
	counts     resolvedCounts
	unresolved []unresolvedAnswer
}

// resolveAnswers keeps one choice per known question, in survey order.
// Answers to unknown questions come last, sorted by question id.
func resolveAnswers(questions []model.Question, optionsByQuestion map[string][]model.Option, answers map[string]json.RawMessage) resolution {
	res := resolution{choices: []model.Choice{}, unresolved: []unresolvedAnswer{}}

	known := map[string]bool{}
	for _, q := range questions {
		known[q.ID] = true
		raw, ok := answers[q.ID]
		if !ok {
			continue
		}

		choice := model.Choice{QuestionID: q.ID, OptionIDs: []string{}}
		for _, value := range answerValues(raw) {
			cleaned := cleanAnswer(value)
			if cleaned == "" {
				continue
			}
			optionID, byID := matchOption(optionsByQuestion[q.ID], cleaned)
			switch {
			case optionID == "":
				res.unresolved = append(res.unresolved, unresolvedAnswer{q.ID, cleaned, reasonNoMatch})
				continue
			case byID:
				res.counts.ByID++
			default:
				res.counts.ByText++
			}
			choice.OptionIDs = append(choice.OptionIDs, optionID)
		}
		res.choices = append(res.choices, choice)
	}

	var unknown []string
	for qid := range answers {
		if !known[qid] {
			unknown = append(unknown, qid)
		}
	}
	sort.Strings(unknown)
	for _, qid := range unknown {
		values := answerValues(answers[qid])
		if len(values) == 0 {
			values = []string{""}
		}
		for _, value := range values {
			res.unresolved = append(res.unresolved, unresolvedAnswer{qid, cleanAnswer(value), reasonUnknownQuestion})
		}
	}
	return res
}

// matchOption finds the option a cleaned answer refers to: by id first, then by exact text.
func matchOption(options []model.Option, cleaned string) (optionID string, byID bool) {
	if model.IsValidID(cleaned) {
		for _, o := range options {
			if o.ID == cleaned {
				return o.ID, true
			}
		}
	}
	for _, o := range options {
		if strings.TrimSpace(o.Text) == cleaned {
			return o.ID, false
		}
	}
	return "", false
}

// answerValues accepts a string or an array. Any other value, and array items
// that are not strings, keep their JSON text.
func answerValues(raw json.RawMessage) []string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}

	var many []json.RawMessage
	if err := json.Unmarshal(raw, &many); err != nil {
		return []string{trimmed}
	}
	values := make([]string, 0, len(many))
	for _, item := range many {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			values = append(values, s)
		} else {
			values = append(values, string(item))
		}
	}
	return values
}

var (
	reLeadingBracket  = regexp.MustCompile(`^\s*\[`)
	reTrailingBracket = regexp.MustCompile(`\]\s*$`)
	reQuotes          = regexp.MustCompile(`^['"]+|['"]+$`)
)

// cleanAnswer strips the brackets and quotes that clients leave around serialized values.
func cleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	s = reLeadingBracket.ReplaceAllString(s, "")
	s = reTrailingBracket.ReplaceAllString(s, "")
	s = reQuotes.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
