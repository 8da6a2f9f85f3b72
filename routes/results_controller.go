package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/database"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
	"github.com/mbolis/launchalot/model"
)

type optionResult struct {
	OptionID string  `json:"optionId"`
	Count    int64   `json:"count"`
	Pct      float64 `json:"pct"`
}

type resultsResponse struct {
	Total      int64                     `json:"total"`
	ByQuestion map[string][]optionResult `json:"byQuestion"`
}

// GetResults counts how often each option was chosen. Percentages are relative
// to the survey's submission counter.
func GetResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID := r.URL.Query().Get("surveyId")
		if !model.IsValidID(surveyID) {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.results", "surveyId required")
			return
		}

		var total int64
		survey, err := app.GetSurvey(r.Context(), surveyID)
		switch {
		case err == nil:
			total = survey.TotalCount
		case !errors.Is(err, database.ErrNotFound):
			httpx.LogInternalError(w, r, "db.results.get_survey", err)
			return
		}

		counts, err := app.CountOptionChoices(r.Context(), surveyID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.results.count", err)
			return
		}

		res := resultsResponse{Total: total, ByQuestion: map[string][]optionResult{}}
		for _, c := range counts {
			res.ByQuestion[c.QuestionID] = append(res.ByQuestion[c.QuestionID], optionResult{
				OptionID: c.OptionID,
				Count:    c.Count,
				Pct:      model.Percent(c.Count, total),
			})
		}
		render.JSON(w, r, res)
	}
}
