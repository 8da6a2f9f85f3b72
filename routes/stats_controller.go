package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/model"
)

const topSurveysLimit = 5

type statsCards struct {
	Companies       int64 `json:"companies"`
	SurveysTotal    int64 `json:"surveysTotal"`
	SurveysActive   int64 `json:"surveysActive"`
	SurveysInactive int64 `json:"surveysInactive"`
	Questions       int64 `json:"questions"`
	Options         int64 `json:"options"`
	Results         int64 `json:"results"`
	Pending         int64 `json:"pending"`
}

type statsSummary struct {
	CompaniesCount int64                     `json:"companiesCount"`
	QuestionsCount int64                     `json:"questionsCount"`
	ResultsCount   int64                     `json:"resultsCount"`
	PendingCount   int64                     `json:"pendingCount"`
	Cards          statsCards                `json:"cards"`
	Last7          []model.DailyCount        `json:"last7"`
	TopSurveys     []model.SurveySubmissions `json:"topSurveys"`
}

// sinceLastWeek is UTC midnight six days before now, so that today counts as the seventh day.
func sinceLastWeek(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -6)
}

func GetStatsSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		counts, err := app.Counts(ctx)
		if err != nil {
			httpx.LogInternalError(w, r, "db.stats.counts", err)
			return
		}
		last7, err := app.DailySubmissions(ctx, sinceLastWeek(time.Now()))
		if err != nil {
			httpx.LogInternalError(w, r, "db.stats.daily", err)
			return
		}
		top, err := app.TopSurveys(ctx, topSurveysLimit)
		if err != nil {
			httpx.LogInternalError(w, r, "db.stats.top_surveys", err)
			return
		}

		results := counts.Responses
		if counts.TotalCountSum != nil {
			results = *counts.TotalCountSum
		}

		render.JSON(w, r, statsSummary{
			CompaniesCount: counts.Companies,
			QuestionsCount: counts.Questions,
			ResultsCount:   results,
			PendingCount:   counts.Pending,
			Cards: statsCards{
				Companies:       counts.Companies,
				SurveysTotal:    counts.SurveysTotal,
				SurveysActive:   counts.SurveysActive,
				SurveysInactive: counts.SurveysInactive,
				Questions:       counts.Questions,
				Options:         counts.Options,
				Results:         results,
				Pending:         counts.Pending,
			},
			Last7:      orEmpty(last7),
			TopSurveys: orEmpty(top),
		})
	}
}
