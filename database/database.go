package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mbolis/launchalot/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Store is the document store behind every router.
// Identifiers are hex ObjectIDs; an id that is not valid behaves like a missing document.
type Store interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	GetCompany(ctx context.Context, id string) (model.Company, error)
	CreateCompany(ctx context.Context, c *model.Company) error
	UpdateCompany(ctx context.Context, c *model.Company) error
	DeleteCompany(ctx context.Context, id string) error

	// ListSurveys filters by company when companyID is not empty.
	ListSurveys(ctx context.Context, companyID string) ([]model.Survey, error)
	GetSurvey(ctx context.Context, id string) (model.Survey, error)
	GetSurveyByToken(ctx context.Context, token string) (model.Survey, error)
	CreateSurvey(ctx context.Context, s *model.Survey) error
	// UpdateSurvey writes the editable fields only: company, name and status.
	UpdateSurvey(ctx context.Context, s *model.Survey) error
	DeleteSurvey(ctx context.Context, id string) error
	// EnsurePublicToken stores token unless the survey already has one,
	// and returns the token the survey ends up with.
	EnsurePublicToken(ctx context.Context, id, token string) (string, error)

	// ListQuestions filters by survey when surveyID is not empty.
	ListQuestions(ctx context.Context, surveyID string) ([]model.Question, error)
	GetQuestion(ctx context.Context, id string) (model.Question, error)
	CreateQuestion(ctx context.Context, q *model.Question) error
	// UpdateQuestion never changes the question type.
	UpdateQuestion(ctx context.Context, q *model.Question) error
	// DeleteQuestion removes the question and all of its options.
	DeleteQuestion(ctx context.Context, id string) error

	// ListOptions filters by question when questionIDs is not empty.
	ListOptions(ctx context.Context, questionIDs ...string) ([]model.Option, error)
	CreateOption(ctx context.Context, o *model.Option) error
	DeleteOption(ctx context.Context, id string) error

	// SubmitResponse stores the response and increments the survey counter.
	SubmitResponse(ctx context.Context, r *model.Response) error
	CountOptionChoices(ctx context.Context, surveyID string) ([]model.OptionCount, error)
	DailySubmissions(ctx context.Context, since time.Time) ([]model.DailyCount, error)
	TopSurveys(ctx context.Context, limit int) ([]model.SurveySubmissions, error)
	Counts(ctx context.Context) (model.Counts, error)

	GetUIConfig(ctx context.Context, page string) (model.UIConfig, error)
	CreateUIConfig(ctx context.Context, c *model.UIConfig) error
	UpsertUIConfig(ctx context.Context, c *model.UIConfig) error

	GetThankYouConfig(ctx context.Context, page string) (model.ThankYouConfig, error)
	UpsertThankYouConfig(ctx context.Context, c *model.ThankYouConfig) error
	DeleteThankYouConfig(ctx context.Context, page string) (model.ThankYouConfig, error)

	Close() error
}

// Open connects to MongoDB for mongodb:// URLs, and opens a SQLite3 file otherwise.
func Open(ctx context.Context, url string) (Store, error) {
	if strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://") {
		return OpenMongo(ctx, url)
	}
	return OpenSQLite(url)
}

func now() time.Time {
	return time.Now().UTC()
}
