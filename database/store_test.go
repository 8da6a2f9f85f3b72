package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mbolis/launchalot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.sqlite"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateCompany(ctx, &model.Company{Name: "Acme"}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	companies, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
}

// LAUNCHALOT_TEST_MONGO_URL must be a server URL without database, e.g. mongodb://localhost:27017
func TestMongoStore(t *testing.T) {
	url := os.Getenv("LAUNCHALOT_TEST_MONGO_URL")
	if url == "" {
		t.Skip("LAUNCHALOT_TEST_MONGO_URL not set")
	}
	testStore(t, func(t *testing.T) Store {
		ctx := context.Background()
		dbName := "launchalot_test_" + model.NewID()
		s, err := OpenMongo(ctx, strings.TrimRight(url, "/")+"/"+dbName)
		require.NoError(t, err)
		t.Cleanup(func() {
			s.(*mongoStore).client.Database(dbName).Drop(ctx)
			s.Close()
		})
		return s
	})
}

func testStore(t *testing.T, open func(t *testing.T) Store) {
	t.Run("companies", func(t *testing.T) { testCompanies(t, open(t)) })
	t.Run("surveys", func(t *testing.T) { testSurveys(t, open(t)) })
	t.Run("questions", func(t *testing.T) { testQuestions(t, open(t)) })
	t.Run("responses", func(t *testing.T) { testResponses(t, open(t)) })
	t.Run("page configs", func(t *testing.T) { testPageConfigs(t, open(t)) })
	t.Run("seed", func(t *testing.T) { testSeed(t, open(t)) })
}

func testCompanies(t *testing.T, s Store) {
	ctx := context.Background()

	first := &model.Company{Name: "First", LogoURL: "/a.png", LogoURLs: []string{"/a.png", "/b.png"}}
	require.NoError(t, s.CreateCompany(ctx, first))
	assert.True(t, model.IsValidID(first.ID))
	assert.False(t, first.CreatedAt.IsZero())

	second := &model.Company{Name: "Second"}
	require.NoError(t, s.CreateCompany(ctx, second))

	list, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Name)
	assert.Equal(t, []string{"/a.png", "/b.png"}, list[0].LogoURLs)
	assert.Equal(t, []string{}, list[1].LogoURLs)

	second.Name = "Renamed"
	second.LogoURLs = []string{"/c.png"}
	second.LogoURL = "/c.png"
	require.NoError(t, s.UpdateCompany(ctx, second))

	got, err := s.GetCompany(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "/c.png", got.LogoURL)

	err = s.UpdateCompany(ctx, &model.Company{ID: model.NewID(), Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteCompany(ctx, first.ID))
	require.NoError(t, s.DeleteCompany(ctx, first.ID))
	_, err = s.GetCompany(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetCompany(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testSurveys(t *testing.T, s Store) {
	ctx := context.Background()
	companyA, companyB := model.NewID(), model.NewID()

	a := &model.Survey{CompanyID: companyA, Name: "A"}
	require.NoError(t, s.CreateSurvey(ctx, a))
	assert.Equal(t, model.StatusActive, a.Status)

	b := &model.Survey{CompanyID: companyB, Name: "B", Status: model.StatusInactive}
	require.NoError(t, s.CreateSurvey(ctx, b))

	all, err := s.ListSurveys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := s.ListSurveys(ctx, companyB)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "B", filtered[0].Name)

	token, err := s.EnsurePublicToken(ctx, a.ID, "tok123456789")
	require.NoError(t, err)
	assert.Equal(t, "tok123456789", token)
	token, err = s.EnsurePublicToken(ctx, a.ID, "otherToken00")
	require.NoError(t, err)
	assert.Equal(t, "tok123456789", token)

	byToken, err := s.GetSurveyByToken(ctx, "tok123456789")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byToken.ID)
	_, err = s.GetSurveyByToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetSurveyByToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.EnsurePublicToken(ctx, model.NewID(), "tok")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SubmitResponse(ctx, &model.Response{SurveyID: a.ID}))
	a.Name = "A2"
	a.Status = model.StatusInactive
	a.TotalCount = 0
	require.NoError(t, s.UpdateSurvey(ctx, a))
	got, err := s.GetSurvey(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)
	assert.Equal(t, model.StatusInactive, got.Status)
	assert.EqualValues(t, 1, got.TotalCount)
	assert.Equal(t, "tok123456789", got.PublicToken)

	q := &model.Question{CompanyID: companyA, SurveyID: a.ID, Text: "kept?", Type: model.TypeRadio}
	require.NoError(t, s.CreateQuestion(ctx, q))

	require.NoError(t, s.DeleteSurvey(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteSurvey(ctx, a.ID), ErrNotFound)
	_, err = s.GetSurvey(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// no cascade from surveys to questions
	_, err = s.GetQuestion(ctx, q.ID)
	assert.NoError(t, err)
}

func testQuestions(t *testing.T, s Store) {
	ctx := context.Background()
	surveyID := model.NewID()

	q1 := &model.Question{
		CompanyID:    model.NewID(),
		SurveyID:     surveyID,
		Segment:      "Segment: 2",
		SegmentTitle: "Second",
		Text:         "Q1",
		Type:         model.TypeCheckbox,
	}
	require.NoError(t, s.CreateQuestion(ctx, q1))
	q2 := &model.Question{CompanyID: q1.CompanyID, SurveyID: surveyID, Text: "Q2", Type: model.TypeText}
	require.NoError(t, s.CreateQuestion(ctx, q2))
	other := &model.Question{CompanyID: q1.CompanyID, SurveyID: model.NewID(), Text: "other", Type: model.TypeRadio}
	require.NoError(t, s.CreateQuestion(ctx, other))

	list, err := s.ListQuestions(ctx, surveyID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Q1", list[0].Text)
	assert.Equal(t, "Q2", list[1].Text)

	all, err := s.ListQuestions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	q1.Text = "Q1 edited"
	q1.Type = model.TypeRadio
	q1.Image = "/uploads/questions/x.png"
	require.NoError(t, s.UpdateQuestion(ctx, q1))
	got, err := s.GetQuestion(ctx, q1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1 edited", got.Text)
	assert.Equal(t, model.TypeCheckbox, got.Type)
	assert.Equal(t, "/uploads/questions/x.png", got.Image)
	assert.Equal(t, "Second", got.SegmentTitle)

	for _, text := range []string{"a", "b"} {
		require.NoError(t, s.CreateOption(ctx, &model.Option{QuestionID: q1.ID, Text: text, Risk: model.RiskRed}))
	}
	keep := &model.Option{QuestionID: q2.ID, Text: "c", Risk: model.RiskGreen}
	require.NoError(t, s.CreateOption(ctx, keep))

	opts, err := s.ListOptions(ctx, q1.ID)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "a", opts[0].Text)
	assert.Equal(t, model.RiskRed, opts[0].Risk)

	opts, err = s.ListOptions(ctx, q1.ID, q2.ID)
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	opts, err = s.ListOptions(ctx)
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	require.NoError(t, s.DeleteQuestion(ctx, q1.ID))
	assert.ErrorIs(t, s.DeleteQuestion(ctx, q1.ID), ErrNotFound)

	opts, err = s.ListOptions(ctx)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, keep.ID, opts[0].ID)

	require.NoError(t, s.DeleteOption(ctx, keep.ID))
	require.NoError(t, s.DeleteOption(ctx, keep.ID))
	opts, err = s.ListOptions(ctx, q2.ID)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func testResponses(t *testing.T, s Store) {
	ctx := context.Background()

	busy := &model.Survey{CompanyID: model.NewID(), Name: "busy"}
	require.NoError(t, s.CreateSurvey(ctx, busy))
	quiet := &model.Survey{CompanyID: model.NewID(), Name: "quiet"}
	require.NoError(t, s.CreateSurvey(ctx, quiet))

	qid, o1, o2 := model.NewID(), model.NewID(), model.NewID()
	textQ := model.NewID()
	submissions := [][]string{{o1}, {o1, o2}, {o2}}
	for _, optionIDs := range submissions {
		r := &model.Response{
			SurveyID: busy.ID,
			Choices: []model.Choice{
				{QuestionID: qid, OptionIDs: optionIDs},
				{QuestionID: textQ, OptionIDs: []string{}},
			},
		}
		require.NoError(t, s.SubmitResponse(ctx, r))
		assert.True(t, model.IsValidID(r.ID))
	}
	require.NoError(t, s.SubmitResponse(ctx, &model.Response{SurveyID: quiet.ID}))

	err := s.SubmitResponse(ctx, &model.Response{SurveyID: model.NewID()})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetSurvey(ctx, busy.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.TotalCount)

	counts, err := s.CountOptionChoices(ctx, busy.ID)
	require.NoError(t, err)
	byOption := map[string]int64{}
	for _, c := range counts {
		assert.Equal(t, qid, c.QuestionID)
		byOption[c.OptionID] = c.Count
	}
	assert.Equal(t, map[string]int64{o1: 2, o2: 2}, byOption)

	days, err := s.DailySubmissions(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	var total int64
	for _, d := range days {
		assert.Len(t, d.Day, 10)
		total += d.Count
	}
	assert.EqualValues(t, 4, total)

	days, err = s.DailySubmissions(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, days)

	top, err := s.TopSurveys(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, model.SurveySubmissions{SurveyID: busy.ID, Name: "busy", Submissions: 3}, top[0])
	assert.Equal(t, "quiet", top[1].Name)

	require.NoError(t, s.DeleteSurvey(ctx, quiet.ID))
	top, err = s.TopSurveys(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	top, err = s.TopSurveys(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "(unknown)", top[1].Name)

	pending := &model.Survey{CompanyID: model.NewID(), Name: "pending"}
	require.NoError(t, s.CreateSurvey(ctx, pending))

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.SurveysTotal)
	assert.EqualValues(t, 2, c.SurveysActive)
	assert.EqualValues(t, 0, c.SurveysInactive)
	assert.EqualValues(t, 4, c.Responses)
	require.NotNil(t, c.TotalCountSum)
	assert.EqualValues(t, 3, *c.TotalCountSum)
	assert.EqualValues(t, 1, c.Pending)
}

func testPageConfigs(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.GetUIConfig(ctx, "home")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.CreateUIConfig(ctx, &model.UIConfig{Page: "home", Config: map[string]any{"title": "Hi"}}))
	err = s.CreateUIConfig(ctx, &model.UIConfig{Page: "home", Config: map[string]any{"title": "Again"}})
	assert.ErrorIs(t, err, ErrConflict)

	upserted := &model.UIConfig{Page: "home", Config: map[string]any{"title": "Bye", "dark": true}}
	require.NoError(t, s.UpsertUIConfig(ctx, upserted))
	assert.False(t, upserted.CreatedAt.IsZero())

	got, err := s.GetUIConfig(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "Bye", got.Config["title"])
	assert.Equal(t, true, got.Config["dark"])

	require.NoError(t, s.UpsertUIConfig(ctx, &model.UIConfig{Page: "other", Config: map[string]any{"a": "b"}}))

	_, err = s.GetThankYouConfig(ctx, "done")
	assert.ErrorIs(t, err, ErrNotFound)

	ty := &model.ThankYouConfig{Page: "done", Image: "/i.png", Heading: "Thanks", Text: "See you"}
	require.NoError(t, s.UpsertThankYouConfig(ctx, ty))
	ty = &model.ThankYouConfig{Page: "done", Image: "/j.png", Heading: "Thanks!", Text: "Bye"}
	require.NoError(t, s.UpsertThankYouConfig(ctx, ty))
	assert.Equal(t, "/j.png", ty.Image)

	got2, err := s.GetThankYouConfig(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, "Thanks!", got2.Heading)

	deleted, err := s.DeleteThankYouConfig(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, "Bye", deleted.Text)
	_, err = s.DeleteThankYouConfig(ctx, "done")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testSeed(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, Seed(ctx, s))
	require.NoError(t, Seed(ctx, s))

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, c.Companies)
	assert.EqualValues(t, 2, c.SurveysTotal)
	assert.EqualValues(t, 1, c.Questions)
	assert.EqualValues(t, 3, c.Options)
}
