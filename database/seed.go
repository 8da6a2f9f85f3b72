package database

import (
	"context"

	"github.com/mbolis/launchalot/log"
	"github.com/mbolis/launchalot/model"
)

// Seed fills an empty store with sample companies, surveys and a question.
// It does nothing when at least one company exists.
func Seed(ctx context.Context, s Store) error {
	existing, err := s.ListCompanies(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("db.seed: store not empty, skipping")
		return nil
	}

	companies := []*model.Company{
		{Name: "new"},
		{Name: "Internet Explorer Team"},
		{Name: "Dexbit"},
	}
	for _, c := range companies {
		if err = s.CreateCompany(ctx, c); err != nil {
			return err
		}
	}

	surveys := []*model.Survey{
		{CompanyID: companies[0].ID, Name: "aeda", Status: model.StatusActive},
		{CompanyID: companies[1].ID, Name: "Internet Explorer Test", Status: model.StatusActive},
	}
	for _, sv := range surveys {
		if err = s.CreateSurvey(ctx, sv); err != nil {
			return err
		}
	}

	q := &model.Question{
		CompanyID:    companies[1].ID,
		SurveyID:     surveys[1].ID,
		Segment:      "Segment: 1",
		SegmentTitle: "Test 1",
		Text:         "How often do you use Internet Explorer?",
		Details:      "We want to understand how frequently Internet Explorer is used compared to other browsers.",
		Type:         model.TypeRadio,
	}
	if err = s.CreateQuestion(ctx, q); err != nil {
		return err
	}

	for _, o := range []struct{ text, risk string }{
		{"Daily", "Green"},
		{"Weekly", "Amber"},
		{"Rarely", "Red"},
	} {
		err = s.CreateOption(ctx, &model.Option{QuestionID: q.ID, Text: o.text, Risk: model.NormalizeRisk(o.risk)})
		if err != nil {
			return err
		}
	}

	log.Info("db.seed: seeded sample data")
	return nil
}
