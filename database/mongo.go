package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/launchalot/log"
	"github.com/mbolis/launchalot/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const defaultMongoDatabase = "launchalot"

type mongoStore struct {
	client *mongo.Client

	companies       *mongo.Collection
	surveys         *mongo.Collection
	questions       *mongo.Collection
	options         *mongo.Collection
	responses       *mongo.Collection
	uiConfigs       *mongo.Collection
	thankYouConfigs *mongo.Collection
}

// OpenMongo connects to the database named in the URL path ("launchalot" when absent).
func OpenMongo(ctx context.Context, url string) (Store, error) {
	cs, err := connstring.ParseAndValidate(url)
	if err != nil {
		return nil, err
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(dbName)
	s := &mongoStore{
		client:          client,
		companies:       db.Collection("companies"),
		surveys:         db.Collection("surveys"),
		questions:       db.Collection("questions"),
		options:         db.Collection("options"),
		responses:       db.Collection("responses"),
		uiConfigs:       db.Collection("uiconfigs"),
		thankYouConfigs: db.Collection("thankyouconfigs"),
	}

	if err = s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	log.Infof("db.mongo: connected to database %q", dbName)
	return s, nil
}

func (s *mongoStore) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.surveys, mongo.IndexModel{Keys: bson.D{{Key: "publicToken", Value: 1}}}},
		{s.surveys, mongo.IndexModel{Keys: bson.D{{Key: "companyId", Value: 1}}}},
		{s.questions, mongo.IndexModel{Keys: bson.D{{Key: "surveyId", Value: 1}}}},
		{s.options, mongo.IndexModel{Keys: bson.D{{Key: "questionId", Value: 1}}}},
		{s.responses, mongo.IndexModel{Keys: bson.D{{Key: "surveyId", Value: 1}}}},
		{s.uiConfigs, mongo.IndexModel{Keys: bson.D{{Key: "page", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.thankYouConfigs, mongo.IndexModel{Keys: bson.D{{Key: "page", Value: 1}}, Options: options.Index().SetUnique(true)}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("index %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *mongoStore) Close() error {
	var errs *multierror.Error
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// documents

type companyDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	LogoURL   string             `bson:"logoUrl,omitempty"`
	LogoURLs  []string           `bson:"logoUrls"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d companyDoc) model() model.Company {
	logos := d.LogoURLs
	if logos == nil {
		logos = []string{}
	}
	return model.Company{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		LogoURL:   d.LogoURL,
		LogoURLs:  logos,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type surveyDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	CompanyID   primitive.ObjectID `bson:"companyId,omitempty"`
	Name        string             `bson:"name"`
	Status      string             `bson:"status"`
	TotalCount  int64              `bson:"totalCount"`
	PublicToken string             `bson:"publicToken,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d surveyDoc) model() model.Survey {
	sv := model.Survey{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Status:      model.SurveyStatus(d.Status),
		TotalCount:  d.TotalCount,
		PublicToken: d.PublicToken,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if !d.CompanyID.IsZero() {
		sv.CompanyID = d.CompanyID.Hex()
	}
	return sv
}

type questionDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	CompanyID    primitive.ObjectID `bson:"companyId"`
	SurveyID     primitive.ObjectID `bson:"surveyId"`
	Segment      string             `bson:"segment,omitempty"`
	SegmentTitle string             `bson:"segmentTitle,omitempty"`
	Text         string             `bson:"text"`
	Details      string             `bson:"details,omitempty"`
	Type         string             `bson:"type"`
	Image        string             `bson:"image,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d questionDoc) model() model.Question {
	return model.Question{
		ID:           d.ID.Hex(),
		CompanyID:    d.CompanyID.Hex(),
		SurveyID:     d.SurveyID.Hex(),
		Segment:      d.Segment,
		SegmentTitle: d.SegmentTitle,
		Text:         d.Text,
		Details:      d.Details,
		Type:         model.QuestionType(d.Type),
		Image:        d.Image,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type optionDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	QuestionID primitive.ObjectID `bson:"questionId"`
	Text       string             `bson:"text"`
	Risk       string             `bson:"risk"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func (d optionDoc) model() model.Option {
	return model.Option{
		ID:         d.ID.Hex(),
		QuestionID: d.QuestionID.Hex(),
		Text:       d.Text,
		Risk:       model.Risk(d.Risk),
		CreatedAt:  d.CreatedAt,
	}
}

type choiceDoc struct {
	QuestionID primitive.ObjectID   `bson:"questionId"`
	OptionIDs  []primitive.ObjectID `bson:"optionIds"`
}

type responseDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	SurveyID  primitive.ObjectID `bson:"surveyId"`
	Choices   []choiceDoc        `bson:"choices"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type uiConfigDoc struct {
	Page      string    `bson:"page"`
	Config    bson.M    `bson:"config"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type thankYouDoc struct {
	Page      string    `bson:"page"`
	Image     string    `bson:"image"`
	Heading   string    `bson:"heading"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d thankYouDoc) model() model.ThankYouConfig {
	return model.ThankYouConfig(d)
}

// helpers

var byCreation = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, ErrNotFound
	}
	return oid, nil
}

// optionalID converts an id that may legitimately be empty.
func optionalID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, nil
	}
	return primitive.ObjectIDFromHex(id)
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", id, err)
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

func mongoNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func findAll[D any, M any](ctx context.Context, coll *mongo.Collection, filter any, conv func(D) M) ([]M, error) {
	cur, err := coll.Find(ctx, filter, byCreation)
	if err != nil {
		return nil, err
	}
	var docs []D
	if err = cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]M, 0, len(docs))
	for _, d := range docs {
		out = append(out, conv(d))
	}
	return out, nil
}

// companies

func (s *mongoStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	return findAll(ctx, s.companies, bson.M{}, companyDoc.model)
}

func (s *mongoStore) GetCompany(ctx context.Context, id string) (model.Company, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.Company{}, err
	}
	var d companyDoc
	err = s.companies.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if err != nil {
		return model.Company{}, mongoNotFound(err)
	}
	return d.model(), nil
}

func (s *mongoStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.LogoURLs == nil {
		c.LogoURLs = []string{}
	}
	d := companyDoc{
		ID:        primitive.NewObjectID(),
		Name:      c.Name,
		LogoURL:   c.LogoURL,
		LogoURLs:  c.LogoURLs,
		CreatedAt: now(),
	}
	d.UpdatedAt = d.CreatedAt
	if _, err := s.companies.InsertOne(ctx, d); err != nil {
		return err
	}
	*c = d.model()
	return nil
}

func (s *mongoStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	oid, err := objectID(c.ID)
	if err != nil {
		return err
	}
	if c.LogoURLs == nil {
		c.LogoURLs = []string{}
	}
	c.UpdatedAt = now()

	set := bson.M{"name": c.Name, "logoUrls": c.LogoURLs, "updatedAt": c.UpdatedAt}
	update := bson.M{"$set": set}
	if c.LogoURL != "" {
		set["logoUrl"] = c.LogoURL
	} else {
		update["$unset"] = bson.M{"logoUrl": ""}
	}

	res, err := s.companies.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) DeleteCompany(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return nil
	}
	_, err = s.companies.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// surveys

func (s *mongoStore) ListSurveys(ctx context.Context, companyID string) ([]model.Survey, error) {
	filter := bson.M{}
	if companyID != "" {
		oid, err := objectID(companyID)
		if err != nil {
			return []model.Survey{}, nil
		}
		filter["companyId"] = oid
	}
	return findAll(ctx, s.surveys, filter, surveyDoc.model)
}

func (s *mongoStore) findSurvey(ctx context.Context, filter bson.M) (model.Survey, error) {
	var d surveyDoc
	err := s.surveys.FindOne(ctx, filter).Decode(&d)
	if err != nil {
		return model.Survey{}, mongoNotFound(err)
	}
	return d.model(), nil
}

func (s *mongoStore) GetSurvey(ctx context.Context, id string) (model.Survey, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.Survey{}, err
	}
	return s.findSurvey(ctx, bson.M{"_id": oid})
}

func (s *mongoStore) GetSurveyByToken(ctx context.Context, token string) (model.Survey, error) {
	if token == "" {
		return model.Survey{}, ErrNotFound
	}
	return s.findSurvey(ctx, bson.M{"publicToken": token})
}

func (s *mongoStore) CreateSurvey(ctx context.Context, sv *model.Survey) error {
	companyID, err := optionalID(sv.CompanyID)
	if err != nil {
		return err
	}
	if sv.Status == "" {
		sv.Status = model.StatusActive
	}
	d := surveyDoc{
		ID:          primitive.NewObjectID(),
		CompanyID:   companyID,
		Name:        sv.Name,
		Status:      string(sv.Status),
		TotalCount:  sv.TotalCount,
		PublicToken: sv.PublicToken,
		CreatedAt:   now(),
	}
	d.UpdatedAt = d.CreatedAt
	if _, err = s.surveys.InsertOne(ctx, d); err != nil {
		return err
	}
	*sv = d.model()
	return nil
}

func (s *mongoStore) UpdateSurvey(ctx context.Context, sv *model.Survey) error {
	oid, err := objectID(sv.ID)
	if err != nil {
		return err
	}
	companyID, err := optionalID(sv.CompanyID)
	if err != nil {
		return err
	}
	sv.UpdatedAt = now()

	res, err := s.surveys.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"companyId": companyID,
		"name":      sv.Name,
		"status":    sv.Status,
		"updatedAt": sv.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) DeleteSurvey(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.surveys.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) EnsurePublicToken(ctx context.Context, id, token string) (string, error) {
	oid, err := objectID(id)
	if err != nil {
		return "", err
	}
	_, err = s.surveys.UpdateOne(ctx,
		bson.M{"_id": oid, "publicToken": bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"$set": bson.M{"publicToken": token, "updatedAt": now()}},
	)
	if err != nil {
		return "", err
	}
	sv, err := s.findSurvey(ctx, bson.M{"_id": oid})
	return sv.PublicToken, err
}

// questions

func (s *mongoStore) ListQuestions(ctx context.Context, surveyID string) ([]model.Question, error) {
	filter := bson.M{}
	if surveyID != "" {
		oid, err := objectID(surveyID)
		if err != nil {
			return []model.Question{}, nil
		}
		filter["surveyId"] = oid
	}
	return findAll(ctx, s.questions, filter, questionDoc.model)
}

func (s *mongoStore) GetQuestion(ctx context.Context, id string) (model.Question, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.Question{}, err
	}
	var d questionDoc
	err = s.questions.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if err != nil {
		return model.Question{}, mongoNotFound(err)
	}
	return d.model(), nil
}

func (s *mongoStore) CreateQuestion(ctx context.Context, q *model.Question) error {
	ids, err := objectIDs([]string{q.CompanyID, q.SurveyID})
	if err != nil {
		return err
	}
	d := questionDoc{
		ID:           primitive.NewObjectID(),
		CompanyID:    ids[0],
		SurveyID:     ids[1],
		Segment:      q.Segment,
		SegmentTitle: q.SegmentTitle,
		Text:         q.Text,
		Details:      q.Details,
		Type:         string(q.Type),
		Image:        q.Image,
		CreatedAt:    now(),
	}
	d.UpdatedAt = d.CreatedAt
	if _, err = s.questions.InsertOne(ctx, d); err != nil {
		return err
	}
	*q = d.model()
	return nil
}

func (s *mongoStore) UpdateQuestion(ctx context.Context, q *model.Question) error {
	ids, err := objectIDs([]string{q.ID, q.CompanyID, q.SurveyID})
	if err != nil {
		return err
	}
	q.UpdatedAt = now()

	res, err := s.questions.UpdateOne(ctx, bson.M{"_id": ids[0]}, bson.M{"$set": bson.M{
		"companyId":    ids[1],
		"surveyId":     ids[2],
		"segment":      q.Segment,
		"segmentTitle": q.SegmentTitle,
		"text":         q.Text,
		"details":      q.Details,
		"image":        q.Image,
		"updatedAt":    q.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) DeleteQuestion(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.questions.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = s.options.DeleteMany(ctx, bson.M{"questionId": oid})
	return err
}

// options

func (s *mongoStore) ListOptions(ctx context.Context, questionIDs ...string) ([]model.Option, error) {
	filter := bson.M{}
	if len(questionIDs) > 0 {
		oids := make([]primitive.ObjectID, 0, len(questionIDs))
		for _, id := range questionIDs {
			if oid, err := primitive.ObjectIDFromHex(id); err == nil {
				oids = append(oids, oid)
			}
		}
		filter["questionId"] = bson.M{"$in": oids}
	}
	return findAll(ctx, s.options, filter, optionDoc.model)
}

func (s *mongoStore) CreateOption(ctx context.Context, o *model.Option) error {
	questionID, err := primitive.ObjectIDFromHex(o.QuestionID)
	if err != nil {
		return err
	}
	d := optionDoc{
		ID:         primitive.NewObjectID(),
		QuestionID: questionID,
		Text:       o.Text,
		Risk:       string(o.Risk),
		CreatedAt:  now(),
	}
	if _, err = s.options.InsertOne(ctx, d); err != nil {
		return err
	}
	*o = d.model()
	return nil
}

func (s *mongoStore) DeleteOption(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return nil
	}
	_, err = s.options.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// responses

// SubmitResponse inserts first and increments after; a failed increment removes
// the response again so the counter and the collection stay in step.
func (s *mongoStore) SubmitResponse(ctx context.Context, r *model.Response) error {
	surveyID, err := objectID(r.SurveyID)
	if err != nil {
		return err
	}
	d := responseDoc{
		ID:        primitive.NewObjectID(),
		SurveyID:  surveyID,
		Choices:   make([]choiceDoc, 0, len(r.Choices)),
		CreatedAt: now(),
	}
	d.UpdatedAt = d.CreatedAt
	for _, c := range r.Choices {
		questionID, err := primitive.ObjectIDFromHex(c.QuestionID)
		if err != nil {
			return err
		}
		optionIDs, err := objectIDs(c.OptionIDs)
		if err != nil {
			return err
		}
		d.Choices = append(d.Choices, choiceDoc{questionID, optionIDs})
	}

	if _, err = s.responses.InsertOne(ctx, d); err != nil {
		return err
	}

	res, err := s.surveys.UpdateOne(ctx, bson.M{"_id": surveyID}, bson.M{"$inc": bson.M{"totalCount": 1}})
	if err == nil && res.MatchedCount == 0 {
		err = ErrNotFound
	}
	if err != nil {
		if _, derr := s.responses.DeleteOne(context.Background(), bson.M{"_id": d.ID}); derr != nil {
			log.Errorf("db.submit_response.compensate: response %s kept without counter: %s", d.ID.Hex(), derr)
		}
		return err
	}

	r.ID = d.ID.Hex()
	r.CreatedAt = d.CreatedAt
	return nil
}

func (s *mongoStore) CountOptionChoices(ctx context.Context, surveyID string) ([]model.OptionCount, error) {
	oid, err := objectID(surveyID)
	if err != nil {
		return []model.OptionCount{}, nil
	}
	cur, err := s.responses.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"surveyId": oid}}},
		{{Key: "$unwind", Value: "$choices"}},
		{{Key: "$unwind", Value: "$choices.optionIds"}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"questionId": "$choices.questionId",
				"optionId":   "$choices.optionIds",
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.questionId", Value: 1}, {Key: "_id.optionId", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID struct {
			QuestionID primitive.ObjectID `bson:"questionId"`
			OptionID   primitive.ObjectID `bson:"optionId"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make([]model.OptionCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, model.OptionCount{
			QuestionID: row.ID.QuestionID.Hex(),
			OptionID:   row.ID.OptionID.Hex(),
			Count:      row.Count,
		})
	}
	return counts, nil
}

func (s *mongoStore) DailySubmissions(ctx context.Context, since time.Time) ([]model.DailyCount, error) {
	cur, err := s.responses.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Day   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	days := make([]model.DailyCount, 0, len(rows))
	for _, row := range rows {
		days = append(days, model.DailyCount{Day: row.Day, Count: row.Count})
	}
	return days, nil
}

func (s *mongoStore) TopSurveys(ctx context.Context, limit int) ([]model.SurveySubmissions, error) {
	cur, err := s.responses.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$surveyId", "submissions": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "submissions", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		SurveyID    primitive.ObjectID `bson:"_id"`
		Submissions int64              `bson:"submissions"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.SurveyID)
	}
	cur, err = s.surveys.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	var named []surveyDoc
	if err = cur.All(ctx, &named); err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(named))
	for _, d := range named {
		names[d.ID] = d.Name
	}

	top := make([]model.SurveySubmissions, 0, len(rows))
	for _, row := range rows {
		name, ok := names[row.SurveyID]
		if !ok {
			name = "(unknown)"
		}
		top = append(top, model.SurveySubmissions{
			SurveyID:    row.SurveyID.Hex(),
			Name:        name,
			Submissions: row.Submissions,
		})
	}
	return top, nil
}

func (s *mongoStore) Counts(ctx context.Context) (c model.Counts, err error) {
	counts := []struct {
		dst    *int64
		coll   *mongo.Collection
		filter bson.M
	}{
		{&c.Companies, s.companies, bson.M{}},
		{&c.SurveysTotal, s.surveys, bson.M{}},
		{&c.SurveysActive, s.surveys, bson.M{"status": model.StatusActive}},
		{&c.SurveysInactive, s.surveys, bson.M{"status": model.StatusInactive}},
		{&c.Questions, s.questions, bson.M{}},
		{&c.Options, s.options, bson.M{}},
		{&c.Responses, s.responses, bson.M{}},
		{&c.Pending, s.surveys, bson.M{"status": model.StatusActive, "totalCount": 0}},
	}
	for _, cnt := range counts {
		if *cnt.dst, err = cnt.coll.CountDocuments(ctx, cnt.filter); err != nil {
			return
		}
	}

	cur, err := s.surveys.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalCount"}}}},
	})
	if err != nil {
		return
	}
	var sums []struct {
		Total int64 `bson:"total"`
	}
	if err = cur.All(ctx, &sums); err != nil {
		return
	}
	if len(sums) > 0 {
		c.TotalCountSum = &sums[0].Total
	}
	return
}

// page configs

func (s *mongoStore) GetUIConfig(ctx context.Context, page string) (model.UIConfig, error) {
	var d uiConfigDoc
	err := s.uiConfigs.FindOne(ctx, bson.M{"page": page}).Decode(&d)
	if err != nil {
		return model.UIConfig{}, mongoNotFound(err)
	}
	return model.UIConfig{
		Page:      d.Page,
		Config:    map[string]any(d.Config),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func (s *mongoStore) CreateUIConfig(ctx context.Context, c *model.UIConfig) error {
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	_, err := s.uiConfigs.InsertOne(ctx, uiConfigDoc{
		Page:      c.Page,
		Config:    bson.M(c.Config),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (s *mongoStore) UpsertUIConfig(ctx context.Context, c *model.UIConfig) error {
	ts := now()
	var d uiConfigDoc
	err := s.uiConfigs.FindOneAndUpdate(ctx,
		bson.M{"page": c.Page},
		bson.M{
			"$set":         bson.M{"config": bson.M(c.Config), "updatedAt": ts},
			"$setOnInsert": bson.M{"createdAt": ts},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return err
	}
	c.Config = map[string]any(d.Config)
	c.CreatedAt = d.CreatedAt
	c.UpdatedAt = d.UpdatedAt
	return nil
}

func (s *mongoStore) GetThankYouConfig(ctx context.Context, page string) (model.ThankYouConfig, error) {
	var d thankYouDoc
	err := s.thankYouConfigs.FindOne(ctx, bson.M{"page": page}).Decode(&d)
	if err != nil {
		return model.ThankYouConfig{}, mongoNotFound(err)
	}
	return d.model(), nil
}

func (s *mongoStore) UpsertThankYouConfig(ctx context.Context, c *model.ThankYouConfig) error {
	ts := now()
	var d thankYouDoc
	err := s.thankYouConfigs.FindOneAndUpdate(ctx,
		bson.M{"page": c.Page},
		bson.M{
			"$set": bson.M{
				"image":     c.Image,
				"heading":   c.Heading,
				"text":      c.Text,
				"updatedAt": ts,
			},
			"$setOnInsert": bson.M{"createdAt": ts},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return err
	}
	*c = d.model()
	return nil
}

func (s *mongoStore) DeleteThankYouConfig(ctx context.Context, page string) (model.ThankYouConfig, error) {
	var d thankYouDoc
	err := s.thankYouConfigs.FindOneAndDelete(ctx, bson.M{"page": page}).Decode(&d)
	if err != nil {
		return model.ThankYouConfig{}, mongoNotFound(err)
	}
	return d.model(), nil
}
