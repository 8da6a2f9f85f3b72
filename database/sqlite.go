package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sqlite "github.com/mattn/go-sqlite3"
	"github.com/mbolis/launchalot/model"
)

// fixed width, so that text order is time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type sqliteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, err
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isConstraintError(err error) bool {
	var se sqlite.Error
	return errors.As(err, &se) && se.Code == sqlite.ErrConstraint
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// companies

const companyColumns = `id, name, logo_url, logo_urls, created_at, updated_at`

func scanCompany(row scanner) (c model.Company, err error) {
	var logos, created, updated string
	err = row.Scan(&c.ID, &c.Name, &c.LogoURL, &logos, &created, &updated)
	if err != nil {
		return
	}
	err = json.Unmarshal([]byte(logos), &c.LogoURLs)
	if c.LogoURLs == nil {
		c.LogoURLs = []string{}
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return
}

func (s *sqliteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+companyColumns+`
		FROM company
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := []model.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (s *sqliteStore) GetCompany(ctx context.Context, id string) (model.Company, error) {
	c, err := scanCompany(s.db.QueryRowContext(ctx, `
		SELECT `+companyColumns+`
		FROM company
		WHERE id = ?`,
		id,
	))
	return c, notFound(err)
}

func (s *sqliteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	if c.LogoURLs == nil {
		c.LogoURLs = []string{}
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	logos, err := json.Marshal(c.LogoURLs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO company (`+companyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.LogoURL, string(logos), formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	return err
}

func (s *sqliteStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	if c.LogoURLs == nil {
		c.LogoURLs = []string{}
	}
	c.UpdatedAt = now()

	logos, err := json.Marshal(c.LogoURLs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE company
		SET
			name = ?,
			logo_url = ?,
			logo_urls = ?,
			updated_at = ?
		WHERE id = ?`,
		c.Name, c.LogoURL, string(logos), formatTime(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *sqliteStore) DeleteCompany(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM company WHERE id = ?`, id)
	return err
}

// surveys

const surveyColumns = `id, company_id, name, status, total_count, public_token, created_at, updated_at`

func scanSurvey(row scanner) (sv model.Survey, err error) {
	var token sql.NullString
	var created, updated string
	err = row.Scan(&sv.ID, &sv.CompanyID, &sv.Name, &sv.Status, &sv.TotalCount, &token, &created, &updated)
	sv.PublicToken = token.String
	sv.CreatedAt = parseTime(created)
	sv.UpdatedAt = parseTime(updated)
	return
}

func (s *sqliteStore) ListSurveys(ctx context.Context, companyID string) ([]model.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+surveyColumns+`
		FROM survey
		WHERE ? = '' OR company_id = ?
		ORDER BY created_at, rowid`,
		companyID, companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		sv, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		surveys = append(surveys, sv)
	}
	return surveys, rows.Err()
}

func (s *sqliteStore) GetSurvey(ctx context.Context, id string) (model.Survey, error) {
	sv, err := scanSurvey(s.db.QueryRowContext(ctx, `
		SELECT `+surveyColumns+`
		FROM survey
		WHERE id = ?`,
		id,
	))
	return sv, notFound(err)
}

func (s *sqliteStore) GetSurveyByToken(ctx context.Context, token string) (model.Survey, error) {
	if token == "" {
		return model.Survey{}, ErrNotFound
	}
	sv, err := scanSurvey(s.db.QueryRowContext(ctx, `
		SELECT `+surveyColumns+`
		FROM survey
		WHERE public_token = ?`,
		token,
	))
	return sv, notFound(err)
}

func (s *sqliteStore) CreateSurvey(ctx context.Context, sv *model.Survey) error {
	if sv.ID == "" {
		sv.ID = model.NewID()
	}
	if sv.Status == "" {
		sv.Status = model.StatusActive
	}
	sv.CreatedAt = now()
	sv.UpdatedAt = sv.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO survey (`+surveyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.CompanyID, sv.Name, sv.Status, sv.TotalCount, nullString(sv.PublicToken),
		formatTime(sv.CreatedAt), formatTime(sv.UpdatedAt),
	)
	return err
}

func (s *sqliteStore) UpdateSurvey(ctx context.Context, sv *model.Survey) error {
	sv.UpdatedAt = now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE survey
		SET
			company_id = ?,
			name = ?,
			status = ?,
			updated_at = ?
		WHERE id = ?`,
		sv.CompanyID, sv.Name, sv.Status, formatTime(sv.UpdatedAt), sv.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *sqliteStore) DeleteSurvey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *sqliteStore) EnsurePublicToken(ctx context.Context, id, token string) (string, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE survey
		SET
			public_token = ?,
			updated_at = ?
		WHERE id = ?
			AND (public_token IS NULL OR public_token = '')`,
		token, formatTime(now()), id,
	)
	if err != nil {
		return "", err
	}

	var current sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT public_token FROM survey WHERE id = ?`, id).Scan(&current)
	return current.String, notFound(err)
}

// questions

const questionColumns = `id, company_id, survey_id, segment, segment_title, text, details, type, image, created_at, updated_at`

func scanQuestion(row scanner) (q model.Question, err error) {
	var created, updated string
	err = row.Scan(
		&q.ID, &q.CompanyID, &q.SurveyID, &q.Segment, &q.SegmentTitle,
		&q.Text, &q.Details, &q.Type, &q.Image, &created, &updated,
	)
	q.CreatedAt = parseTime(created)
	q.UpdatedAt = parseTime(updated)
	return
}

func (s *sqliteStore) ListQuestions(ctx context.Context, surveyID string) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM question
		WHERE ? = '' OR survey_id = ?
		ORDER BY created_at, rowid`,
		surveyID, surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *sqliteStore) GetQuestion(ctx context.Context, id string) (model.Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `
		SELECT `+questionColumns+`
		FROM question
		WHERE id = ?`,
		id,
	))
	return q, notFound(err)
}

func (s *sqliteStore) CreateQuestion(ctx context.Context, q *model.Question) error {
	if q.ID == "" {
		q.ID = model.NewID()
	}
	q.CreatedAt = now()
	q.UpdatedAt = q.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO question (`+questionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.CompanyID, q.SurveyID, q.Segment, q.SegmentTitle,
		q.Text, q.Details, q.Type, q.Image, formatTime(q.CreatedAt), formatTime(q.UpdatedAt),
	)
	return err
}

func (s *sqliteStore) UpdateQuestion(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE question
		SET
			company_id = ?,
			survey_id = ?,
			segment = ?,
			segment_title = ?,
			text = ?,
			details = ?,
			image = ?,
			updated_at = ?
		WHERE id = ?`,
		q.CompanyID, q.SurveyID, q.Segment, q.SegmentTitle,
		q.Text, q.Details, q.Image, formatTime(q.UpdatedAt), q.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *sqliteStore) DeleteQuestion(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM question WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = checkAffected(res); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM survey_option WHERE question_id = ?`, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// options

func scanOption(row scanner) (o model.Option, err error) {
	var created string
	err = row.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Risk, &created)
	o.CreatedAt = parseTime(created)
	return
}

func (s *sqliteStore) ListOptions(ctx context.Context, questionIDs ...string) ([]model.Option, error) {
	query := `
		SELECT id, question_id, text, risk, created_at
		FROM survey_option`
	args := make([]any, len(questionIDs))
	if len(questionIDs) > 0 {
		query += `
		WHERE question_id IN (` + placeholders(len(questionIDs)) + `)`
		for i, id := range questionIDs {
			args[i] = id
		}
	}
	query += `
		ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []model.Option{}
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (s *sqliteStore) CreateOption(ctx context.Context, o *model.Option) error {
	if o.ID == "" {
		o.ID = model.NewID()
	}
	o.CreatedAt = now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO survey_option (id, question_id, text, risk, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.QuestionID, o.Text, o.Risk, formatTime(o.CreatedAt),
	)
	return err
}

func (s *sqliteStore) DeleteOption(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM survey_option WHERE id = ?`, id)
	return err
}

// responses

func (s *sqliteStore) SubmitResponse(ctx context.Context, r *model.Response) error {
	if r.ID == "" {
		r.ID = model.NewID()
	}
	r.CreatedAt = now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE survey
		SET total_count = total_count + 1
		WHERE id = ?`,
		r.SurveyID,
	)
	if err != nil {
		return err
	}
	if err = checkAffected(res); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO response (id, survey_id, created_at)
		VALUES (?, ?, ?)`,
		r.ID, r.SurveyID, formatTime(r.CreatedAt),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO response_choice (response_id, position, question_id, option_id)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range r.Choices {
		if len(c.OptionIDs) == 0 {
			if _, err = stmt.ExecContext(ctx, r.ID, i, c.QuestionID, nil); err != nil {
				return err
			}
			continue
		}
		for _, optionID := range c.OptionIDs {
			if _, err = stmt.ExecContext(ctx, r.ID, i, c.QuestionID, optionID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (s *sqliteStore) CountOptionChoices(ctx context.Context, surveyID string) ([]model.OptionCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.question_id, c.option_id, COUNT(*)
		FROM response r
		INNER JOIN response_choice c ON (r.id = c.response_id)
		WHERE r.survey_id = ?
			AND c.option_id IS NOT NULL
		GROUP BY c.question_id, c.option_id
		ORDER BY c.question_id, c.option_id`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []model.OptionCount{}
	for rows.Next() {
		var c model.OptionCount
		if err = rows.Scan(&c.QuestionID, &c.OptionID, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *sqliteStore) DailySubmissions(ctx context.Context, since time.Time) ([]model.DailyCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(created_at, 1, 10) AS day, COUNT(*)
		FROM response
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day`,
		formatTime(since),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []model.DailyCount{}
	for rows.Next() {
		var d model.DailyCount
		if err = rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *sqliteStore) TopSurveys(ctx context.Context, limit int) ([]model.SurveySubmissions, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.survey_id, COALESCE(s.name, '(unknown)'), COUNT(*) AS submissions
		FROM response r
		LEFT OUTER JOIN survey s ON (s.id = r.survey_id)
		GROUP BY r.survey_id, s.name
		ORDER BY submissions DESC, r.survey_id
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := []model.SurveySubmissions{}
	for rows.Next() {
		var t model.SurveySubmissions
		if err = rows.Scan(&t.SurveyID, &t.Name, &t.Submissions); err != nil {
			return nil, err
		}
		top = append(top, t)
	}
	return top, rows.Err()
}

func (s *sqliteStore) Counts(ctx context.Context) (c model.Counts, err error) {
	var sum sql.NullInt64
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM company),
			(SELECT COUNT(*) FROM survey),
			(SELECT COUNT(*) FROM survey WHERE status = 'ACTIVE'),
			(SELECT COUNT(*) FROM survey WHERE status = 'INACTIVE'),
			(SELECT COUNT(*) FROM question),
			(SELECT COUNT(*) FROM survey_option),
			(SELECT COUNT(*) FROM response),
			(SELECT SUM(total_count) FROM survey),
			(SELECT COUNT(*) FROM survey WHERE status = 'ACTIVE' AND total_count = 0)`,
	).Scan(
		&c.Companies, &c.SurveysTotal, &c.SurveysActive, &c.SurveysInactive,
		&c.Questions, &c.Options, &c.Responses, &sum, &c.Pending,
	)
	if sum.Valid {
		c.TotalCountSum = &sum.Int64
	}
	return
}

// page configs

func (s *sqliteStore) GetUIConfig(ctx context.Context, page string) (c model.UIConfig, err error) {
	var config, created, updated string
	err = s.db.QueryRowContext(ctx, `
		SELECT page, config, created_at, updated_at
		FROM ui_config
		WHERE page = ?`,
		page,
	).Scan(&c.Page, &config, &created, &updated)
	if err != nil {
		return c, notFound(err)
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	err = json.Unmarshal([]byte(config), &c.Config)
	return
}

func (s *sqliteStore) CreateUIConfig(ctx context.Context, c *model.UIConfig) error {
	config, err := json.Marshal(c.Config)
	if err != nil {
		return err
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ui_config (page, config, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		c.Page, string(config), formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if isConstraintError(err) {
		return ErrConflict
	}
	return err
}

func (s *sqliteStore) UpsertUIConfig(ctx context.Context, c *model.UIConfig) error {
	config, err := json.Marshal(c.Config)
	if err != nil {
		return err
	}
	ts := formatTime(now())

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ui_config (page, config, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (page) DO UPDATE SET
			config = excluded.config,
			updated_at = excluded.updated_at`,
		c.Page, string(config), ts, ts,
	)
	if err != nil {
		return err
	}

	stored, err := s.GetUIConfig(ctx, c.Page)
	if err != nil {
		return err
	}
	*c = stored
	return nil
}

const thankYouColumns = `page, image, heading, text, created_at, updated_at`

func scanThankYou(row scanner) (c model.ThankYouConfig, err error) {
	var created, updated string
	err = row.Scan(&c.Page, &c.Image, &c.Heading, &c.Text, &created, &updated)
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return
}

func (s *sqliteStore) GetThankYouConfig(ctx context.Context, page string) (model.ThankYouConfig, error) {
	c, err := scanThankYou(s.db.QueryRowContext(ctx, `
		SELECT `+thankYouColumns+`
		FROM thank_you_config
		WHERE page = ?`,
		page,
	))
	return c, notFound(err)
}

func (s *sqliteStore) UpsertThankYouConfig(ctx context.Context, c *model.ThankYouConfig) error {
	ts := formatTime(now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thank_you_config (`+thankYouColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (page) DO UPDATE SET
			image = excluded.image,
			heading = excluded.heading,
			text = excluded.text,
			updated_at = excluded.updated_at`,
		c.Page, c.Image, c.Heading, c.Text, ts, ts,
	)
	if err != nil {
		return err
	}

	stored, err := s.GetThankYouConfig(ctx, c.Page)
	if err != nil {
		return err
	}
	*c = stored
	return nil
}

func (s *sqliteStore) DeleteThankYouConfig(ctx context.Context, page string) (model.ThankYouConfig, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ThankYouConfig{}, err
	}
	defer tx.Rollback()

	c, err := scanThankYou(tx.QueryRowContext(ctx, `
		SELECT `+thankYouColumns+`
		FROM thank_you_config
		WHERE page = ?`,
		page,
	))
	if err != nil {
		return c, notFound(err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM thank_you_config WHERE page = ?`, page)
	if err != nil {
		return c, err
	}
	return c, tx.Commit()
}
