package model

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LogoURL   string    `json:"logoUrl,omitempty"`
	LogoURLs  []string  `json:"logoUrls"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Logos lists the company logos, falling back to the single logo URL.
func (c Company) Logos() []string {
	if len(c.LogoURLs) > 0 {
		return c.LogoURLs
	}
	if c.LogoURL != "" {
		return []string{c.LogoURL}
	}
	return []string{}
}

type SurveyStatus string

const (
	StatusActive   SurveyStatus = "ACTIVE"
	StatusInactive SurveyStatus = "INACTIVE"
)

type Survey struct {
	ID          string       `json:"id"`
	CompanyID   string       `json:"companyId,omitempty"`
	Name        string       `json:"name"`
	Status      SurveyStatus `json:"status"`
	TotalCount  int64        `json:"totalCount"`
	PublicToken string       `json:"publicToken,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type QuestionType string

const (
	TypeRadio    QuestionType = "radio"
	TypeCheckbox QuestionType = "checkbox"
	TypeText     QuestionType = "text"
)

// ParseQuestionType falls back to radio for anything it does not know.
func ParseQuestionType(s string) QuestionType {
	switch QuestionType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeCheckbox:
		return TypeCheckbox
	case TypeText:
		return TypeText
	}
	return TypeRadio
}

type Question struct {
	ID           string       `json:"id"`
	CompanyID    string       `json:"companyId"`
	SurveyID     string       `json:"surveyId"`
	Segment      string       `json:"segment,omitempty"`
	SegmentTitle string       `json:"segmentTitle,omitempty"`
	Text         string       `json:"text"`
	Details      string       `json:"details,omitempty"`
	Type         QuestionType `json:"type"`
	Image        string       `json:"image,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

var reDigits = regexp.MustCompile(`\d+`)

// SegmentNumber is the first number found in the segment label, 1 by default.
func (q Question) SegmentNumber() int {
	m := reDigits.FindString(q.Segment)
	if m == "" {
		return 1
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 1
	}
	return n
}

type Risk string

const (
	RiskRed    Risk = "Red"
	RiskYellow Risk = "Yellow"
	RiskGreen  Risk = "Green"
)

func NormalizeRisk(s string) Risk {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return RiskRed
	case "yellow", "amber":
		return RiskYellow
	}
	return RiskGreen
}

type Option struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"questionId"`
	Text       string    `json:"text"`
	Risk       Risk      `json:"risk"`
	CreatedAt  time.Time `json:"-"`
}

type Choice struct {
	QuestionID string   `json:"questionId"`
	OptionIDs  []string `json:"optionIds"`
}

type Response struct {
	ID        string    `json:"id"`
	SurveyID  string    `json:"surveyId"`
	Choices   []Choice  `json:"choices"`
	CreatedAt time.Time `json:"createdAt"`
}

type UIConfig struct {
	Page      string         `json:"page"`
	Config    map[string]any `json:"config"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type ThankYouConfig struct {
	Page      string    `json:"page"`
	Image     string    `json:"image"`
	Heading   string    `json:"heading"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// aggregates

type OptionCount struct {
	QuestionID string
	OptionID   string
	Count      int64
}

type DailyCount struct {
	Day   string `json:"_id"`
	Count int64  `json:"count"`
}

type SurveySubmissions struct {
	SurveyID    string `json:"surveyId"`
	Name        string `json:"name"`
	Submissions int64  `json:"submissions"`
}

type Counts struct {
	Companies       int64
	SurveysTotal    int64
	SurveysActive   int64
	SurveysInactive int64
	Questions       int64
	Options         int64
	Responses       int64
	// nil when there are no surveys to sum over
	TotalCountSum *int64
	Pending       int64
}

// Percent is count/total as a percentage rounded to two decimals, 0 when total is 0.
func Percent(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)*10000/float64(total)) / 100
}

func NewID() string {
	return primitive.NewObjectID().Hex()
}

func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
