package routes

import (
	"encoding/json"
	"testing"

	"github.com/mbolis/launchalot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanAnswer(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"Yes", "Yes"},
		{"  Yes  ", "Yes"},
		{`"Yes"`, "Yes"},
		{`'No'`, "No"},
		{`["Yes"]`, "Yes"},
		{` [Partly] `, "Partly"},
		{`It's fine`, "It's fine"},
		{`[]`, ""},
		{`""`, ""},
		{"", ""},
	} {
		assert.Equal(t, tc.want, cleanAnswer(tc.in), "cleanAnswer(%q)", tc.in)
	}
}

func TestAnswerValues(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want []string
	}{
		{`"Yes"`, []string{"Yes"}},
		{`""`, nil},
		{`null`, nil},
		{`["a", "b"]`, []string{"a", "b"}},
		{`[1, "b"]`, []string{"1", "b"}},
		{`[]`, []string{}},
		{`{"a": 1}`, []string{`{"a": 1}`}},
		{`5`, []string{"5"}},
		{` true `, []string{"true"}},
	} {
		assert.Equal(t, tc.want, answerValues(json.RawMessage(tc.raw)), tc.raw)
	}
}

func TestResolveAnswers(t *testing.T) {
	q1 := model.Question{ID: model.NewID(), Text: "Is MFA enforced?"}
	q2 := model.Question{ID: model.NewID(), Text: "Which tools?", Type: model.TypeCheckbox}
	q3 := model.Question{ID: model.NewID(), Text: "Unanswered"}
	yes := model.Option{ID: model.NewID(), QuestionID: q1.ID, Text: " Yes "}
	no := model.Option{ID: model.NewID(), QuestionID: q1.ID, Text: "No"}
	vpn := model.Option{ID: model.NewID(), QuestionID: q2.ID, Text: "VPN"}
	sso := model.Option{ID: model.NewID(), QuestionID: q2.ID, Text: "SSO"}

	questions := []model.Question{q1, q2, q3}
	options := map[string][]model.Option{
		q1.ID: {yes, no},
		q2.ID: {vpn, sso},
	}
	unknownA, unknownB := "b-question", "a-question"

	res := resolveAnswers(questions, options, map[string]json.RawMessage{
		q2.ID:    json.RawMessage(`["VPN", "` + sso.ID + `", "Carrier pigeon", ""]`),
		q1.ID:    json.RawMessage(`"[\"Yes\"]"`),
		unknownA: json.RawMessage(`"x"`),
		unknownB: json.RawMessage(`["y", "z"]`),
	})

	assert.Equal(t, []model.Choice{
		{QuestionID: q1.ID, OptionIDs: []string{yes.ID}},
		{QuestionID: q2.ID, OptionIDs: []string{vpn.ID, sso.ID}},
	}, res.choices)
	assert.Equal(t, resolvedCounts{ByID: 1, ByText: 2}, res.counts)
	assert.Equal(t, []unresolvedAnswer{
		{q2.ID, "Carrier pigeon", reasonNoMatch},
		{unknownB, "y", reasonUnknownQuestion},
		{unknownB, "z", reasonUnknownQuestion},
		{unknownA, "x", reasonUnknownQuestion},
	}, res.unresolved)
}

func TestResolveAnswers_NonStringValues(t *testing.T) {
	q := model.Question{ID: model.NewID()}
	five := model.Option{ID: model.NewID(), QuestionID: q.ID, Text: "5"}
	other := model.Question{ID: model.NewID()}

	res := resolveAnswers([]model.Question{q, other}, map[string][]model.Option{q.ID: {five}}, map[string]json.RawMessage{
		q.ID:     json.RawMessage(`5`),
		other.ID: json.RawMessage(`{"pick": "A"}`),
	})

	assert.Equal(t, []model.Choice{
		{QuestionID: q.ID, OptionIDs: []string{five.ID}},
		{QuestionID: other.ID, OptionIDs: []string{}},
	}, res.choices)
	assert.Equal(t, resolvedCounts{ByText: 1}, res.counts)
	assert.Equal(t, []unresolvedAnswer{{other.ID, `{"pick": "A"}`, reasonNoMatch}}, res.unresolved)
}

func TestResolveAnswers_OptionOfAnotherQuestion(t *testing.T) {
	q1 := model.Question{ID: model.NewID()}
	q2 := model.Question{ID: model.NewID()}
	foreign := model.Option{ID: model.NewID(), QuestionID: q2.ID, Text: "Maybe"}

	res := resolveAnswers([]model.Question{q1, q2}, map[string][]model.Option{q2.ID: {foreign}}, map[string]json.RawMessage{
		q1.ID: json.RawMessage(`"` + foreign.ID + `"`),
	})

	require.Len(t, res.choices, 1)
	assert.Empty(t, res.choices[0].OptionIDs)
	assert.Equal(t, []unresolvedAnswer{{q1.ID, foreign.ID, reasonNoMatch}}, res.unresolved)
}

func TestBuildSegments(t *testing.T) {
	later := model.Question{ID: "q1", Text: "Later", Segment: "Part 2", SegmentTitle: "Second part", Type: "weird"}
	first := model.Question{ID: "q2", Text: "First", Type: model.TypeText}
	second := model.Question{ID: "q3", Text: "Second", Segment: "1", SegmentTitle: "Ignored", Type: model.TypeCheckbox}
	opt := model.Option{ID: "o1", QuestionID: "q3", Text: "A", Risk: model.RiskRed}

	segments := buildSegments([]model.Question{later, first, second}, map[string][]model.Option{"q3": {opt}})

	require.Len(t, segments, 2)
	assert.Equal(t, "Segment 1", segments[0].Title)
	require.Len(t, segments[0].Questions, 2)
	assert.Equal(t, "q2", segments[0].Questions[0].ID)
	assert.Equal(t, model.TypeText, segments[0].Questions[0].Type)
	assert.Equal(t, []publicOption{}, segments[0].Questions[0].Options)
	assert.Equal(t, []publicOption{{ID: "o1", Text: "A", Risk: model.RiskRed}}, segments[0].Questions[1].Options)

	assert.Equal(t, "Second part", segments[1].Title)
	assert.Equal(t, model.TypeRadio, segments[1].Questions[0].Type)

	assert.Empty(t, buildSegments(nil, nil))
}
