// Package report renders the branded risk report PDF.
package report

import (
	"encoding/json"
	"strings"
)

type Row struct {
	Question string   `json:"question"`
	Answer   *string  `json:"answer,omitempty"`
	Answers  []string `json:"answers,omitempty"`
	Risk     string   `json:"risk,omitempty"`
	Risks    []string `json:"risks,omitempty"`
}

type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

type Request struct {
	CompanyName  string    `json:"companyName"`
	CompanyLogo  LogoList  `json:"companyLogo"`
	CompanyLogos []string  `json:"companyLogos"`
	Sections     []Section `json:"sections"`
}

// Logos returns companyLogos when present, companyLogo otherwise.
func (req Request) Logos() []string {
	src := req.CompanyLogos
	if len(src) == 0 {
		src = req.CompanyLogo
	}
	var logos []string
	for _, l := range src {
		if l = strings.TrimSpace(l); l != "" {
			logos = append(logos, l)
		}
	}
	return logos
}

// LogoList accepts either a single string or an array of strings.
type LogoList []string

func (l *LogoList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*l = nil
		} else {
			*l = LogoList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// NormalizeCheckboxRisks pads the risks of every multi-answer row with "red",
// so that each answer has a risk. Answers without an explicit risk were not selected.
func NormalizeCheckboxRisks(sections []Section) []Section {
	out := make([]Section, len(sections))
	for i, sec := range sections {
		out[i] = Section{Title: sec.Title, Rows: make([]Row, len(sec.Rows))}
		for j, row := range sec.Rows {
			if row.Answers != nil {
				risks := make([]string, len(row.Risks), max(len(row.Risks), len(row.Answers)))
				copy(risks, row.Risks)
				for len(risks) < len(row.Answers) {
					risks = append(risks, "red")
				}
				row.Risks = risks
			}
			out[i].Rows[j] = row
		}
	}
	return out
}

type color struct{ r, g, b int }

var (
	colorRed    = color{0xd9, 0x30, 0x25}
	colorYellow = color{0xf7, 0xb5, 0x00}
	colorGreen  = color{0x2f, 0xb4, 0x5a}
	colorOther  = color{0x9a, 0xa0, 0xa6}

	colorBorder     = color{0x2f, 0x42, 0x50}
	colorHeaderFill = color{0xd2, 0xd2, 0xd2}
	colorText       = color{0x11, 0x11, 0x11}
)

// RiskColor maps a risk name to the color of its bar.
func RiskColor(risk string) (r, g, b int) {
	c := colorOther
	switch strings.ToLower(strings.TrimSpace(risk)) {
	case "red":
		c = colorRed
	case "yellow", "amber":
		c = colorYellow
	case "green":
		c = colorGreen
	}
	return c.r, c.g, c.b
}

// answerLines pairs every displayed answer with the risk drawn next to it.
func (row Row) answerLines() (answers, risks []string) {
	if len(row.Answers) > 0 {
		answers = row.Answers
	} else if row.Answer != nil {
		answers = []string{*row.Answer}
	} else {
		answers = []string{"-"}
	}

	risks = make([]string, len(answers))
	for i := range answers {
		switch {
		case row.Answers != nil && i < len(row.Risks) && row.Risks[i] != "":
			risks[i] = row.Risks[i]
		case row.Answers == nil && i == 0 && row.Risk != "":
			risks[i] = row.Risk
		default:
			risks[i] = "red"
		}
	}
	return answers, risks
}
