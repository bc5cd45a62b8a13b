package model

import (
	"sort"
	"strings"
	"time"
)

type Choice string

const (
	ChoiceSafe            Choice = "safe"
	ChoiceStuckNoHelp     Choice = "stuck_no_help"
	ChoiceStuckHelpNeeded Choice = "stuck_help_needed"
)

func (c Choice) Valid() bool {
	switch c {
	case ChoiceSafe, ChoiceStuckNoHelp, ChoiceStuckHelpNeeded:
		return true
	}
	return false
}

// Label is the sentence shown to staff and written to report exports.
func (c Choice) Label() string {
	switch c {
	case ChoiceSafe:
		return "I am okay and safe."
	case ChoiceStuckNoHelp:
		return "I am stuck but help not needed."
	case ChoiceStuckHelpNeeded:
		return "I am stuck and help is needed."
	}
	return string(c)
}

// Employee is one roster record. Phone is the canonical storage key;
// Info holds the remaining spreadsheet columns, nil for empty cells.
type Employee struct {
	Phone string             `json:"phone"`
	Info  map[string]*string `json:"info"`
}

type Response struct {
	Phone       string    `json:"phone"`
	Choice      Choice    `json:"choice"`
	SubmittedAt time.Time `json:"submitted_at"`
}

var (
	nameKeys = []string{"Name", "name", "Employee Name"}
	deptKeys = []string{"Department", "department", "Dept"}
)

// DisplayName builds a human label from roster attributes: name and
// department probed under their usual column spellings, joined with
// " | ". Rosters exported from pandas can carry literal "nan" cells,
// which count as empty. Falls back to the first two non-empty
// attribute values, then to "User".
func DisplayName(info map[string]*string) string {
	parts := []string{}
	if v := probe(info, nameKeys); v != "" {
		parts = append(parts, v)
	}
	if v := probe(info, deptKeys); v != "" {
		parts = append(parts, v)
	}

	if len(parts) == 0 {
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v := cell(info[k]); v != "" {
				parts = append(parts, v)
			}
			if len(parts) == 2 {
				break
			}
		}
	}

	if len(parts) == 0 {
		return "User"
	}
	return strings.Join(parts, " | ")
}

func probe(info map[string]*string, keys []string) string {
	for _, k := range keys {
		if v := cell(info[k]); v != "" {
			return v
		}
	}
	return ""
}

func cell(v *string) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(*v)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}
