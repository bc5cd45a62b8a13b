package roster

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pak-it/checkin/model"
	"github.com/pak-it/checkin/settings"
	"github.com/pak-it/checkin/store"
)

// VotedRow joins one response with its employee's roster attributes.
type VotedRow struct {
	Phone       string             `json:"phone"`
	Choice      model.Choice       `json:"choice"`
	SubmittedAt time.Time          `json:"submitted_at"`
	Info        map[string]*string `json:"info"`
}

// Summary holds the participation metrics shown on the results view
// and written to the voted export.
type Summary struct {
	TotalEmployees int     `json:"total_employees"`
	Voted          int     `json:"voted"`
	NotVoted       int     `json:"not_voted"`
	Participation  float64 `json:"participation"` // percent
	Safe           int     `json:"safe"`
	StuckNoHelp    int     `json:"stuck_no_help"`
	HelpNeeded     int     `json:"help_needed"`
}

// Reporter builds the two derived read-only views over the roster and
// the responses.
type Reporter struct {
	Employees *store.Employees
	Responses *store.Responses
	Settings  *settings.Store
}

// Voted returns responses joined with employee attributes, in
// submission order. Responses are keyed by roster phones, so the join
// is an exact lookup.
func (r *Reporter) Voted(ctx context.Context) ([]VotedRow, error) {
	cfg, err := r.Settings.PollConfig(ctx)
	if err != nil {
		return nil, err
	}
	responses, err := r.Responses.All(ctx, cfg.Location)
	if err != nil {
		return nil, err
	}
	employees, err := r.Employees.All(ctx)
	if err != nil {
		return nil, err
	}

	infoByPhone := make(map[string]map[string]*string, len(employees))
	for _, emp := range employees {
		infoByPhone[emp.Phone] = emp.Info
	}

	rows := make([]VotedRow, 0, len(responses))
	for _, resp := range responses {
		rows = append(rows, VotedRow{
			Phone:       resp.Phone,
			Choice:      resp.Choice,
			SubmittedAt: resp.SubmittedAt,
			Info:        infoByPhone[resp.Phone],
		})
	}
	return rows, nil
}

// NotVoted returns the employees with no recorded response: the set
// difference over phone identities.
func (r *Reporter) NotVoted(ctx context.Context) ([]model.Employee, error) {
	cfg, err := r.Settings.PollConfig(ctx)
	if err != nil {
		return nil, err
	}
	responses, err := r.Responses.All(ctx, cfg.Location)
	if err != nil {
		return nil, err
	}
	voted := make(map[string]bool, len(responses))
	for _, resp := range responses {
		voted[resp.Phone] = true
	}

	employees, err := r.Employees.All(ctx)
	if err != nil {
		return nil, err
	}
	absent := []model.Employee{}
	for _, emp := range employees {
		if !voted[emp.Phone] {
			absent = append(absent, emp)
		}
	}
	return absent, nil
}

// Summarize computes the participation overview.
func (r *Reporter) Summarize(ctx context.Context) (Summary, error) {
	total, err := r.Employees.Count(ctx)
	if err != nil {
		return Summary{}, err
	}
	voted, err := r.Responses.Count(ctx)
	if err != nil {
		return Summary{}, err
	}
	byChoice, err := r.Responses.CountByChoice(ctx)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		TotalEmployees: total,
		Voted:          voted,
		NotVoted:       total - voted,
		Safe:           byChoice[model.ChoiceSafe],
		StuckNoHelp:    byChoice[model.ChoiceStuckNoHelp],
		HelpNeeded:     byChoice[model.ChoiceStuckHelpNeeded],
	}
	if total > 0 {
		s.Participation = float64(voted) / float64(total) * 100
	}
	return s, nil
}

// WriteVotedWorkbook renders the voted view as an .xlsx workbook with
// a second Summary sheet.
func WriteVotedWorkbook(rows []VotedRow, summary Summary) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := "Voted Employees"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	attrs := attributeColumns(votedInfos(rows))
	header := append([]string{"Phone", "Response", "Timestamp"}, attrs...)
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cells := []string{
			row.Phone,
			row.Choice.Label(),
			row.SubmittedAt.Format(settings.TimeLayout),
		}
		cells = append(cells, attrValues(row.Info, attrs)...)
		if err := writeRow(f, sheet, i+2, cells); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return nil, err
	}
	metrics := [][]string{
		{"Metric", "Value"},
		{"Total Employees", fmt.Sprint(summary.TotalEmployees)},
		{"Total Voted", fmt.Sprint(summary.Voted)},
		{"Participation Rate", fmt.Sprintf("%.1f%%", summary.Participation)},
		{"OK Responses", fmt.Sprint(summary.Safe)},
		{"Stuck (No Help)", fmt.Sprint(summary.StuckNoHelp)},
		{"Help Needed", fmt.Sprint(summary.HelpNeeded)},
	}
	for i, cells := range metrics {
		if err := writeRow(f, "Summary", i+1, cells); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// WriteNotVotedWorkbook renders the not-voted view as an .xlsx
// workbook.
func WriteNotVotedWorkbook(employees []model.Employee) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := "Not Voted Employees"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	infos := make([]map[string]*string, len(employees))
	for i, emp := range employees {
		infos[i] = emp.Info
	}
	attrs := attributeColumns(infos)
	header := append([]string{"Phone"}, attrs...)
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	for i, emp := range employees {
		cells := append([]string{emp.Phone}, attrValues(emp.Info, attrs)...)
		if err := writeRow(f, sheet, i+2, cells); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func votedInfos(rows []VotedRow) []map[string]*string {
	infos := make([]map[string]*string, len(rows))
	for i, row := range rows {
		infos[i] = row.Info
	}
	return infos
}

// attributeColumns is the sorted union of attribute keys across rows.
func attributeColumns(infos []map[string]*string) []string {
	seen := map[string]bool{}
	for _, info := range infos {
		for k := range info {
			seen[k] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

func attrValues(info map[string]*string, columns []string) []string {
	values := make([]string, len(columns))
	for i, k := range columns {
		if v := info[k]; v != nil {
			values[i] = *v
		}
	}
	return values
}

func writeRow(f *excelize.File, sheet string, line int, cells []string) error {
	addr, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return f.SetSheetRow(sheet, addr, &row)
}
