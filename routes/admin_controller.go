package routes

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/xuri/excelize/v2"

	"github.com/pak-it/checkin/app"
	"github.com/pak-it/checkin/httpx"
	"github.com/pak-it/checkin/log"
	"github.com/pak-it/checkin/phone"
	"github.com/pak-it/checkin/roster"
	"github.com/pak-it/checkin/settings"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func GetSettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := app.Settings.PollConfig(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_settings", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"timezone":        cfg.Timezone,
			"time_format":     cfg.TimeFormat,
			"validation_mode": string(cfg.ValidationMode),
			"phone_column":    cfg.PhoneColumn,
			"poll_start":      cfg.Start.Format(settings.TimeLayout),
			"poll_end":        cfg.End.Format(settings.TimeLayout),
			"starts":          cfg.FormatDisplay(cfg.Start),
			"ends":            cfg.FormatDisplay(cfg.End),
		})
	}
}

// draftBody is the wire form of a pending settings draft.
type draftBody struct {
	Timezone       string           `json:"timezone"`
	TimeFormat     string           `json:"time_format"`
	TimeInput      string           `json:"time_input"`
	ValidationMode string           `json:"validation_mode"`
	PhoneColumn    string           `json:"phone_column"`
	StartDate      string           `json:"start_date"` // 2006-01-02
	EndDate        string           `json:"end_date"`
	Start12        settings.Clock12 `json:"start_12"`
	End12          settings.Clock12 `json:"end_12"`
	Start24        settings.Clock24 `json:"start_24"`
	End24          settings.Clock24 `json:"end_24"`
}

func (b draftBody) toDraft() (*settings.Draft, error) {
	startDate, err := time.Parse("2006-01-02", b.StartDate)
	if err != nil {
		return nil, fmt.Errorf("bad start_date: %w", err)
	}
	endDate, err := time.Parse("2006-01-02", b.EndDate)
	if err != nil {
		return nil, fmt.Errorf("bad end_date: %w", err)
	}

	timeInput := b.TimeInput
	if timeInput == "" {
		timeInput = settings.Input12
	}

	return &settings.Draft{
		Timezone:       b.Timezone,
		TimeFormat:     b.TimeFormat,
		TimeInput:      timeInput,
		ValidationMode: phone.Mode(b.ValidationMode),
		PhoneColumn:    b.PhoneColumn,
		StartDate:      startDate,
		EndDate:        endDate,
		Start12:        b.Start12,
		End12:          b.End12,
		Start24:        b.Start24,
		End24:          b.End24,
	}, nil
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (*settings.Draft, bool) {
	body := draftBody{}
	err := render.DecodeJSON(r.Body, &body)
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
		return nil, false
	}
	draft, err := body.toDraft()
	if err != nil {
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_draft", "%s", err)
		return nil, false
	}
	return draft, true
}

func SaveSettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := decodeDraft(w, r)
		if !ok {
			return
		}

		eng := settings.Engine{Store: app.Settings}
		err := eng.Save(r.Context(), draft)
		var invalid *settings.ValidationError
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.As(err, &invalid):
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "settings.save.invalid", "%s", invalid)
		default:
			httpx.LogInternalError(w, "settings.save", err)
		}
	}
}

// DiffSettings reports whether a draft diverges from the persisted
// configuration, for the unsaved-changes gate in the dashboard.
func DiffSettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := decodeDraft(w, r)
		if !ok {
			return
		}

		eng := settings.Engine{Store: app.Settings}
		changed, err := eng.HasUnsavedChanges(r.Context(), draft)
		if err != nil {
			httpx.LogInternalError(w, "settings.diff", err)
			return
		}
		render.JSON(w, r, map[string]any{"changed": changed})
	}
}

func ResetSettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Settings.Reset(r.Context()); err != nil {
			httpx.LogInternalError(w, "settings.reset", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListEmployees(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employees, err := app.Employees.All(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_employees", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"employees": employees,
			"total":     len(employees),
		})
	}
}

// UploadRoster replaces the whole roster from an uploaded .xlsx file
// (multipart field "file"). Rows failing phone validation are reported
// back, not stored.
func UploadRoster(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.form_file")
			return
		}
		defer file.Close()

		cfg, err := app.Settings.PollConfig(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_settings", err)
			return
		}

		rows, err := roster.ParseWorkbook(file, cfg.PhoneColumn)
		var missing *roster.MissingColumnError
		if errors.As(err, &missing) {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, map[string]any{
				"error":     fmt.Sprintf("missing %q column", missing.Column),
				"available": missing.Available,
			})
			return
		}
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "roster.parse", "%s", err)
			return
		}

		accepted, rejected, err := roster.Replace(r.Context(), app.DB, cfg.ValidationMode, rows)
		if err != nil {
			httpx.LogInternalError(w, "roster.replace", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"accepted": accepted,
			"rejected": rejected,
		})
	}
}

func GetSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := app.Reporter.Summarize(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "report.summary", err)
			return
		}
		render.JSON(w, r, summary)
	}
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.Reporter.Voted(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "report.voted", err)
			return
		}
		render.JSON(w, r, map[string]any{"responses": rows})
	}
}

func ListAbsentees(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		absent, err := app.Reporter.NotVoted(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "report.not_voted", err)
			return
		}
		render.JSON(w, r, map[string]any{"absentees": absent})
	}
}

func ExportVoted(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.Reporter.Voted(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "report.voted", err)
			return
		}
		summary, err := app.Reporter.Summarize(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "report.summary", err)
			return
		}

		f, err := roster.WriteVotedWorkbook(rows, summary)
		if err != nil {
			httpx.LogInternalError(w, "report.workbook", err)
			return
		}
		sendWorkbook(w, f, "voted_employees")
	}
}

func ExportAbsentees(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		absent, err := app.Reporter.NotVoted(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "report.not_voted", err)
			return
		}

		f, err := roster.WriteNotVotedWorkbook(absent)
		if err != nil {
			httpx.LogInternalError(w, "report.workbook", err)
			return
		}
		sendWorkbook(w, f, "not_voted_employees")
	}
}

func sendWorkbook(w http.ResponseWriter, f *excelize.File, name string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_%s.xlsx"`, name, time.Now().Format("20060102")))
	if err := f.Write(w); err != nil {
		log.Errorf("report.send: %s", err)
	}
}

func ClearResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Responses.DeleteAll(r.Context()); err != nil {
			httpx.LogInternalError(w, "db.clear_responses", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ResetDatabase wipes responses and employees together. Settings are
// kept.
func ResetDatabase(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(r.Context(), `DELETE FROM poll_results`); err != nil {
			httpx.LogInternalError(w, "db.reset.responses", err)
			return
		}
		if _, err := tx.ExecContext(r.Context(), `DELETE FROM employees`); err != nil {
			httpx.LogInternalError(w, "db.reset.employees", err)
			return
		}
		if err := tx.Commit(); err != nil {
			httpx.LogInternalError(w, "db.reset.commit", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
