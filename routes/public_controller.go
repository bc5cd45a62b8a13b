package routes

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/oauth"
	"github.com/go-chi/render"

	"github.com/pak-it/checkin/app"
	"github.com/pak-it/checkin/httpx"
	"github.com/pak-it/checkin/log"
	"github.com/pak-it/checkin/model"
	"github.com/pak-it/checkin/phone"
	"github.com/pak-it/checkin/poll"
)

// Login exchanges basic-auth credentials for a bearer token. Staff
// authenticate with phone + shared staff password; the username
// "admin" selects the administrator password instead. Staff requests
// are pre-checked so a malformed phone reports 400 and an unknown one
// 404, distinct from a wrong password.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		if user != httpx.AdminUsername {
			cfg, err := app.Settings.PollConfig(r.Context())
			if err != nil {
				httpx.LogInternalError(w, "login.poll_config", err)
				return
			}
			canonical := phone.Canonicalize(user)
			if !phone.Validate(canonical, cfg.ValidationMode) {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
					"login.phone_format", "invalid phone number format")
				return
			}
			emp, err := app.Employees.Find(r.Context(), canonical)
			if err != nil {
				httpx.LogInternalError(w, "login.find_employee", err)
				return
			}
			if emp == nil {
				httpx.LogStatusMsg(w, http.StatusNotFound, log.DebugLevel,
					"login.unknown_phone", "phone number not found in employee database")
				return
			}
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}
		r.Body = io.NopCloser(strings.NewReader(body.Encode()))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body.Encode())))
		app.UserCredentials(w, r)
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("authorization")
		match := regexp.MustCompile(`(?i)^refresh\s+(.*)`).FindStringSubmatch(auth)
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}
		token := match[1]

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
		}

		req, err := http.NewRequest("POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogStatus(w, http.StatusInternalServerError, log.DebugLevel, "refresh.new_request")
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}

func claimPhone(r *http.Request) string {
	claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	return claims["phone"]
}

// GetPoll reports the poll window state for the logged-in employee,
// with boundaries formatted per the configured display preference and
// the remaining time while open.
func GetPoll(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, state, left, err := app.Poll.Status(r.Context(), time.Now())
		if err != nil {
			httpx.LogInternalError(w, "poll.status", err)
			return
		}

		result := map[string]any{
			"state":    state.String(),
			"timezone": cfg.Timezone,
			"starts":   cfg.FormatDisplay(cfg.Start),
			"ends":     cfg.FormatDisplay(cfg.End),
		}
		if state == poll.Open {
			result["remaining"] = left
			result["remaining_label"] = left.String()
		}

		if p := claimPhone(r); p != "" {
			voted, err := app.Responses.Has(r.Context(), p)
			if err != nil {
				httpx.LogInternalError(w, "poll.has_voted", err)
				return
			}
			result["voted"] = voted
		}

		render.JSON(w, r, result)
	}
}

// SubmitResponse records the logged-in employee's safety status.
func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Choice model.Choice `json:"choice"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		p := claimPhone(r)
		if p == "" {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "submit.no_phone_claim")
			return
		}

		err = app.Poll.Submit(r.Context(), p, body.Choice, time.Now())
		var notOpen *poll.NotOpenError
		switch {
		case err == nil:
			w.WriteHeader(http.StatusCreated)
			render.JSON(w, r, map[string]any{"recorded": true})
		case errors.As(err, &notOpen):
			cfg, cfgErr := app.Settings.PollConfig(r.Context())
			boundary := notOpen.Boundary.String()
			if cfgErr == nil {
				boundary = cfg.FormatDisplay(notOpen.Boundary)
			}
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel,
				"submit.not_open", "poll is %s (boundary: %s)", notOpen.State, boundary)
		case errors.Is(err, poll.ErrAlreadyVoted):
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel,
				"submit.already_voted", "%s", err)
		case errors.Is(err, poll.ErrUnknownEmployee):
			httpx.LogStatusMsg(w, http.StatusNotFound, log.DebugLevel,
				"submit.unknown_employee", "%s", err)
		case errors.Is(err, poll.ErrInvalidChoice):
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"submit.invalid_choice", "%s", err)
		default:
			httpx.LogInternalError(w, "submit.save", err)
		}
	}
}
