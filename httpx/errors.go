package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pak-it/checkin/log"
)

func jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Will log an error, and send a JSON error response with status 500
// and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	jsonError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// Will log a debug message, and send a JSON error response with
// status 404
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	jsonError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// Will log an error code at the given level, and send a JSON error
// response with the given status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	jsonError(w, status, http.StatusText(status))
}

// Will log an error code and message at the given level, and send a
// JSON error response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	jsonError(w, status, errMsg)
}
