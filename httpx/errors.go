package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/launchalot/log"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Path  string `json:"path,omitempty"`
}

// Will write a JSON error body with the given status
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// Like WriteError, also echoing the request path
func WriteErrorPath(w http.ResponseWriter, r *http.Request, status int, msg, path string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg, Path: path})
}

// Will log an error, and send an HTTP response with status 500 and the error message
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	msg := http.StatusText(http.StatusInternalServerError)
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	WriteError(w, r, http.StatusInternalServerError, msg)
}

// Will log a debug message, and send an HTTP response with status 404
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	WriteError(w, r, http.StatusNotFound, "Not found")
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	WriteError(w, r, status, errMsg)
}
