package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mbolis/launchalot/database"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
)

// storeError answers 404 for missing documents and 500 for anything else.
func storeError(w http.ResponseWriter, r *http.Request, code string, id any, err error) {
	if errors.Is(err, database.ErrNotFound) {
		httpx.LogNotFound(w, r, code, id)
		return
	}
	httpx.LogInternalError(w, r, code, err)
}

func badRequest(w http.ResponseWriter, r *http.Request, code string, err error) {
	httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, code, "%s", err)
}

func requireText(name string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return errors.New(name + " is required")
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type okResponse struct {
	OK bool `json:"ok"`
}
