package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
	"github.com/mbolis/launchalot/report"
)

// PublicReport renders the posted sections as a PDF attachment.
func PublicReport(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req report.Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badRequest(w, r, "request.report", err)
			return
		}

		buf := httpx.NewResponseBuffer()
		buf.Attachment("report.pdf", "application/pdf")
		if err := app.Reports.Render(r.Context(), req, buf); err != nil {
			log.Errorf("report.render: %s", err)
			app.Metrics.RecordReport(false)
			httpx.WriteError(w, r, http.StatusInternalServerError, "Failed to build PDF")
			return
		}
		app.Metrics.RecordReport(true)

		if err := buf.Flush(w); err != nil {
			log.Warnf("report.write: %s", err)
		}
	}
}
