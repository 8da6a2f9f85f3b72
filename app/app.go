package app

import (
	"github.com/mbolis/launchalot/config"
	"github.com/mbolis/launchalot/database"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/metrics"
	"github.com/mbolis/launchalot/report"
)

type App struct {
	database.Store
	config.Config

	Tokens      *httpx.TokenIssuer
	Credentials httpx.AdminCredentials
	Metrics     *metrics.Metrics
	Reports     *report.Renderer
}
