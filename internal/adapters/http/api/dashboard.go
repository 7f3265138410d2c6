package api

import (
	"embed"
	"net/http"
)

//go:embed static/dashboard.html
var staticFS embed.FS

// dashboardHandler serves the results page.
type dashboardHandler struct{}

func newDashboardHandler() *dashboardHandler {
	return &dashboardHandler{}
}

// HandleDashboard handles GET /dashboard requests. The page polls the JSON
// endpoints and renders the scoreboard, cross table and output pane.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS, "static/dashboard.html")
}
