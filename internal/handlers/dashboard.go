package handlers

import (
	"html/template"
	"net/http"

	"github.com/bancodev/bankdash-gobackend/internal/dashboard"
)

// DashboardHandler renders the four-card dashboard page. Data loading and
// failure isolation live in the aggregator; this handler only templates the
// result.
type DashboardHandler struct {
	aggregator *dashboard.Aggregator
	tmpl       *template.Template
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Panel bancario</title>
</head>
<body>
<h1>Panel bancario</h1>
{{template "card" .Accounts}}
{{template "card" .Transactions}}
{{template "card" .Transfers}}
{{template "card" .Balance}}
</body>
</html>
{{define "card"}}<div class="card{{if .Err}} card-error{{end}}">
<h2>{{.Title}}</h2>
<ul>
{{range .Lines}}<li>{{.}}</li>
{{end}}</ul>
</div>
{{end}}`))

func NewDashboardHandler(aggregator *dashboard.Aggregator) *DashboardHandler {
	return &DashboardHandler{aggregator: aggregator, tmpl: dashboardTmpl}
}

// ServeDashboard renders GET /app/dashboard. The optional account query
// parameter selects the account for the balance card.
func (h *DashboardHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	data := h.aggregator.Load(r.Context(), r.URL.Query().Get("account"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
	}
}
