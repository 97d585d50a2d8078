// ABOUTME: HTML templates for the review dashboard
// ABOUTME: Inline templates, parsed once at init

package webui

import "html/template"

var listTemplate = template.Must(template.New("list").Parse(`<!DOCTYPE html>
<html>
<head><title>Campaign Sessions</title><style>` + baseCSS + `</style></head>
<body>
<h1>Campaign Sessions</h1>
<table>
<tr><th>Session</th><th>Product</th><th>State</th><th>Iterations</th><th>Created</th></tr>
{{range .Sessions}}
<tr>
  <td><a href="/ui/sessions/{{.ID}}">{{.ID}}</a></td>
  <td>{{.ProductName}}</td>
  <td><span class="state state-{{.State}}">{{.State}}</span></td>
  <td>{{.IterationCount}}</td>
  <td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
</tr>
{{else}}
<tr><td colspan="5">No sessions yet.</td></tr>
{{end}}
</table>
</body>
</html>`))

var detailTemplate = template.Must(template.New("detail").Parse(`<!DOCTYPE html>
<html>
<head><title>Session {{.Session.ID}}</title><style>` + baseCSS + `</style></head>
<body>
<p><a href="/ui/">&larr; all sessions</a></p>
<h1>{{.Session.Spec.ProductName}}</h1>
<p>
  <span class="state state-{{.Session.State}}">{{.Session.State}}</span>
  &middot; goal: {{.Session.Spec.CampaignGoal}}
  &middot; budget: {{.Session.Spec.TotalBudget}}
  &middot; iteration {{.Session.IterationCount}}
</p>

<h2>Proposal</h2>
<div class="proposal">{{.ProposalHTML}}</div>

{{if .Diff}}
<h2>Latest revision diff</h2>
<pre class="diff">{{.Diff}}</pre>
{{end}}

{{if .Session.Research}}
<h2>Research</h2>
{{range .Session.Research}}
<h3>{{.Topic}}</h3>
<p>{{.Content}}</p>
{{end}}
{{end}}

<h2>History</h2>
<table>
<tr><th>Time</th><th>Actor</th><th>Event</th><th>Intent</th><th>State</th></tr>
{{range .Session.History}}
<tr>
  <td>{{.Timestamp.Format "15:04:05"}}</td>
  <td>{{.Actor}}</td>
  <td>{{.Kind}}</td>
  <td>{{.Intent}}</td>
  <td>{{.State}}</td>
</tr>
{{end}}
</table>
</body>
</html>`))

const baseCSS = `
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #ddd; }
.state { padding: 0.1rem 0.5rem; border-radius: 0.5rem; background: #eee; font-size: 0.85rem; }
.state-approved { background: #d4edda; }
.state-rejected { background: #f8d7da; }
.state-escalated { background: #fff3cd; }
.proposal { border: 1px solid #ddd; border-radius: 0.5rem; padding: 1rem; }
.diff { background: #f6f8fa; padding: 1rem; overflow-x: auto; }
`
