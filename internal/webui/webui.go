// ABOUTME: Read-only review dashboard for campaign sessions
// ABOUTME: Renders session lists and proposal Markdown via goldmark

package webui

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/2389/campaign-gateway/internal/store"
	"github.com/2389/campaign-gateway/internal/workflow"
)

// UI serves the read-only dashboard. All mutation goes through the JSON API;
// this surface exists so reviewers can read proposals, research, and history
// without piping JSON through a pager.
type UI struct {
	engine *workflow.Engine
	logger *slog.Logger
}

// New creates the dashboard handler.
func New(engine *workflow.Engine, logger *slog.Logger) *UI {
	if logger == nil {
		logger = slog.Default()
	}
	return &UI{
		engine: engine,
		logger: logger.With("component", "webui"),
	}
}

// Routes returns the dashboard router, intended to be mounted under /ui.
func (u *UI) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", u.listSessions)
	r.Get("/sessions/{id}", u.showSession)
	return r
}

type sessionListData struct {
	Sessions []*store.Summary
}

type sessionDetailData struct {
	Session      *store.Session
	ProposalHTML template.HTML
	Diff         string
}

func (u *UI) listSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := u.engine.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	u.render(w, listTemplate, sessionListData{Sessions: summaries})
}

func (u *UI) showSession(w http.ResponseWriter, r *http.Request) {
	session, err := u.engine.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(session.Proposal), &htmlBuf); err != nil {
		u.logger.Error("failed to convert proposal markdown", "error", err)
		htmlBuf.WriteString("<p>Failed to render proposal.</p>")
	}

	u.render(w, detailTemplate, sessionDetailData{
		Session:      session,
		ProposalHTML: template.HTML(htmlBuf.String()),
		Diff:         latestDiff(session),
	})
}

// latestDiff returns the diff from the most recent revision event, if any.
func latestDiff(session *store.Session) string {
	for i := len(session.History) - 1; i >= 0; i-- {
		if session.History[i].Kind == store.EventKindProposalRevised {
			return session.History[i].Detail
		}
	}
	return ""
}

func (u *UI) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		u.logger.Error("template render failed", "error", err)
	}
}
