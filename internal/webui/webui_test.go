// ABOUTME: Tests for the review dashboard
// ABOUTME: Verifies list/detail rendering and Markdown conversion

package webui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/campaign-gateway/internal/intent"
	"github.com/2389/campaign-gateway/internal/llm"
	"github.com/2389/campaign-gateway/internal/store"
	"github.com/2389/campaign-gateway/internal/workflow"
)

func newTestUI(t *testing.T) (*workflow.Engine, *httptest.Server) {
	t.Helper()
	engine := workflow.New(store.NewMemoryStore(), llm.StaticGenerator{}, intent.NewChain(nil, nil), nil)
	srv := httptest.NewServer(http.StripPrefix("/ui", New(engine, nil).Routes()))
	t.Cleanup(srv.Close)
	return engine, srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestListPage(t *testing.T) {
	engine, srv := newTestUI(t)
	session, err := engine.Start(context.Background(), store.CampaignSpec{
		ProductName: "EcoFresh Smoothies", CampaignGoal: "Health launch", TotalBudget: "$500K",
	})
	require.NoError(t, err)

	status, body := get(t, srv.URL+"/ui/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, session.ID)
	assert.Contains(t, body, "EcoFresh Smoothies")
	assert.Contains(t, body, "pending_review")
}

func TestDetailPage_RendersMarkdownProposal(t *testing.T) {
	engine, srv := newTestUI(t)
	session, err := engine.Start(context.Background(), store.CampaignSpec{
		ProductName: "EcoFresh Smoothies", CampaignGoal: "Health launch", TotalBudget: "$500K",
	})
	require.NoError(t, err)

	status, body := get(t, srv.URL+"/ui/sessions/"+session.ID)
	assert.Equal(t, http.StatusOK, status)
	// StaticGenerator emits a "# Campaign Proposal" heading; goldmark
	// should turn it into an h1.
	assert.Contains(t, body, "<h1>Campaign Proposal: EcoFresh Smoothies</h1>")
}

func TestDetailPage_UnknownSession(t *testing.T) {
	_, srv := newTestUI(t)
	status, _ := get(t, srv.URL+"/ui/sessions/missing")
	assert.Equal(t, http.StatusNotFound, status)
}
