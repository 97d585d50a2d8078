// ABOUTME: Operator CLI for the campaign-gateway review workflow
// ABOUTME: start, status, feedback, list, and health against the HTTP API

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/2389/campaign-gateway/internal/api"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	client := &gatewayClient{
		baseURL: gatewayURL(),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}

	var err error
	switch os.Args[1] {
	case "start":
		err = cmdStart(client, os.Args[2:])
	case "status":
		err = cmdStatus(client, os.Args[2:])
	case "feedback":
		err = cmdFeedback(client, os.Args[2:])
	case "list":
		err = cmdList(client)
	case "health":
		err = cmdHealth(client)
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	yellow := color.New(color.FgYellow)

	fmt.Println("Usage: campaignctl <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  start --product NAME --goal GOAL --budget BUDGET   Start a review workflow")
	fmt.Println("  status <session-id>                                Show session state and history")
	fmt.Println("  feedback <session-id> <text>                       Submit reviewer feedback")
	fmt.Println("  list                                               List all sessions")
	fmt.Println("  health                                             Check gateway health")
	fmt.Println()
	yellow.Println("Feedback grammar:")
	fmt.Println("  approve | reject | escalate:<reason> | request_info:<topic> | revise to <guidance>")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  CAMPAIGN_GATEWAY_URL   Gateway base URL (default: http://localhost:8080)")
}

func gatewayURL() string {
	if url := os.Getenv("CAMPAIGN_GATEWAY_URL"); url != "" {
		return strings.TrimSuffix(url, "/")
	}
	return "http://localhost:8080"
}

type gatewayClient struct {
	baseURL string
	http    *http.Client
}

func (c *gatewayClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func cmdStart(c *gatewayClient, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	product := fs.String("product", "", "product or service name")
	goal := fs.String("goal", "", "campaign objective")
	budget := fs.String("budget", "", "total campaign budget")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var started api.StartWorkflowResponse
	err := c.do(http.MethodPost, "/workflows", api.StartWorkflowRequest{
		ProductName:  *product,
		CampaignGoal: *goal,
		TotalBudget:  *budget,
	}, &started)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("Workflow started: %s\n", started.SessionID)
	fmt.Printf("State: %s\n\n", started.State)
	fmt.Println(started.Proposal)
	return nil
}

func cmdStatus(c *gatewayClient, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: campaignctl status <session-id>")
	}

	var status api.StatusResponse
	if err := c.do(http.MethodGet, "/workflows/"+args[0], nil, &status); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("Session %s\n", status.SessionID)
	fmt.Printf("  Product:    %s\n", status.CampaignSpec.ProductName)
	fmt.Printf("  State:      %s\n", stateColor(status.State))
	fmt.Printf("  Iterations: %d\n", status.IterationCount)
	fmt.Printf("  Created:    %s\n", status.CreatedAt)

	if len(status.ResearchContext) > 0 {
		cyan.Println("\nResearch:")
		for _, note := range status.ResearchContext {
			fmt.Printf("  - %s\n", note.Topic)
		}
	}

	cyan.Println("\nHistory:")
	for _, ev := range status.History {
		line := fmt.Sprintf("  %s  %-7s %s", ev.Timestamp, ev.Actor, ev.Kind)
		if ev.Intent != "" {
			line += fmt.Sprintf(" (%s)", ev.Intent)
		}
		fmt.Println(line)
	}

	cyan.Println("\nProposal:")
	fmt.Println(status.Proposal)
	return nil
}

func cmdFeedback(c *gatewayClient, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: campaignctl feedback <session-id> <text>")
	}
	id, text := args[0], strings.Join(args[1:], " ")

	var res api.FeedbackResponse
	err := c.do(http.MethodPost, "/workflows/"+id+"/feedback", api.FeedbackRequest{Feedback: text}, &res)
	if err != nil {
		return err
	}

	if res.Clarification != "" {
		color.Yellow("Not understood: %s\n", res.Clarification)
		return nil
	}

	fmt.Printf("Intent: %s\n", res.Intent)
	fmt.Printf("State:  %s\n", stateColor(res.State))
	fmt.Printf("Iterations: %d\n", res.IterationCount)
	return nil
}

func cmdList(c *gatewayClient) error {
	var summaries []api.SessionSummaryResponse
	if err := c.do(http.MethodGet, "/workflows", nil, &summaries); err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No sessions.")
		return nil
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("%-38s %-16s %-24s %s\n", "SESSION", "STATE", "PRODUCT", "ITERATIONS")
	for _, s := range summaries {
		fmt.Printf("%-38s %-16s %-24s %d\n", s.SessionID, s.State, s.ProductName, s.IterationCount)
	}
	return nil
}

func cmdHealth(c *gatewayClient) error {
	var health api.HealthResponse
	if err := c.do(http.MethodGet, "/health", nil, &health); err != nil {
		color.Red("UNREACHABLE")
		return err
	}
	color.Green("OK (%d active sessions)", health.ActiveSessions)
	return nil
}

func stateColor(state string) string {
	switch state {
	case "approved":
		return color.GreenString(state)
	case "rejected":
		return color.RedString(state)
	case "escalated":
		return color.YellowString(state)
	default:
		return state
	}
}
