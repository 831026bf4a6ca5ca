// Package assessmentapi is the HTTP client for the assessment content
// provider and scoring authority.
package assessmentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arvanehlab/ravan_backend/config"
	"github.com/arvanehlab/ravan_backend/internal/assessment"
	"github.com/arvanehlab/ravan_backend/internal/provider"
	"github.com/arvanehlab/ravan_backend/internal/session"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(cfg config.ProviderEndpointConfig) *Client {
	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Load fetches the immutable ordered question list for an assessment.
func (c *Client) Load(ctx context.Context, assessmentID string) (*assessment.Definition, error) {
	const op = "load assessment"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/assessments/"+assessmentID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	provider.Authorize(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &provider.ServerError{Op: op, Status: res.StatusCode, Message: readMessage(res)}
	}

	var body struct {
		Definition assessment.Definition `json:"definition"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	if body.Definition.ID == "" || len(body.Definition.Questions) == 0 {
		return nil, &provider.ServerError{Op: op, Status: res.StatusCode, Message: "definition is empty"}
	}
	return &body.Definition, nil
}

// SubmitResponses sends the completed answer set once and returns the
// authoritative score and severity tier.
func (c *Client) SubmitResponses(ctx context.Context, sub session.SubmitRequest) (*assessment.SubmissionResult, error) {
	const op = "submit responses"

	payload := struct {
		Responses       []assessment.Response `json:"responses"`
		ConsentAccepted bool                  `json:"consentAccepted"`
		StartedAt       time.Time             `json:"startedAt"`
	}{
		Responses:       sub.Responses,
		ConsentAccepted: sub.ConsentAccepted,
		StartedAt:       sub.StartedAt,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/assessments/"+sub.AssessmentID+"/submit", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	provider.Authorize(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &provider.ServerError{Op: op, Status: res.StatusCode, Message: readMessage(res)}
	}

	var body struct {
		SubmissionID string    `json:"submissionId"`
		TotalScore   int       `json:"totalScore"`
		SeverityTier string    `json:"severityTier"`
		SubmittedAt  time.Time `json:"submittedAt"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode submission result: %w", err)
	}
	if body.SubmissionID == "" {
		return nil, &provider.ServerError{Op: op, Status: res.StatusCode, Message: "submission id missing from response"}
	}

	// Unknown tiers are preserved verbatim; escalation gating fails closed
	// on them.
	sev, _ := assessment.ParseSeverity(body.SeverityTier)

	return &assessment.SubmissionResult{
		SubmissionID: body.SubmissionID,
		TotalScore:   body.TotalScore,
		Severity:     sev,
		SubmittedAt:  body.SubmittedAt,
	}, nil
}

// readMessage extracts the backend's message field from a non-2xx body.
func readMessage(res *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return ""
	}
	return body.Message
}
