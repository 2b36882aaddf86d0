// Package portal implements the authenticated session against the
// time-and-attendance web portal. The portal has no API: login is a
// form post against its SSO agent, the timesheet is the rendered page
// itself, and clock events go to a legacy asmx endpoint.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://workforcenow.adp.com"

	loginPath     = "/siteminderagent/forms/login.fcc"
	timesheetPath = "/ezLaborManagerNet/UI4/WFN/Portlet/MyTime.aspx"
	clockPath     = "/ezLaborManagerNet/UI4/Common/TLMRevitServices.asmx/ProcessClockFunctionAndReturnMsg"
)

// Client is an authenticated portal session. Authentication lives entirely in
// the cookie jar, so replacing the session means calling Login again on the
// same client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// Login posts the SSO form and returns the page it lands on. Rejected
// credentials do not fail here: the portal answers 200 either way and the
// failure only shows up when the landing page fails to parse.
func (c *Client) Login(ctx context.Context, username, secret string) (string, error) {
	form := url.Values{
		"target":   {c.baseURL + timesheetPath},
		"USER":     {username},
		"PASSWORD": {secret},
	}

	c.logger.Debug("portal login", "user", username)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

// Refresh fetches the timesheet page in the context of the current session.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	c.logger.Debug("portal refresh")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+timesheetPath, nil)
	if err != nil {
		return "", fmt.Errorf("creating refresh request: %w", err)
	}
	return c.do(req)
}

// SubmitClockIntent posts a clock event ("IN" or "OUT") for the identified
// employee and returns the portal's textual reply for the caller to classify.
func (c *Client) SubmitClockIntent(ctx context.Context, custID, empID, event string) (string, error) {
	payload := map[string]string{
		"iCustID":     custID,
		"sEmployeeID": empID,
		"sEvent":      event,
		"sCulture":    "en-US",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling clock request: %w", err)
	}

	c.logger.Debug("portal clock event", "event", event)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+clockPath,
		bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating clock request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (string, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("portal request failed", "path", req.URL.Path, "error", err)
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("portal response", "path", req.URL.Path,
		"status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("portal returned status %d", resp.StatusCode)
	}
	return string(body), nil
}
