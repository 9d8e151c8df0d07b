package services

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studyspace-api/config"
)

// ErrCASUnavailable marks transport-level failures (connection refused,
// non-200 status) as opposed to CAS actively rejecting the ticket. The
// callback handler redirects differently for the two cases.
var ErrCASUnavailable = errors.New("cas server unavailable")

// CASClient speaks the two pieces of the campus CAS protocol the API
// needs: building the login redirect and redeeming tickets against
// p3/serviceValidate.
type CASClient struct {
	baseURL string
	httpc   *http.Client
}

func NewCASClient(cfg config.CASConfig) *CASClient {
	return &CASClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// LoginURL is where the browser gets sent to authenticate. CAS bounces
// back to serviceURL with a single-use ?ticket= parameter.
func (c *CASClient) LoginURL(serviceURL string) string {
	return fmt.Sprintf("%s/login?service=%s", c.baseURL, url.QueryEscape(serviceURL))
}

// Validation responses arrive namespaced (xmlns:cas, Yale schema);
// matching on local names keeps this working across CAS deployments.
type casServiceResponse struct {
	XMLName xml.Name    `xml:"serviceResponse"`
	Success *casSuccess `xml:"authenticationSuccess"`
	Failure *casFailure `xml:"authenticationFailure"`
}

type casSuccess struct {
	User string `xml:"user"`
}

type casFailure struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// Validate redeems a ticket and returns the NetID it was issued for.
func (c *CASClient) Validate(ctx context.Context, ticket, serviceURL string) (string, error) {
	q := url.Values{}
	q.Set("service", serviceURL)
	q.Set("ticket", ticket)
	validateURL := fmt.Sprintf("%s/p3/serviceValidate?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validateURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCASUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrCASUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("cas validate read body: %w", err)
	}

	var parsed casServiceResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("cas validate parse: %w", err)
	}

	if parsed.Failure != nil {
		return "", fmt.Errorf("cas rejected ticket: %s (%s)",
			strings.TrimSpace(parsed.Failure.Message), parsed.Failure.Code)
	}
	if parsed.Success == nil || strings.TrimSpace(parsed.Success.User) == "" {
		return "", fmt.Errorf("cas response missing user")
	}
	return strings.TrimSpace(parsed.Success.User), nil
}
