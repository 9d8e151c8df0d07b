package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studyspace-api/config"
)

const casSuccessXML = `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationSuccess>
    <cas:user> jdoe42 </cas:user>
  </cas:authenticationSuccess>
</cas:serviceResponse>`

const casFailureXML = `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationFailure code="INVALID_TICKET">
    Ticket ST-abc not recognized
  </cas:authenticationFailure>
</cas:serviceResponse>`

func newTestCASClient(baseURL string) *CASClient {
	return NewCASClient(config.CASConfig{BaseURL: baseURL})
}

func TestCASLoginURL(t *testing.T) {
	client := newTestCASClient("https://cas.test/cas")

	got := client.LoginURL("http://localhost:8080/auth/cas/callback")
	want := "https://cas.test/cas/login?service=http%3A%2F%2Flocalhost%3A8080%2Fauth%2Fcas%2Fcallback"
	if got != want {
		t.Errorf("LoginURL = %q, want %q", got, want)
	}
}

func TestCASValidateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p3/serviceValidate" {
			t.Errorf("path = %q, want /p3/serviceValidate", r.URL.Path)
		}
		if got := r.URL.Query().Get("ticket"); got != "ST-12345" {
			t.Errorf("ticket = %q, want ST-12345", got)
		}
		if got := r.URL.Query().Get("service"); got != "http://localhost:8080/auth/cas/callback" {
			t.Errorf("service = %q", got)
		}
		w.Write([]byte(casSuccessXML))
	}))
	defer server.Close()

	client := newTestCASClient(server.URL)
	netid, err := client.Validate(context.Background(), "ST-12345", "http://localhost:8080/auth/cas/callback")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if netid != "jdoe42" {
		t.Errorf("netid = %q, want jdoe42 (whitespace should be trimmed)", netid)
	}
}

func TestCASValidateRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(casFailureXML))
	}))
	defer server.Close()

	client := newTestCASClient(server.URL)
	_, err := client.Validate(context.Background(), "ST-bogus", "http://localhost:8080/auth/cas/callback")
	if err == nil {
		t.Fatal("expected error for rejected ticket")
	}
	if !strings.Contains(err.Error(), "INVALID_TICKET") {
		t.Errorf("error should carry the CAS failure code, got: %v", err)
	}
	if errors.Is(err, ErrCASUnavailable) {
		t.Error("a rejected ticket is not a transport failure")
	}
}

func TestCASValidateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestCASClient(server.URL)
	_, err := client.Validate(context.Background(), "ST-12345", "http://localhost:8080/auth/cas/callback")
	if err == nil {
		t.Fatal("expected error for non-200 CAS response")
	}
	if !errors.Is(err, ErrCASUnavailable) {
		t.Errorf("non-200 response should map to ErrCASUnavailable, got: %v", err)
	}
}

func TestCASValidateMissingUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationSuccess><cas:user></cas:user></cas:authenticationSuccess>
</cas:serviceResponse>`))
	}))
	defer server.Close()

	client := newTestCASClient(server.URL)
	_, err := client.Validate(context.Background(), "ST-12345", "http://localhost:8080/auth/cas/callback")
	if err == nil {
		t.Fatal("expected error when success element has no user")
	}
}
