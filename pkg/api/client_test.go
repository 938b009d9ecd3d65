package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starrain-dev/botctl/internal/ctltest"
)

func TestLogin(t *testing.T) {
	srv := ctltest.New()
	defer srv.Close()

	client := New(srv.URL())
	result, err := client.Login(context.Background(), ctltest.Username, ctltest.Password)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Fatal("Login() returned an empty token")
	}
	if client.Credential() != result.Token {
		t.Error("credential was not stored on the client")
	}
}

func TestLoginBadPassword(t *testing.T) {
	srv := ctltest.New()
	defer srv.Close()

	client := New(srv.URL())
	_, err := client.Login(context.Background(), ctltest.Username, "wrong")
	if !IsUnauthorized(err) {
		t.Fatalf("Login() error = %v, want unauthorized", err)
	}
	if client.Credential() != "" {
		t.Error("failed login must not leave a credential behind")
	}
}

func TestTimeout(t *testing.T) {
	srv := ctltest.New()
	defer srv.Close()
	srv.Delay = 300 * time.Millisecond

	client := New(srv.URL(), WithTimeout(50*time.Millisecond))
	client.SetCredential(srv.IssueToken())

	start := time.Now()
	_, err := client.Status(context.Background())
	if !IsTimeout(err) {
		t.Fatalf("Status() error = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("call was not cancelled at the deadline, took %v", elapsed)
	}
}

func TestUnauthorizedClearsCredential(t *testing.T) {
	srv := ctltest.New()
	defer srv.Close()

	client := New(srv.URL())
	token := srv.IssueToken()
	client.SetCredential(token)
	srv.RevokeToken(token)

	_, err := client.Status(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("Status() error = %v, want unauthorized", err)
	}
	if client.Credential() != "" {
		t.Error("401 must clear the held credential")
	}
}

func TestRateLimitedKeepsCredential(t *testing.T) {
	srv := ctltest.New()
	defer srv.Close()

	client := New(srv.URL())
	token := srv.IssueToken()
	client.SetCredential(token)

	srv.FailNext(http.StatusTooManyRequests, `{"success":false,"error":"slow down","code":429}`)
	_, err := client.Status(context.Background())
	if !IsRateLimited(err) {
		t.Fatalf("Status() error = %v, want rate_limited", err)
	}
	if client.Credential() != token {
		t.Error("429 must not clear the credential")
	}
}

func TestServerErrorCarriesMessage(t *testing.T) {
	srv := ctltest.New()
	defer srv.Close()

	client := New(srv.URL())
	client.SetCredential(srv.IssueToken())

	srv.FailNext(http.StatusBadRequest, `{"success":false,"error":"not found","code":400}`)
	err := client.EnablePlugin(context.Background(), "missing")
	if !IsServerError(err) {
		t.Fatalf("EnablePlugin() error = %v, want server_error", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error %q should carry the server message", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := ctltest.New()
	url := srv.URL()
	srv.Close()

	client := New(url)
	_, err := client.Status(context.Background())
	if !IsNetwork(err) {
		t.Fatalf("Status() error = %v, want network", err)
	}
}

func TestMalformedBodyTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("definitely not json"))
	}))
	defer srv.Close()

	client := New(srv.URL)
	st, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v, want graceful degradation", err)
	}
	if st.Running || st.QQ != 0 {
		t.Errorf("Status() = %+v, want zero value", st)
	}
}

func TestNonceIsFresh(t *testing.T) {
	srv := ctltest.New()
	defer srv.Close()

	client := New(srv.URL())
	client.SetCredential(srv.IssueToken())

	first, err := client.Nonce(context.Background())
	if err != nil {
		t.Fatalf("Nonce() error = %v", err)
	}
	second, err := client.Nonce(context.Background())
	if err != nil {
		t.Fatalf("Nonce() error = %v", err)
	}
	if first == "" || first == second {
		t.Errorf("nonces must be fresh per call: %q vs %q", first, second)
	}
}
