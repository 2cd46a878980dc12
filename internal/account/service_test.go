package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/KiranJulakanti/chatagent/internal/auth"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

var accountIDPattern = regexp.MustCompile(`^DEM000\d{5}$`)

func TestCreateCustomerAccountReturnsGeneratedID(t *testing.T) {
	var gotBody createRequest
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		// Response body is deliberately useless; the adapter must not depend on it.
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	sink := telemetry.NewInMemorySink(32)
	svc := New(ts.URL, auth.NewStaticTokenProvider("acc-token"), 2*time.Second, telemetry.NewService(sink, nil), nil)

	id, err := svc.CreateCustomerAccount(context.Background(), "Acme", "T123")
	if err != nil {
		t.Fatalf("CreateCustomerAccount() error = %v", err)
	}
	if !accountIDPattern.MatchString(id) {
		t.Fatalf("account id = %q, want DEM000xxxxx", id)
	}
	if gotAuth != "Bearer acc-token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody.CustomerName != "Acme" || gotBody.CustomerTaxID != "T123" {
		t.Fatalf("request body = %+v", gotBody)
	}
	if gotBody.AccountID != id {
		t.Fatalf("wire account id %q != returned id %q", gotBody.AccountID, id)
	}
}

func TestCreateCustomerAccountFailsOnNonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate tax id", http.StatusConflict)
	}))
	defer ts.Close()

	sink := telemetry.NewInMemorySink(32)
	svc := New(ts.URL, auth.NewStaticTokenProvider("t"), 2*time.Second, telemetry.NewService(sink, nil), nil)

	_, err := svc.CreateCustomerAccount(context.Background(), "Acme", "T123")
	if err == nil {
		t.Fatalf("CreateCustomerAccount() expected error for 409")
	}
	if !strings.Contains(err.Error(), "status 409") {
		t.Fatalf("error = %v", err)
	}

	var sawFailure bool
	for _, rec := range sink.Recent(0) {
		if rec.Kind == telemetry.KindDependency && !rec.Success {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Fatalf("expected failed dependency record")
	}
}

func TestCreateCustomerAccountKeepsTaxIDOutOfTelemetry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sink := telemetry.NewInMemorySink(32)
	svc := New(ts.URL, auth.NewStaticTokenProvider("t"), 2*time.Second, telemetry.NewService(sink, nil), nil)

	if _, err := svc.CreateCustomerAccount(context.Background(), "Acme", "SECRET-TAX-42"); err != nil {
		t.Fatalf("CreateCustomerAccount() error = %v", err)
	}

	for _, rec := range sink.Recent(0) {
		for k, v := range rec.Props {
			if strings.Contains(v, "SECRET-TAX-42") {
				t.Fatalf("tax id leaked into telemetry prop %q: %q", k, v)
			}
		}
	}
}

func TestGenerateAccountIDShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		if id := GenerateAccountID(); !accountIDPattern.MatchString(id) {
			t.Fatalf("GenerateAccountID() = %q", id)
		}
	}
}
