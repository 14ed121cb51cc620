package db

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestExtractCompanyID(t *testing.T) {
	tests := []struct {
		name    string
		jwt     string
		header  string
		query   string
		want    string
	}{
		{name: "jwt claim wins", jwt: "acme", header: "other", query: "third", want: "acme"},
		{name: "header when no claim", header: "acme", query: "other", want: "acme"},
		{name: "query param fallback", query: "acme", want: "acme"},
		{name: "default when nothing set", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			target := "/"
			if tt.query != "" {
				target = "/?company_id=" + tt.query
			}
			req := httptest.NewRequest("GET", target, nil)
			if tt.header != "" {
				req.Header.Set("X-Company-ID", tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			if tt.jwt != "" {
				c.Set("jwt_company_id", tt.jwt)
			}

			if got := extractCompanyID(c, "default"); got != tt.want {
				t.Errorf("extractCompanyID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompanyIDPattern(t *testing.T) {
	valid := []string{"default", "acme_health", "Org42"}
	invalid := []string{"", "acme-health", "a;DROP TABLE", "a b"}

	for _, id := range valid {
		if !companyIDPattern.MatchString(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	for _, id := range invalid {
		if companyIDPattern.MatchString(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestCompanyFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), CompanyIDKey, "acme")
	if got := CompanyFromContext(ctx); got != "acme" {
		t.Errorf("CompanyFromContext() = %q, want acme", got)
	}
	if got := CompanyFromContext(context.Background()); got != "" {
		t.Errorf("CompanyFromContext() on empty ctx = %q, want empty", got)
	}
}

func TestTxFromContextIgnoresWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, "not-a-tx")
	if tx := TxFromContext(ctx); tx != nil {
		t.Error("expected nil for non-Tx context value")
	}
}
