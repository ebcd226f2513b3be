package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer("tgsession-test", []byte("un-secreto-de-test-suficiente"), time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return iss
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	if _, err := NewIssuer("x", nil, time.Hour, time.Hour); err == nil {
		t.Fatalf("expected error with empty secret")
	}
}

func TestIssuePair_ParseRoundTrip(t *testing.T) {
	iss := testIssuer(t)

	pair, err := iss.IssuePair("acc-1", repository.RoleProvider, "ar-1", "prov-1", "sec-abc")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.RefreshSecret != "sec-abc" {
		t.Fatalf("refresh secret: %q", pair.RefreshSecret)
	}

	ac, err := iss.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if ac.AccountID != "acc-1" || ac.AuthRecordID != "ar-1" || ac.ProviderID != "prov-1" {
		t.Fatalf("access claims: %+v", ac)
	}
	if ac.Role != repository.RoleProvider {
		t.Fatalf("role: %q", ac.Role)
	}
	if ac.ExpiresAt.IsZero() || time.Until(ac.ExpiresAt) > time.Hour+time.Minute {
		t.Fatalf("exp fuera de rango: %v", ac.ExpiresAt)
	}

	rc, err := iss.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if rc.AccountID != "acc-1" || rc.AuthRecordID != "ar-1" || rc.RefreshSecret != "sec-abc" {
		t.Fatalf("refresh claims: %+v", rc)
	}
}

func TestIssueAccess_SinProvider(t *testing.T) {
	iss := testIssuer(t)

	tok, _, err := iss.IssueAccess("acc-1", repository.RoleUser, "ar-1", "")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	ac, err := iss.ParseAccess(tok)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if ac.ProviderID != "" {
		t.Fatalf("provider id debería ser vacío: %q", ac.ProviderID)
	}
}

func TestParse_WrongType(t *testing.T) {
	iss := testIssuer(t)
	pair, err := iss.IssuePair("acc-1", repository.RoleUser, "ar-1", "", "sec")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	// Un refresh presentado como access (y viceversa) se rechaza por typ.
	if _, err := iss.ParseAccess(pair.RefreshToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("want ErrWrongTokenType, got %v", err)
	}
	if _, err := iss.ParseRefresh(pair.AccessToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("want ErrWrongTokenType, got %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	iss := testIssuer(t)
	other, err := NewIssuer("tgsession-test", []byte("otro-secreto-distinto"), time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	tok, _, err := iss.IssueAccess("acc-1", repository.RoleUser, "ar-1", "")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := other.ParseAccess(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	iss := testIssuer(t)
	// Emitir en el pasado: exp queda vencido más allá del leeway.
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := iss.IssueAccess("acc-1", repository.RoleUser, "ar-1", "")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.ParseAccess(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken en token vencido, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	iss := testIssuer(t)
	for _, tok := range []string{"", "no.es.jwt", "a.b"} {
		if _, err := iss.ParseAccess(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%q: want ErrInvalidToken, got %v", tok, err)
		}
	}
}
