package token

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/errs"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("secret", DefaultTTL)
	subject := primitive.NewObjectID()

	signed, err := issuer.Issue(subject)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := issuer.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != subject {
		t.Errorf("subject mismatch: got %s want %s", got.Hex(), subject.Hex())
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("secret", DefaultTTL)
	other := NewIssuer("other-secret", DefaultTTL)

	signed, err := issuer.Issue(primitive.NewObjectID())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.Verify(signed); errs.KindOf(err) != errs.KindUnauthorized {
		t.Errorf("expected unauthorized for wrong secret, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Nanosecond)

	signed, err := issuer.Issue(primitive.NewObjectID())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	_, err = issuer.Verify(signed)
	if errs.KindOf(err) != errs.KindUnauthorized {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
	if err.Error() != "Token has expired." {
		t.Errorf("expiry should be reported distinctly, got %q", err.Error())
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewIssuer("secret", DefaultTTL)
	if _, err := issuer.Verify("not-a-token"); errs.KindOf(err) != errs.KindUnauthorized {
		t.Errorf("expected unauthorized for malformed token, got %v", err)
	}
}
