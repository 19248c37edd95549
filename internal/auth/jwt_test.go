package auth

import (
	"errors"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func TestIssueAndValidate(t *testing.T) {
	tok, err := Issue(secret, "ops", []string{CapUploadFiles}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := Validate(secret, tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "ops" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if !claims.Can(CapUploadFiles) {
		t.Error("expected upload_files capability")
	}
	if claims.Can("manage_options") {
		t.Error("unexpected capability")
	}
}

func TestValidateRejects(t *testing.T) {
	expired, _ := Issue(secret, "ops", nil, -time.Minute)
	if _, err := Validate(secret, expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: err = %v", err)
	}

	other, _ := Issue([]byte("other"), "ops", nil, time.Hour)
	if _, err := Validate(secret, other); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: err = %v", err)
	}

	if _, err := Validate(secret, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v", err)
	}
}
