package models

import (
	"errors"
	"testing"
)

func TestParseAuditAction_Known(t *testing.T) {
	for _, s := range []string{"SUSPEND", "PERMANENT_DELETE", "EXPERT_REVOKE", "COURSE_DELETE", "GROUP_DELETE"} {
		a, err := ParseAuditAction(s)
		if err != nil {
			t.Fatalf("ParseAuditAction(%q) = %v, want nil", s, err)
		}
		if string(a) != s {
			t.Errorf("ParseAuditAction(%q) = %q", s, a)
		}
	}
}

func TestParseAuditAction_Unknown(t *testing.T) {
	_, err := ParseAuditAction("suspend")
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("expected ErrBadRequest for lowercase action, got %v", err)
	}
}

func TestAuditMetadata_ValueAndScan(t *testing.T) {
	md := AuditMetadata{"previous_role": "ADMIN", "new_role": "STUDENT"}

	v, err := md.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned AuditMetadata
	if err := scanned.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if scanned["new_role"] != "STUDENT" {
		t.Errorf("expected new_role STUDENT, got %v", scanned["new_role"])
	}
}

func TestAuditMetadata_EmptyIsNull(t *testing.T) {
	v, err := AuditMetadata{}.Value()
	if err != nil || v != nil {
		t.Errorf("expected NULL for empty metadata, got %v, %v", v, err)
	}

	var md AuditMetadata
	if err := md.Scan(nil); err != nil || md != nil {
		t.Errorf("expected nil metadata after scanning NULL, got %v, %v", md, err)
	}
}

func TestAuditMetadata_ScanRejectsUnknownType(t *testing.T) {
	var md AuditMetadata
	if err := md.Scan(42); !errors.Is(err, ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
}
