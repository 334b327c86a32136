package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomHex(t *testing.T) {
	hex := GenerateRandomHex(16)
	if len(hex) != 16 {
		t.Errorf("expected 16 characters, got %d", len(hex))
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("unexpected character %q in hex string", r)
		}
	}
}

func TestGenerateRandomIDPrefix(t *testing.T) {
	id := GenerateRandomID("test_", 8)
	if !strings.HasPrefix(id, "test_") {
		t.Errorf("expected test_ prefix, got %q", id)
	}
	if len(id) != len("test_")+8 {
		t.Errorf("unexpected length %d", len(id))
	}
}

func TestGenerateConsultationRef(t *testing.T) {
	ref := GenerateConsultationRef()
	if !strings.HasPrefix(ref, "mc_") {
		t.Errorf("expected mc_ prefix, got %q", ref)
	}
	if len(ref) != len("mc_")+12 {
		t.Errorf("unexpected length %d", len(ref))
	}
	if ref == GenerateConsultationRef() && ref == GenerateConsultationRef() {
		t.Error("consecutive references should differ")
	}
}

func TestGenerateRandomAlphaNumeric(t *testing.T) {
	s := GenerateRandomAlphaNumeric(32)
	if len(s) != 32 {
		t.Errorf("expected 32 characters, got %d", len(s))
	}
}
