package document

import "testing"

func TestClean(t *testing.T) {
	if got := Clean("123.456.789-01"); got != "12345678901" {
		t.Fatalf("Clean = %q, want digits only", got)
	}
	if got := Clean("12.345.678/0001-90"); got != "12345678000190" {
		t.Fatalf("Clean cnpj = %q", got)
	}
}

func TestValid(t *testing.T) {
	if !CPF.Valid("12345678901") {
		t.Fatalf("11-digit CPF should be valid")
	}
	if CPF.Valid("123456789") {
		t.Fatalf("9-digit CPF should be invalid")
	}
	if !CNPJ.Valid("12345678000190") {
		t.Fatalf("14-digit CNPJ should be valid")
	}
	if CNPJ.Valid("12345678901") {
		t.Fatalf("11-digit CNPJ should be invalid")
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(" cnpj ")
	if err != nil || typ != CNPJ {
		t.Fatalf("ParseType = (%v, %v), want CNPJ", typ, err)
	}
	if typ.ParamKey() != "cnpj" {
		t.Fatalf("ParamKey = %q", typ.ParamKey())
	}
	if _, err := ParseType("RG"); err == nil {
		t.Fatalf("ParseType should reject unknown types")
	}
}
