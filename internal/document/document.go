// Package document cleans and validates Brazilian taxpayer documents before
// they are sent to the restrictions endpoint.
package document

import (
	"fmt"
	"strings"
)

// Type is the kind of document held in the input column.
type Type string

const (
	CPF  Type = "CPF"  // 11 digits
	CNPJ Type = "CNPJ" // 14 digits
)

// ParseType normalizes a user-supplied document type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case CPF:
		return CPF, nil
	case CNPJ:
		return CNPJ, nil
	default:
		return "", fmt.Errorf("invalid document type %q, use CPF or CNPJ", s)
	}
}

// ParamKey is the query parameter the restrictions endpoint expects for the
// document type.
func (t Type) ParamKey() string {
	if t == CPF {
		return "cpf"
	}
	return "cnpj"
}

// Clean strips every non-digit character from a document.
func Clean(doc string) string {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether a cleaned document has the right number of digits for
// its type.
func (t Type) Valid(cleaned string) bool {
	switch t {
	case CPF:
		return len(cleaned) == 11
	case CNPJ:
		return len(cleaned) == 14
	default:
		return false
	}
}
