package constants

import "strings"

// AllowedTableExtensions holds the table formats accepted for input and output.
// Legacy .xls workbooks are not supported; convert them to .xlsx first.
var AllowedTableExtensions = map[string]struct{}{
	"csv":  {},
	"xlsx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
