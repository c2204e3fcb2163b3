package export

import (
	"strings"

	"github.com/madmatrix/tickethub/internal/domain"
)

// Filename returns MadMatrix_Permit_<reg>.<ext> with reg reduced to
// [A-Za-z0-9._-].
func Filename(regNo string, f domain.Format) string {
	reg := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(regNo))
	if reg == "" {
		reg = "2026"
	}
	return "MadMatrix_Permit_" + reg + "." + f.Extension()
}
