package registry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/madmatrix/tickethub/internal/domain"
)

// Accepted column names, compared case-insensitively after trimming. Order is
// priority: the first alias holding a non-blank value wins.
var (
	nameAliases = []string{
		"name",
		"full name",
		"attendee name",
		"participant name",
		"student name",
	}
	regNoAliases = []string{
		"regno",
		"reg no",
		"reg. no",
		"reg_no",
		"registration number",
		"registration no",
		"register number",
	}
)

// MatchRule decides which cells of a row are compared against the email.
type MatchRule string

const (
	// MatchAny compares every string value of the row.
	MatchAny MatchRule = "any"
	// MatchEmailColumns compares only columns whose name contains "email".
	MatchEmailColumns MatchRule = "email_columns"
)

// NormalizeEmail trims and lower-cases an email search key.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Matches reports whether row holds email (already normalized) under rule.
// Only string values take part in the comparison.
func Matches(row domain.RegistryRow, email string, rule MatchRule) bool {
	if email == "" {
		return false
	}
	for k, v := range row {
		if rule == MatchEmailColumns && !strings.Contains(strings.ToLower(k), "email") {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if NormalizeEmail(s) == email {
			return true
		}
	}
	return false
}

// FindRow returns the first row of rows matching email.
func FindRow(rows []domain.RegistryRow, email string, rule MatchRule) (domain.RegistryRow, bool) {
	for _, row := range rows {
		if Matches(row, email, rule) {
			return row, true
		}
	}
	return nil, false
}

// Normalize extracts the attendee identity from a matched row.
func Normalize(row domain.RegistryRow, email string) domain.Attendee {
	name := pick(row, nameAliases)
	if name == "" {
		name = domain.PlaceholderName
	}
	regNo := pick(row, regNoAliases)
	if regNo == "" {
		regNo = domain.PlaceholderRegistrationNumber
	}
	return domain.Attendee{
		Name:               name,
		RegistrationNumber: regNo,
		Email:              email,
	}
}

func pick(row domain.RegistryRow, aliases []string) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	folded := make(map[string]any, len(row))
	for _, k := range keys {
		key := strings.ToLower(strings.TrimSpace(k))
		// Keep the first non-blank value when two columns fold together.
		if prev, ok := folded[key]; ok && cellText(prev) != "" {
			continue
		}
		folded[key] = row[k]
	}
	for _, alias := range aliases {
		if v, ok := folded[alias]; ok {
			if s := cellText(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func cellText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
