package core

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	NowFunc = time.Now // mockable

	nonDigitRegex = regexp.MustCompile(`\D`)
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NormalizeMobile rewrites a local number starting with "0" to the "+255" international form.
func NormalizeMobile(s string) string {
	s = strings.ReplaceAll(CleanString(s), " ", "")
	if strings.HasPrefix(s, "0") {
		return "+255" + s[1:]
	}
	return s
}

// NormalizeStaffMobile keeps numbers already in "+255" form, otherwise builds one from the last
// 9 digits.
func NormalizeStaffMobile(s string) string {
	s = strings.ReplaceAll(CleanString(s), " ", "")
	if s == "" || strings.HasPrefix(s, "+255") {
		return s
	}
	digits := nonDigitRegex.ReplaceAllString(s, "")
	if len(digits) > 9 {
		digits = digits[len(digits)-9:]
	}
	return "+255" + digits
}

// Today returns the current date at midnight UTC.
func Today() time.Time {
	return Day(NowFunc())
}

// Day truncates t to its date (UTC).
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FirstOfMonth coerces t to the first day of its month.
func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run, so walk up from there.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
