// Package validate implements the field-level validators of §4.5:
// pure functions from (value, field) to a pass/fail verdict with a
// message. Grounded on the teacher's internal/security.Scanner, which
// runs an ordered list of independent rule functions over one input
// and collects the first failure, generalized here from file-safety
// rules to row-field rules.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is Ok (empty) or carries a human-readable failure message.
type Result struct {
	Message string
}

// OK is the zero Result: no failure.
var OK = Result{}

func (r Result) Failed() bool { return r.Message != "" }

func fail(format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

var (
	codePatternRe       = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	alphanumericNameRe  = regexp.MustCompile(`^[A-Za-z0-9\s&.\-]+$`)
	alphabeticRe        = regexp.MustCompile(`^[A-Za-z\s]+$`)
)

// NotEmpty fails if value is blank after trimming.
func NotEmpty(field, value string) Result {
	if strings.TrimSpace(value) == "" {
		return fail("%s must not be empty", field)
	}
	return OK
}

// StringLength checks the trimmed length is within [min, max].
func StringLength(field, value string, min, max int) Result {
	l := len(strings.TrimSpace(value))
	if l < min || l > max {
		return fail("%s length must be between %d and %d", field, min, max)
	}
	return OK
}

// CodePattern enforces ^[A-Za-z0-9]+$ (styleCode/skuCode/branch).
func CodePattern(field, value string) Result {
	if !codePatternRe.MatchString(value) {
		return fail("%s must be alphanumeric", field)
	}
	return OK
}

// AlphanumericName enforces ^[A-Za-z0-9\s&.-]+$ (brand/category/etc).
func AlphanumericName(field, value string) Result {
	if !alphanumericNameRe.MatchString(value) {
		return fail("%s contains invalid characters", field)
	}
	return OK
}

// Alphabetic enforces ^[A-Za-z\s]+$. No binding uses it: gender and
// size are checked with AlphanumericName.
func Alphabetic(field, value string) Result {
	if !alphabeticRe.MatchString(value) {
		return fail("%s must contain only letters", field)
	}
	return OK
}

// Integer parses value as an int and range-checks it.
func Integer(field, value string, min, max int) Result {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fail("%s must be an integer", field)
	}
	if n < min || n > max {
		return fail("%s must be between %d and %d", field, min, max)
	}
	return OK
}

// Decimal parses value as a float, range-checks it, and rejects more
// than two fractional digits.
func Decimal(field, value string, min, max float64) Result {
	trimmed := strings.TrimSpace(value)
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fail("%s must be a number", field)
	}
	if f < min || f > max {
		return fail("%s must be between %.2f and %.2f", field, min, max)
	}
	if dot := strings.IndexByte(trimmed, '.'); dot != -1 {
		if len(trimmed)-dot-1 > 2 {
			return fail("%s must have at most 2 decimal places", field)
		}
	}
	return OK
}

// Date enforces the exact non-lenient yyyy-MM-dd layout.
func Date(field, value string) Result {
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(value)); err != nil {
		return fail("%s must be a valid date in yyyy-MM-dd format", field)
	}
	return OK
}
