package bulk

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Field rules.
const (
	usernameMinLen = 3
	usernameMaxLen = 50
	passwordMinLen = 8
)

// emailPattern is the deliberately simple local@domain.tld shape the
// server also enforces. Stricter RFC 5322 matching would reject
// addresses the server accepts.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Violation is one failed rule for one row. Violations are purely
// informational: the batch is submitted only when there are none.
type Violation struct {
	Row     int
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("Row %d: %s", v.Row, v.Message)
}

// Validate applies every rule to every candidate and returns all
// violations, ordered by row then rule. Rules are never short-circuited
// within a row: a row with a bad username and a bad email yields two
// entries.
func Validate(candidates []Candidate) []Violation {
	var violations []Violation
	for _, c := range candidates {
		violations = append(violations, validateCandidate(c)...)
	}

	return violations
}

func validateCandidate(c Candidate) []Violation {
	var violations []Violation

	// Lengths count characters, not bytes, so multibyte names measure
	// the same here as they did in the UI this replaces.
	if n := utf8.RuneCountInString(c.Username); n < usernameMinLen || n > usernameMaxLen {
		violations = append(violations, Violation{
			Row:     c.Row,
			Message: fmt.Sprintf("Username must be between %d and %d characters", usernameMinLen, usernameMaxLen),
		})
	}

	if !emailPattern.MatchString(c.Email) {
		violations = append(violations, Violation{
			Row:     c.Row,
			Message: "Invalid email format",
		})
	}

	if utf8.RuneCountInString(c.Password) < passwordMinLen {
		violations = append(violations, Violation{
			Row:     c.Row,
			Message: fmt.Sprintf("Password must be at least %d characters long", passwordMinLen),
		})
	}

	if c.Phone == "" {
		violations = append(violations, Violation{
			Row:     c.Row,
			Message: "Phone number is required",
		})
	}

	return violations
}
