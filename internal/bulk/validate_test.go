package bulk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCandidate(row int) Candidate {
	return Candidate{
		Username: "abcde",
		Email:    "a@b.com",
		Password: "longenough1",
		Phone:    "1234567890",
		Row:      row,
	}
}

func TestValidate_CleanRow(t *testing.T) {
	assert.Empty(t, Validate([]Candidate{validCandidate(1)}))
}

func TestValidate_UsernameBoundaries(t *testing.T) {
	c := validCandidate(1)

	c.Username = "ab" // length 2
	assert.Len(t, Validate([]Candidate{c}), 1)

	c.Username = "abc" // length 3
	assert.Empty(t, Validate([]Candidate{c}))

	c.Username = strings.Repeat("x", 50)
	assert.Empty(t, Validate([]Candidate{c}))

	c.Username = strings.Repeat("x", 51)
	assert.Len(t, Validate([]Candidate{c}), 1)
}

func TestValidate_PasswordBoundaries(t *testing.T) {
	c := validCandidate(1)

	c.Password = "1234567" // length 7
	assert.Len(t, Validate([]Candidate{c}), 1)

	c.Password = "12345678" // length 8
	assert.Empty(t, Validate([]Candidate{c}))
}

func TestValidate_LengthsCountRunes(t *testing.T) {
	c := validCandidate(1)

	// Two characters, four bytes: still too short.
	c.Username = "ñé"
	assert.Len(t, Validate([]Candidate{c}), 1)

	c.Username = "ñéñ" // three characters
	assert.Empty(t, Validate([]Candidate{c}))

	c.Username = strings.Repeat("ü", 50)
	assert.Empty(t, Validate([]Candidate{c}))

	c.Username = strings.Repeat("ü", 51)
	assert.Len(t, Validate([]Candidate{c}), 1)

	c = validCandidate(1)
	c.Password = strings.Repeat("ö", 8) // eight characters, sixteen bytes
	assert.Empty(t, Validate([]Candidate{c}))

	c.Password = strings.Repeat("ö", 7)
	assert.Len(t, Validate([]Candidate{c}), 1)
}

func TestValidate_EmailShape(t *testing.T) {
	c := validCandidate(1)

	for _, bad := range []string{"", "not-an-email", "a@b", "@b.com", "a@.com", "a b@c.com"} {
		c.Email = bad
		assert.NotEmpty(t, Validate([]Candidate{c}), "email %q should be rejected", bad)
	}

	for _, good := range []string{"a@b.com", "first.last@sub.domain.org"} {
		c.Email = good
		assert.Empty(t, Validate([]Candidate{c}), "email %q should be accepted", good)
	}
}

func TestValidate_PhoneRequired(t *testing.T) {
	c := validCandidate(1)
	c.Phone = ""

	violations := Validate([]Candidate{c})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "Phone")
}

func TestValidate_CollectsAllRulesPerRow(t *testing.T) {
	// Every rule broken at once: nothing short-circuits.
	c := Candidate{Username: "ab", Email: "nope", Password: "short", Phone: "", Row: 3}

	violations := Validate([]Candidate{c})
	assert.Len(t, violations, 4)

	for _, v := range violations {
		assert.Equal(t, 3, v.Row)
	}
}

func TestValidate_OrderedByRowThenRule(t *testing.T) {
	rows := []Candidate{
		{Username: "ab", Email: "nope", Password: "longenough1", Phone: "1", Row: 1},
		validCandidate(2),
		{Username: "valid", Email: "x@y.com", Password: "short", Phone: "", Row: 3},
	}

	violations := Validate(rows)
	assert.Len(t, violations, 4)

	assert.Equal(t, 1, violations[0].Row)
	assert.Contains(t, violations[0].Message, "Username")
	assert.Equal(t, 1, violations[1].Row)
	assert.Contains(t, violations[1].Message, "email")
	assert.Equal(t, 3, violations[2].Row)
	assert.Contains(t, violations[2].Message, "Password")
	assert.Equal(t, 3, violations[3].Row)
	assert.Contains(t, violations[3].Message, "Phone")
}

func TestViolation_String(t *testing.T) {
	v := Violation{Row: 2, Message: "Invalid email format"}
	assert.Equal(t, "Row 2: Invalid email format", v.String())
}
