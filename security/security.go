// Package security identifies the securities named by statements and matches
// them against a registry of known securities.
package security

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// isinRegex checks for the basic structure: 2 letters, 9 alphanumeric, 1 digit.
var isinRegex = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// wknRegex checks for the German securities identification number: 6 alphanumeric.
var wknRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Security is a tradeable asset as a statement names it. Any identifier can be
// empty, statements rarely print them all.
type Security struct {
	Name     string `json:"name,omitempty"`
	ISIN     string `json:"isin,omitempty"`
	WKN      string `json:"wkn,omitempty"`
	Ticker   string `json:"ticker,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// String returns the most readable identification of s.
func (s *Security) String() string {
	id := s.ISIN
	if id == "" {
		id = s.WKN
	}
	if id == "" {
		id = s.Ticker
	}
	switch {
	case s.Name != "" && id != "":
		return s.Name + " (" + id + ")"
	case s.Name != "":
		return s.Name
	}
	return id
}

// Validate checks that the identifiers present on s are well formed.
func (s *Security) Validate() error {
	if s.Name == "" && s.ISIN == "" && s.WKN == "" && s.Ticker == "" {
		return fmt.Errorf("security has no name and no identifier")
	}
	if s.ISIN != "" {
		if err := ValidateISIN(s.ISIN); err != nil {
			return fmt.Errorf("security %q has an invalid ISIN: %w", s.Name, err)
		}
	}
	if s.WKN != "" && !wknRegex.MatchString(s.WKN) {
		return fmt.Errorf("security %q has an invalid WKN %q", s.Name, s.WKN)
	}
	return nil
}

// ValidateISIN checks if a string is a valid International Securities
// Identification Number (ISIN), including its check digit.
func ValidateISIN(isin string) error {
	if len(isin) != 12 {
		return fmt.Errorf("invalid length: must be 12 characters, got %d", len(isin))
	}
	if !isinRegex.MatchString(isin) {
		return fmt.Errorf("invalid format: must be 2 uppercase letters, 9 alphanumeric chars, and 1 digit")
	}

	// letters count as two digits: A=10 ... Z=35.
	var numeric strings.Builder
	for _, char := range isin[:11] {
		if char >= 'A' && char <= 'Z' {
			numeric.WriteString(strconv.Itoa(int(char - 'A' + 10)))
		} else {
			numeric.WriteRune(char)
		}
	}

	// Luhn, doubling from the rightmost digit.
	sum := 0
	double := true
	digits := numeric.String()
	for i := len(digits) - 1; i >= 0; i-- {
		digit := int(digits[i] - '0')
		if double {
			digit *= 2
		}
		sum += digit/10 + digit%10
		double = !double
	}

	want := (10 - sum%10) % 10
	if got := int(isin[11] - '0'); got != want {
		return fmt.Errorf("invalid check digit: expected %d, got %d", want, got)
	}
	return nil
}

// same compares identifiers and names the way statements print them.
func same(a, b string) bool {
	return a != "" && strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}
