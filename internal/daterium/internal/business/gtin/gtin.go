// Package gtin validates and completes GTIN family identifiers (EAN-8, UPC-A, EAN-13, GTIN-14).
package gtin

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBody = errors.New("gtin: body must be 7, 11, 12 or 13 digits")

// Preference is the order in which code lengths win when an entry carries several valid codes.
var Preference = []int{13, 14, 12, 8}

// Code is a validated identifier holding only digits.
type Code struct {
	digits string
}

func (c Code) String() string { return c.digits }

func (c Code) Len() int { return len(c.digits) }

// Kind names the barcode family by length.
func (c Code) Kind() string {
	switch len(c.digits) {
	case 8:
		return "ean8"
	case 12:
		return "upca"
	case 13:
		return "ean13"
	case 14:
		return "gtin14"
	}
	return "unknown"
}

// Digits strips every non-digit character.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

func validLength(n int) bool {
	return n == 8 || n == 12 || n == 13 || n == 14
}

// Validate normalizes raw to its digits and checks length and mod-10 check digit.
func Validate(raw string) (Code, bool) {
	d := Digits(raw)
	if !validLength(len(d)) {
		return Code{}, false
	}
	want := checksum(d[:len(d)-1])
	if int(d[len(d)-1]-'0') != want {
		return Code{}, false
	}
	return Code{digits: d}, true
}

// CheckDigit computes the check digit for a body (the code without its last digit).
func CheckDigit(body string) (int, error) {
	d := Digits(body)
	if d != body || !validLength(len(d)+1) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBody, body)
	}
	return checksum(d), nil
}

// Complete appends the computed check digit to body.
func Complete(body string) (Code, error) {
	cd, err := CheckDigit(body)
	if err != nil {
		return Code{}, err
	}
	return Code{digits: body + string(rune('0'+cd))}, nil
}

// checksum weights body digits 3,1,3,... starting at the rightmost one.
func checksum(body string) int {
	sum := 0
	weight := 3
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		if weight == 3 {
			weight = 1
		} else {
			weight = 3
		}
	}
	return (10 - sum%10) % 10
}

// Prefer picks the first code of the most preferred length.
func Prefer(codes []Code) (Code, bool) {
	for _, l := range Preference {
		for _, c := range codes {
			if c.Len() == l {
				return c, true
			}
		}
	}
	return Code{}, false
}
