// Package validate holds the field predicates applied to contact input.
// Every predicate is pure and reports false instead of failing.
package validate

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// Whitespace covers Unicode spaces and the ASCII separators, not just RE2's \s.
	addressPattern = regexp.MustCompile(`^[a-zA-Z0-9\pZ\t\n\v\f\r\x{1c}-\x{1f}\x{85}/]+$`)
	// Start-anchored only: trailing text after the TLD is accepted.
	mailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+\.[a-zA-Z]+`)
	domainLabel  = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
	tldPattern   = regexp.MustCompile(`^[a-zA-Z]{2,63}$`)
	urlSchemeSet = map[string]bool{"http": true, "https": true, "ftp": true, "ftps": true}
)

const (
	armenianPrefix = "+374"
	localPrefix    = "0"
)

// Name reports whether s is longer than one character and made only of letters.
func Name(s string) bool {
	if utf8.RuneCountInString(s) <= 1 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Telephone accepts "+374" followed by 8 digits, or a 9-digit number starting with 0.
// Lengths count characters and any Unicode decimal digit is a digit.
func Telephone(s string) bool {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 12 && strings.HasPrefix(s, armenianPrefix):
		return digits(s[len(armenianPrefix):])
	case n == 9 && strings.HasPrefix(s, localPrefix):
		return digits(s)
	}
	return false
}

// Address accepts ASCII letters, digits, whitespace (including Unicode spaces) and "/".
func Address(s string) bool {
	return addressPattern.MatchString(s)
}

// Mail reports whether s starts with a local@domain.tld shape.
func Mail(s string) bool {
	return mailPattern.MatchString(s)
}

// URL reports whether s is an absolute http(s) or ftp(s) URL with a usable host.
func URL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if !urlSchemeSet[strings.ToLower(u.Scheme)] || u.Opaque != "" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return false
		}
	} else if strings.HasSuffix(u.Host, ":") {
		return false
	}
	return validHost(host)
}

// Field applies the predicate registered for the named contact field.
// Unknown field names are never valid.
func Field(field, value string) bool {
	switch field {
	case "name", "mid_name", "surname":
		return Name(value)
	case "telephone":
		return Telephone(value)
	case "mail":
		return Mail(value)
	case "address":
		return Address(value)
	case "url":
		return URL(value)
	}
	return false
}

func validHost(host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	labels := strings.Split(strings.TrimSuffix(host, "."), ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels[:len(labels)-1] {
		if !domainLabel.MatchString(l) {
			return false
		}
	}
	return tldPattern.MatchString(labels[len(labels)-1])
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
