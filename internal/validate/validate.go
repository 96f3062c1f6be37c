package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clothshop/internal/domain"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone    = regexp.MustCompile(`^\+?[0-9 -]{7,20}$`)
	reCategory = regexp.MustCompile(`^[A-Za-z0-9 _&/-]{1,40}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Name validates a displayable name (person, business, variety) with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return "", false
	}
	return s, true
}

// Phone is optional; an empty value is valid.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, rePhone.MatchString(s)
}

func Category(s string) (string, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	return s, reCategory.MatchString(s)
}

// Password enforces a length window plus mixed character classes for new accounts.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}

func PasswordsMatch(password, confirm string) bool {
	return password != "" && password == confirm
}

// Quantity parses a positive amount; cloth sells in fractional meters and yards.
func Quantity(s string) (float64, bool) {
	q, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !finite(q) || q <= 0 || q > 1e6 {
		return 0, false
	}
	return q, true
}

// Money parses a non-negative amount.
func Money(s string) (float64, bool) {
	m, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !finite(m) || m < 0 || m > 1e9 {
		return 0, false
	}
	return m, true
}

// finite rejects NaN and the infinities ParseFloat accepts.
func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// ID validates a numeric resource identifier.
func ID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil && id > 0
}

// OptionalID treats an empty value as zero.
func OptionalID(s string) (int64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, true
	}
	return ID(s)
}

func StockType(s string) (domain.StockType, bool) {
	switch st := domain.StockType(strings.TrimSpace(s)); st {
	case domain.StockOld, domain.StockNew:
		return st, true
	}
	return "", false
}

func PaymentStatus(s string) (domain.PaymentStatus, bool) {
	switch ps := domain.PaymentStatus(strings.TrimSpace(s)); ps {
	case domain.PaymentPaid, domain.PaymentUnpaid, domain.PaymentPartial:
		return ps, true
	}
	return "", false
}

func Unit(s string) (domain.Unit, bool) {
	switch u := domain.Unit(strings.TrimSpace(s)); u {
	case domain.UnitPieces, domain.UnitMeters, domain.UnitYards:
		return u, true
	}
	return "", false
}

// Date accepts a form date (YYYY-MM-DD); empty means today.
func Date(s string, now time.Time) (domain.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Date{Time: now}, true
	}
	t, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return domain.Date{}, false
	}
	return domain.Date{Time: t}, true
}

// Days clamps a forecast horizon.
func Days(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	if n > 90 {
		return 90
	}
	return n
}

// Message validates free text sent to the assistants.
func Message(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 2000 {
		return "", false
	}
	return s, true
}
