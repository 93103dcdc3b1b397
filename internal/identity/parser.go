package identity

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

// DefaultDomain is the institutional email suffix accepted when none is configured.
const DefaultDomain = "@psgtech.ac.in"

var (
	rollPattern   = regexp.MustCompile(`^(\d{2})([A-Za-z]{2,3})\d+$`)
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
)

// Parser derives student profiles from institutional accounts.
type Parser struct {
	domain string
	now    func() time.Time
}

// NewParser builds a parser for the given email suffix. A nil clock uses time.Now.
func NewParser(domain string, now func() time.Time) *Parser {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		domain = DefaultDomain
	}
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}
	if now == nil {
		now = time.Now
	}
	return &Parser{domain: domain, now: now}
}

// Domain returns the accepted email suffix including the leading "@".
func (p *Parser) Domain() string {
	return p.domain
}

// InDomain reports whether email belongs to the institution.
func (p *Parser) InDomain(email string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), p.domain)
}

// ParseProfile builds a profile from an institutional email and the provider's
// display name. Mobile and photo are left for the caller to fill in.
func (p *Parser) ParseProfile(email, displayName string) (*models.StudentProfile, error) {
	email = strings.TrimSpace(email)
	if !p.InDomain(email) {
		return nil, appErrors.ErrInvalidDomain
	}

	local := email[:len(email)-len(p.domain)]
	roll := strings.ToUpper(local)
	match := rollPattern.FindStringSubmatch(roll)
	if match == nil {
		return nil, appErrors.ErrMalformedRollNumber
	}

	prefix, err := strconv.Atoi(match[1])
	if err != nil {
		return nil, appErrors.ErrMalformedRollNumber
	}
	// No bounds check: future or very old prefixes pass through unchanged.
	year := p.now().Year()%100 - prefix

	return &models.StudentProfile{
		RollNumber: roll,
		Name:       resolveName(roll, displayName),
		Department: resolveDepartment(roll, match[2]),
		Year:       &year,
		Email:      email,
	}, nil
}

// resolveName extracts Name from "<roll> - <Name>", otherwise uses the trimmed display name.
func resolveName(roll, displayName string) string {
	trimmed := strings.TrimSpace(displayName)
	if trimmed == "" {
		return "Unknown"
	}
	if head, name, found := strings.Cut(trimmed, " - "); found {
		name = strings.TrimSpace(name)
		if strings.EqualFold(strings.TrimSpace(head), roll) && name != "" {
			return name
		}
	}
	return trimmed
}

// ValidateMobile checks the 10 digit mobile format.
func ValidateMobile(mobile string) error {
	if !mobilePattern.MatchString(mobile) {
		return appErrors.ErrInvalidMobile
	}
	return nil
}

// ValidMobile is the boolean form of ValidateMobile, used by the validator tag.
func ValidMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}
