package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.March, 1, 10, 0, 0, 0, time.UTC) }
}

func TestParseProfileExample(t *testing.T) {
	p := NewParser("", fixedClock(2026))

	profile, err := p.ParseProfile("25mx114@psgtech.ac.in", "25MX114 - KAVIN M")
	require.NoError(t, err)
	assert.Equal(t, "25MX114", profile.RollNumber)
	assert.Equal(t, "KAVIN M", profile.Name)
	assert.Equal(t, "MCA", profile.Department)
	require.NotNil(t, profile.Year)
	assert.Equal(t, 1, *profile.Year)
	assert.Equal(t, "25mx114@psgtech.ac.in", profile.Email)
	assert.Nil(t, profile.Mobile)
}

func TestParseProfileRollIsUpperCasedLocalPart(t *testing.T) {
	p := NewParser("psgtech.ac.in", fixedClock(2026))
	cases := []string{"22cs101", "23PW07", "24aim3", "21it1200", "20Mx9"}
	for _, local := range cases {
		t.Run(local, func(t *testing.T) {
			profile, err := p.ParseProfile(local+"@psgtech.ac.in", "")
			require.NoError(t, err)
			assert.Equal(t, upper(local), profile.RollNumber)
			assert.Equal(t, "Unknown", profile.Name)
		})
	}
}

func TestParseProfileRejectsForeignDomain(t *testing.T) {
	p := NewParser("", fixedClock(2026))
	for _, email := range []string{"25mx114@gmail.com", "25mx114@psgtech.ac.in.evil.com", "", "psgtech.ac.in"} {
		_, err := p.ParseProfile(email, "x")
		assert.Equal(t, appErrors.ErrInvalidDomain, err, email)
	}
}

func TestParseProfileRejectsMalformedRoll(t *testing.T) {
	p := NewParser("", fixedClock(2026))
	for _, local := range []string{"kavin", "2mx114", "25m114", "25mxyz114", "25mx", "25mx11a", ""} {
		_, err := p.ParseProfile(local+"@psgtech.ac.in", "x")
		assert.Equal(t, appErrors.ErrMalformedRollNumber, err, local)
	}
}

func TestParseProfileDepartmentResolution(t *testing.T) {
	p := NewParser("", fixedClock(2026))

	threeLetter, err := p.ParseProfile("24aim301@psgtech.ac.in", "")
	require.NoError(t, err)
	assert.Equal(t, "Artificial Intelligence and Machine Learning", threeLetter.Department)

	twoLetter, err := p.ParseProfile("23cs045@psgtech.ac.in", "")
	require.NoError(t, err)
	assert.Equal(t, "Computer Science and Engineering", twoLetter.Department)

	fallback, err := p.ParseProfile("23qz045@psgtech.ac.in", "")
	require.NoError(t, err)
	assert.Equal(t, "QZ", fallback.Department)
}

func TestParseProfileYearIsNotClamped(t *testing.T) {
	p := NewParser("", fixedClock(2026))

	future, err := p.ParseProfile("30mx1@psgtech.ac.in", "")
	require.NoError(t, err)
	assert.Equal(t, -4, *future.Year)

	old, err := p.ParseProfile("00mx1@psgtech.ac.in", "")
	require.NoError(t, err)
	assert.Equal(t, 26, *old.Year)
}

func TestParseProfileNameFallbacks(t *testing.T) {
	p := NewParser("", fixedClock(2026))

	plain, err := p.ParseProfile("25mx114@psgtech.ac.in", "  Kavin Kumar  ")
	require.NoError(t, err)
	assert.Equal(t, "Kavin Kumar", plain.Name)

	otherRoll, err := p.ParseProfile("25mx114@psgtech.ac.in", "25MX999 - Someone")
	require.NoError(t, err)
	assert.Equal(t, "25MX999 - Someone", otherRoll.Name)
}

func TestValidateMobile(t *testing.T) {
	assert.NoError(t, ValidateMobile("9876543210"))
	assert.NoError(t, ValidateMobile("6000000000"))
	for _, bad := range []string{"12345", "5876543210", "98765432101", "98765abcde", ""} {
		assert.Equal(t, appErrors.ErrInvalidMobile, ValidateMobile(bad), bad)
	}
}

func upper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - 32
		}
	}
	return string(out)
}
