package service

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

func newExportFixture(t *testing.T, loc *time.Location) (*ExportService, *adminFixture) {
	t.Helper()
	f := newAdminFixture(t, time.Date(2026, 3, 14, 3, 35, 7, 0, time.UTC))
	return NewExportService(f.svc, loc, nil, nil, nil), f
}

func TestEventRegistrationsCSV(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	svc, f := newExportFixture(t, ist)
	created, err := f.regs.Create(context.Background(), &models.Registration{
		UserID:     "uid-1",
		EventID:    1,
		UserRoll:   "25MX114",
		UserName:   "KAVIN M",
		UserEmail:  "25mx114@psgtech.ac.in",
		UserMobile: "9876543210",
		Department: "MCA",
		Year:       1,
	})
	require.NoError(t, err)
	require.True(t, created)

	file, err := svc.EventRegistrations(context.Background(), adminActor, 1, models.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "code_sprint_registrations.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")

	records, err := csv.NewReader(strings.NewReader(string(file.Body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Roll Number", "Name", "Email", "Mobile", "Department", "Year", "Registered At", "Attended"}, records[0])
	assert.Equal(t, []string{"25MX114", "KAVIN M", "25mx114@psgtech.ac.in", "9876543210", "MCA", "1", "14/03/2026, 9:05:07 am", "No"}, records[1])
}

func TestEventRegistrationsRespectsEventScope(t *testing.T) {
	svc, _ := newExportFixture(t, nil)
	_, err := svc.EventRegistrations(context.Background(), coordinatorActor, 2, models.ExportFormatCSV)
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestParticipantsPDF(t *testing.T) {
	svc, f := newExportFixture(t, nil)
	f.seed(t, "uid-1", "25MX114", 1)
	f.seed(t, "uid-1", "25MX114", 2)

	file, err := svc.Participants(context.Background(), studentCoordActor, models.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "all_participants.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
}

func TestParticipantDatasetColumns(t *testing.T) {
	data := ParticipantDataset([]models.Participant{{RollNumber: "25MX114", Name: "KAVIN M", Department: "MCA", Year: 1, Mobile: "9876543210", EventsRegistered: 2}})
	assert.Equal(t, []string{"Roll Number", "Name", "Department", "Year", "Mobile", "Events Registered"}, data.Headers)
	assert.Equal(t, []string{"25MX114", "KAVIN M", "MCA", "1", "9876543210", "2"}, data.Rows[0])
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(t, nil)
	_, err := svc.Participants(context.Background(), adminActor, models.ExportFormat("xlsx"))
	requireCode(t, err, appErrors.ErrValidation.Code)
}

func TestSanitizeFilenameKeepsCharactersWhole(t *testing.T) {
	name := "ab" + strings.Repeat("த", 40)
	got := sanitizeFilename(name)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 98)
	assert.True(t, strings.HasPrefix(name, got))

	assert.Equal(t, "code_sprint", sanitizeFilename("Code Sprint"))
	assert.Equal(t, "event", sanitizeFilename(""))
	assert.Len(t, sanitizeFilename(strings.Repeat("x", 150)), 100)
}
