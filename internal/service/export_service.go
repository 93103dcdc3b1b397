package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
	"github.com/psgtech-fest/fest-api/pkg/export"
)

// registeredAtLayout renders timestamps as "14/03/2026, 9:05:07 am".
const registeredAtLayout = "02/01/2006, 3:04:05 pm"

var (
	eventExportHeaders       = []string{"Roll Number", "Name", "Email", "Mobile", "Department", "Year", "Registered At", "Attended"}
	participantExportHeaders = []string{"Roll Number", "Name", "Department", "Year", "Mobile", "Events Registered"}
)

type registrationLister interface {
	ListEventRegistrations(ctx context.Context, actor models.Actor, eventID int) (*models.Event, []models.Registration, error)
	ListParticipants(ctx context.Context, actor models.Actor) ([]models.Participant, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportService renders coordinator listings as CSV or PDF downloads.
type ExportService struct {
	lister   registrationLister
	csv      renderer
	pdf      renderer
	location *time.Location
	logger   *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers use the defaults.
func NewExportService(lister registrationLister, location *time.Location, logger *zap.Logger, csv, pdf renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{lister: lister, csv: csv, pdf: pdf, location: location, logger: logger}
}

// EventRegistrations exports one event's registrations.
func (s *ExportService) EventRegistrations(ctx context.Context, actor models.Actor, eventID int, format models.ExportFormat) (*models.ExportFile, error) {
	r, err := s.renderer(format)
	if err != nil {
		return nil, err
	}
	event, regs, err := s.lister.ListEventRegistrations(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	data := s.EventDataset(*event, regs)
	return s.render(r, data, sanitizeFilename(event.Name)+"_registrations")
}

// Participants exports the all-participants listing.
func (s *ExportService) Participants(ctx context.Context, actor models.Actor, format models.ExportFormat) (*models.ExportFile, error) {
	r, err := s.renderer(format)
	if err != nil {
		return nil, err
	}
	participants, err := s.lister.ListParticipants(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.render(r, ParticipantDataset(participants), "all_participants")
}

// EventDataset builds the per-event table with local registration times.
func (s *ExportService) EventDataset(event models.Event, regs []models.Registration) export.Dataset {
	rows := make([][]string, 0, len(regs))
	for _, reg := range regs {
		attended := "No"
		if reg.Attended {
			attended = "Yes"
		}
		rows = append(rows, []string{
			reg.UserRoll,
			reg.UserName,
			reg.UserEmail,
			reg.UserMobile,
			reg.Department,
			strconv.Itoa(reg.Year),
			reg.RegisteredAt.In(s.location).Format(registeredAtLayout),
			attended,
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s registrations", event.Name),
		Headers: eventExportHeaders,
		Rows:    rows,
	}
}

// ParticipantDataset builds the all-participants table.
func ParticipantDataset(participants []models.Participant) export.Dataset {
	rows := make([][]string, 0, len(participants))
	for _, p := range participants {
		rows = append(rows, []string{
			p.RollNumber,
			p.Name,
			p.Department,
			strconv.Itoa(p.Year),
			p.Mobile,
			strconv.Itoa(p.EventsRegistered),
		})
	}
	return export.Dataset{Title: "All participants", Headers: participantExportHeaders, Rows: rows}
}

func (s *ExportService) renderer(format models.ExportFormat) (renderer, error) {
	switch format {
	case "", models.ExportFormatCSV:
		return s.csv, nil
	case models.ExportFormatPDF:
		return s.pdf, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) render(r renderer, data export.Dataset, basename string) (*models.ExportFile, error) {
	body, err := r.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("export rendered", zap.String("file", basename), zap.Int("rows", len(data.Rows)))
	return &models.ExportFile{
		Filename:    fmt.Sprintf("%s.%s", basename, r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "event"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := strings.ToLower(replacer.Replace(raw))
	return truncateUTF8(result, maxFilenameBytes)
}

const maxFilenameBytes = 100

// truncateUTF8 cuts s to at most n bytes without splitting a character.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
