package repository

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/psgtech-fest/fest-api/internal/models"
)

type eventCatalogFile struct {
	Events []models.Event `yaml:"events"`
}

// EventRepository serves the read-only event catalog loaded at start-up.
type EventRepository struct {
	events []models.Event
	byID   map[int]models.Event
}

// LoadEventCatalog decodes and validates a YAML catalog.
func LoadEventCatalog(r io.Reader) (*EventRepository, error) {
	var file eventCatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode event catalog: %w", err)
	}

	repo := &EventRepository{byID: make(map[int]models.Event, len(file.Events))}
	for _, event := range file.Events {
		if event.ID <= 0 {
			return nil, fmt.Errorf("event %q: id must be positive", event.Name)
		}
		if event.Name == "" {
			return nil, fmt.Errorf("event %d: name is required", event.ID)
		}
		if _, dup := repo.byID[event.ID]; dup {
			return nil, fmt.Errorf("event %d: duplicate id", event.ID)
		}
		repo.byID[event.ID] = event
		repo.events = append(repo.events, event)
	}
	sort.Slice(repo.events, func(i, j int) bool { return repo.events[i].ID < repo.events[j].ID })
	return repo, nil
}

// LoadEventCatalogFile opens and decodes the catalog at path.
func LoadEventCatalogFile(path string) (*EventRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event catalog: %w", err)
	}
	defer f.Close()
	return LoadEventCatalog(f)
}

// List returns every event ordered by id.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	out := make([]models.Event, len(r.events))
	copy(out, r.events)
	return out, nil
}

// FindByID returns one event or sql.ErrNoRows, matching the other repositories.
func (r *EventRepository) FindByID(ctx context.Context, id int) (*models.Event, error) {
	event, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &event, nil
}
