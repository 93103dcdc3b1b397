package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

type memRegistrations struct {
	mu      sync.Mutex
	rows    map[string]models.Registration
	err     error
	clock   func() time.Time
	creates int
	// afterList runs once, after the next List has taken its snapshot.
	afterList func()
}

func newMemRegistrations() *memRegistrations {
	return &memRegistrations{rows: make(map[string]models.Registration), clock: time.Now}
}

func (m *memRegistrations) Create(ctx context.Context, reg *models.Registration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	reg.ID = models.RegistrationID(reg.UserID, reg.EventID)
	if _, exists := m.rows[reg.ID]; exists {
		return false, nil
	}
	for _, existing := range m.rows {
		if reg.UserRoll != "" && existing.EventID == reg.EventID && existing.UserRoll == reg.UserRoll {
			return false, nil
		}
	}
	reg.RegisteredAt = m.clock()
	reg.Attended = false
	m.rows[reg.ID] = *reg
	m.creates++
	return true, nil
}

func (m *memRegistrations) FindByID(ctx context.Context, userID string, eventID int) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.rows[models.RegistrationID(userID, eventID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &reg, nil
}

func (m *memRegistrations) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	out, hook, err := m.snapshot(filter)
	if hook != nil {
		hook()
	}
	return out, err
}

func (m *memRegistrations) snapshot(filter models.RegistrationFilter) ([]models.Registration, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hook := m.afterList
	m.afterList = nil
	if m.err != nil {
		return nil, hook, m.err
	}
	var out []models.Registration
	for _, reg := range m.rows {
		if filter.EventID != nil && reg.EventID != *filter.EventID {
			continue
		}
		if filter.UserID != "" && reg.UserID != filter.UserID {
			continue
		}
		if filter.UserRoll != "" && reg.UserRoll != filter.UserRoll {
			continue
		}
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	return out, hook, nil
}

func (m *memRegistrations) ToggleAttendance(ctx context.Context, userID string, eventID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := models.RegistrationID(userID, eventID)
	reg, ok := m.rows[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	reg.Attended = !reg.Attended
	m.rows[id] = reg
	return reg.Attended, nil
}

func (m *memRegistrations) SetAttendanceBulk(ctx context.Context, eventID int, userIDs []string, attended bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var missing []string
	for _, uid := range userIDs {
		if _, ok := m.rows[models.RegistrationID(uid, eventID)]; !ok {
			missing = append(missing, uid)
		}
	}
	if len(missing) > 0 {
		return missing, nil
	}
	for _, uid := range userIDs {
		id := models.RegistrationID(uid, eventID)
		reg := m.rows[id]
		reg.Attended = attended
		m.rows[id] = reg
	}
	return nil, nil
}

func (m *memRegistrations) Delete(ctx context.Context, userID string, eventID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := models.RegistrationID(userID, eventID)
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

func (m *memRegistrations) DeleteByRoll(ctx context.Context, roll string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, reg := range m.rows {
		if reg.UserRoll == roll {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memRegistrations) UpdateByRoll(ctx context.Context, roll string, patch models.ProfilePatch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, reg := range m.rows {
		if reg.UserRoll != roll {
			continue
		}
		if patch.Name != nil {
			reg.UserName = *patch.Name
		}
		if patch.Mobile != nil {
			reg.UserMobile = *patch.Mobile
		}
		if patch.Department != nil {
			reg.Department = *patch.Department
		}
		if patch.Year != nil {
			reg.Year = *patch.Year
		}
		m.rows[id] = reg
		n++
	}
	return n, nil
}

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]models.StudentProfile
	photoSet int
}

func newMemProfiles(profiles ...models.StudentProfile) *memProfiles {
	m := &memProfiles{profiles: make(map[string]models.StudentProfile)}
	for _, p := range profiles {
		m.profiles[p.UserID] = p
	}
	return m
}

func (m *memProfiles) FindByID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (m *memProfiles) FindByRoll(ctx context.Context, roll string) (*models.StudentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.RollNumber == roll {
			p := p
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memProfiles) Create(ctx context.Context, profile *models.StudentProfile) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.UserID]; ok {
		return false, nil
	}
	m.profiles[profile.UserID] = *profile
	return true, nil
}

func (m *memProfiles) UpdatePhoto(ctx context.Context, userID string, photoURL *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return sql.ErrNoRows
	}
	p.PhotoURL = photoURL
	m.profiles[userID] = p
	m.photoSet++
	return nil
}

func (m *memProfiles) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return sql.ErrNoRows
	}
	m.profiles[userID] = applyPatch(p, patch)
	return nil
}

func (m *memProfiles) UpdateByRoll(ctx context.Context, roll string, patch models.ProfilePatch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, p := range m.profiles {
		if p.RollNumber == roll {
			m.profiles[id] = applyPatch(p, patch)
			n++
		}
	}
	return n, nil
}

func (m *memProfiles) DeleteByRoll(ctx context.Context, roll string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, p := range m.profiles {
		if p.RollNumber == roll {
			delete(m.profiles, id)
			n++
		}
	}
	return n, nil
}

func applyPatch(p models.StudentProfile, patch models.ProfilePatch) models.StudentProfile {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Mobile != nil {
		mobile := *patch.Mobile
		p.Mobile = &mobile
	}
	if patch.Department != nil {
		p.Department = *patch.Department
	}
	if patch.Year != nil {
		year := *patch.Year
		p.Year = &year
	}
	return p
}

type staticEvents []models.Event

func (e staticEvents) List(ctx context.Context) ([]models.Event, error) {
	return append([]models.Event(nil), e...), nil
}

func (e staticEvents) FindByID(ctx context.Context, id int) (*models.Event, error) {
	for _, event := range e {
		if event.ID == id {
			event := event
			return &event, nil
		}
	}
	return nil, sql.ErrNoRows
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Registration
	err  error
}

func (n *recordingNotifier) RegistrationConfirmed(reg models.Registration, event models.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, reg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.deletes++
	return nil
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func completeProfile(uid, roll string) models.StudentProfile {
	return models.StudentProfile{
		UserID:     uid,
		RollNumber: roll,
		Name:       "KAVIN M",
		Department: "MCA",
		Year:       intPtr(1),
		Email:      "25mx114@psgtech.ac.in",
		Mobile:     strPtr("9876543210"),
	}
}

func testEvents() staticEvents {
	return staticEvents{
		{ID: 1, Name: "Code Sprint", Date: "2026-03-14", Time: "10:00 AM", Venue: "Lab 3", RegistrationOpen: true},
		{ID: 2, Name: "Treasure Hunt", Date: "2026-03-15", Time: "2:00 PM", Venue: "Main Ground", RegistrationOpen: true},
		{ID: 3, Name: "Robo Race", Date: "2026-03-15", Time: "4:00 PM", Venue: "Arena", RegistrationOpen: false},
	}
}
