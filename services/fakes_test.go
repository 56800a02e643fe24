package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecotrack/models"
)

var errDown = fmt.Errorf("dial tcp: connection refused: %w", ErrStoreUnavailable)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

type memActivities struct {
	mu      sync.Mutex
	records []models.Activity
	err     error
}

func (m *memActivities) add(owner string, cat models.Category, qty float64, on time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, models.Activity{
		ID:         primitive.NewObjectID(),
		OwnerID:    owner,
		Category:   cat,
		Quantity:   qty,
		OccurredOn: on,
	})
}

func (m *memActivities) Create(_ context.Context, a *models.Activity) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = primitive.NewObjectID()
	m.records = append(m.records, *a)
	return nil
}

func (m *memActivities) Get(_ context.Context, id, owner string) (*models.Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID.Hex() == id && r.OwnerID == owner {
			r := r
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memActivities) Update(_ context.Context, a *models.Activity) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == a.ID && r.OwnerID == a.OwnerID {
			m.records[i] = *a
			return nil
		}
	}
	return ErrNotFound
}

func (m *memActivities) Delete(_ context.Context, id, owner string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID.Hex() == id && r.OwnerID == owner {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memActivities) ListByOwner(_ context.Context, owner string, start, end time.Time) ([]models.Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for _, r := range m.records {
		if r.OwnerID != owner {
			continue
		}
		if !start.IsZero() && r.OccurredOn.Before(start) {
			continue
		}
		if !end.IsZero() && !r.OccurredOn.Before(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memActivities) ListSince(_ context.Context, start time.Time) ([]models.Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for _, r := range m.records {
		if start.IsZero() || !r.OccurredOn.Before(start) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredOn.Before(out[j].OccurredOn)
	})
	return out, nil
}

type memUsers struct {
	mu         sync.Mutex
	users      map[string]*models.User
	err        error
	saveCalls  int
	awardCalls int
}

func newMemUsers(ids ...string) *memUsers {
	m := &memUsers{users: make(map[string]*models.User)}
	for _, id := range ids {
		m.users[id] = &models.User{ID: primitive.NewObjectID(), DisplayName: "user-" + id}
	}
	return m
}

func (m *memUsers) user(id string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := *m.users[id]
	return &u
}

func (m *memUsers) Get(_ context.Context, id string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	cp := *u
	cp.Badges = append([]string(nil), u.Badges...)
	return &cp, nil
}

func (m *memUsers) DisplayNames(_ context.Context, ids []string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make(map[string]string)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			names[id] = u.Name()
		}
	}
	return names, nil
}

func (m *memUsers) SaveStreak(_ context.Context, id string, s models.StreakState) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	m.saveCalls++
	u.CurrentStreak, u.LongestStreak, u.LastEntryDate = s.Current, s.Longest, s.LastEntryDate
	return nil
}

func (m *memUsers) ApplyAward(_ context.Context, id string, s *models.StreakState, points int) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	m.awardCalls++
	if s != nil {
		u.CurrentStreak, u.LongestStreak, u.LastEntryDate = s.Current, s.Longest, s.LastEntryDate
	}
	u.TotalPoints += points
	u.WeeklyPoints += points
	u.MonthlyPoints += points
	return nil
}

func (m *memUsers) AddBadges(_ context.Context, id string, badges []string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, b := range badges {
		if !u.HasBadge(b) {
			u.Badges = append(u.Badges, b)
		}
	}
	return nil
}

func (m *memUsers) UpdateGoal(_ context.Context, id string, g models.GoalInfo) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Goal, u.GoalType = g.Goal, g.GoalType
	return nil
}

func (m *memUsers) ResetPeriod(_ context.Context, period models.Period, cutoff, now time.Time) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		stamp := now
		switch period {
		case models.PeriodWeekly:
			if u.WeeklyResetAt == nil || u.WeeklyResetAt.Before(cutoff) {
				u.WeeklyPoints = 0
				u.WeeklyResetAt = &stamp
				n++
			}
		case models.PeriodMonthly:
			if u.MonthlyResetAt == nil || u.MonthlyResetAt.Before(cutoff) {
				u.MonthlyPoints = 0
				u.MonthlyResetAt = &stamp
				n++
			}
		}
	}
	return n, nil
}

type memCache struct {
	boards map[models.Period]models.Leaderboard
}

func (c *memCache) Get(_ context.Context, p models.Period) (*models.Leaderboard, error) {
	b, ok := c.boards[p]
	if !ok {
		return nil, nil
	}
	b.Entries = append([]models.LeaderboardEntry(nil), b.Entries...)
	return &b, nil
}

func (c *memCache) Set(_ context.Context, b *models.Leaderboard) error {
	if c.boards == nil {
		c.boards = make(map[models.Period]models.Leaderboard)
	}
	cp := *b
	cp.Entries = append([]models.LeaderboardEntry(nil), b.Entries...)
	c.boards[b.Period] = cp
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.GamificationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e models.GamificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
