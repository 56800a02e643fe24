package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecotrack/models"
	"ecotrack/services"
)

// ActivityStore is an in-memory services.ActivityStore. Err, when set, is
// returned by every call.
type ActivityStore struct {
	mu      sync.Mutex
	records []models.Activity
	Err     error
}

var _ services.ActivityStore = (*ActivityStore)(nil)

func NewActivityStore() *ActivityStore {
	return &ActivityStore{}
}

func (s *ActivityStore) fail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Err
}

// SetErr makes every following call fail with err; nil restores the store.
func (s *ActivityStore) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

func (s *ActivityStore) Create(_ context.Context, a *models.Activity) error {
	if err := s.fail(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, services.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	s.records = append(s.records, *a)
	return nil
}

func (s *ActivityStore) Get(_ context.Context, id, owner string) (*models.Activity, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID.Hex() == id && r.OwnerID == owner {
			r := r
			return &r, nil
		}
	}
	return nil, fmt.Errorf("entry %s: %w", id, services.ErrNotFound)
}

func (s *ActivityStore) Update(_ context.Context, a *models.Activity) error {
	if err := s.fail(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, services.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID == a.ID && r.OwnerID == a.OwnerID {
			s.records[i] = *a
			return nil
		}
	}
	return fmt.Errorf("entry %s: %w", a.ID.Hex(), services.ErrNotFound)
}

func (s *ActivityStore) Delete(_ context.Context, id, owner string) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID.Hex() == id && r.OwnerID == owner {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("entry %s: %w", id, services.ErrNotFound)
}

func (s *ActivityStore) ListByOwner(_ context.Context, owner string, start, end time.Time) ([]models.Activity, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Activity{}
	for _, r := range s.records {
		if r.OwnerID != owner {
			continue
		}
		if (!start.IsZero() && r.OccurredOn.Before(start)) || (!end.IsZero() && !r.OccurredOn.Before(end)) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredOn.After(out[j].OccurredOn) })
	return out, nil
}

func (s *ActivityStore) ListSince(_ context.Context, start time.Time) ([]models.Activity, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Activity{}
	for _, r := range s.records {
		if start.IsZero() || !r.OccurredOn.Before(start) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredOn.Before(out[j].OccurredOn) })
	return out, nil
}

// UserStore is an in-memory services.UserStore keyed by user id.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	Err   error
}

var _ services.UserStore = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*models.User)}
}

// Add stores a user under id.
func (s *UserStore) Add(id string, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &u
}

// SetErr makes every following call fail with err; nil restores the store.
func (s *UserStore) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// Snapshot returns a copy of the stored user.
func (s *UserStore) Snapshot(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *s.users[id]
	u.Badges = append([]string(nil), u.Badges...)
	return u
}

func (s *UserStore) lookup(id string) (*models.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, services.ErrNotFound)
	}
	return u, nil
}

func (s *UserStore) Get(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	cp := *u
	cp.Badges = append([]string(nil), u.Badges...)
	return &cp, nil
}

func (s *UserStore) DisplayNames(_ context.Context, ids []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	names := make(map[string]string)
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			names[id] = u.Name()
		}
	}
	return names, nil
}

func (s *UserStore) SaveStreak(_ context.Context, id string, st models.StreakState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.lookup(id)
	if err != nil {
		return err
	}
	u.CurrentStreak, u.LongestStreak, u.LastEntryDate = st.Current, st.Longest, st.LastEntryDate
	return nil
}

func (s *UserStore) ApplyAward(_ context.Context, id string, st *models.StreakState, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.lookup(id)
	if err != nil {
		return err
	}
	if st != nil {
		u.CurrentStreak, u.LongestStreak, u.LastEntryDate = st.Current, st.Longest, st.LastEntryDate
	}
	u.TotalPoints += points
	u.WeeklyPoints += points
	u.MonthlyPoints += points
	return nil
}

func (s *UserStore) AddBadges(_ context.Context, id string, badges []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.lookup(id)
	if err != nil {
		return err
	}
	for _, b := range badges {
		if !u.HasBadge(b) {
			u.Badges = append(u.Badges, b)
		}
	}
	return nil
}

func (s *UserStore) UpdateGoal(_ context.Context, id string, g models.GoalInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.lookup(id)
	if err != nil {
		return err
	}
	u.Goal, u.GoalType = g.Goal, g.GoalType
	return nil
}

func (s *UserStore) ResetPeriod(_ context.Context, period models.Period, cutoff, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, u := range s.users {
		stamp := now
		switch period {
		case models.PeriodWeekly:
			if u.WeeklyResetAt == nil || u.WeeklyResetAt.Before(cutoff) {
				u.WeeklyPoints, u.WeeklyResetAt = 0, &stamp
				n++
			}
		case models.PeriodMonthly:
			if u.MonthlyResetAt == nil || u.MonthlyResetAt.Before(cutoff) {
				u.MonthlyPoints, u.MonthlyResetAt = 0, &stamp
				n++
			}
		default:
			return 0, fmt.Errorf("reset %q: %w", period, services.ErrInvalidInput)
		}
	}
	return n, nil
}
