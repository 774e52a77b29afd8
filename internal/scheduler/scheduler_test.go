package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elrc-run/attendly/internal/clock"
	"github.com/elrc-run/attendly/internal/occurrence/domain"
	"github.com/elrc-run/attendly/internal/occurrence/repository"
	"github.com/elrc-run/attendly/internal/occurrence/service"
	"github.com/elrc-run/attendly/internal/providers/forms"
	"github.com/elrc-run/attendly/internal/providers/records"
	"github.com/elrc-run/attendly/internal/recurrence"
	dbpkg "github.com/elrc-run/attendly/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type countingForms struct {
	calls int
	fail  bool
}

func (f *countingForms) CreateForm(ctx context.Context, title string, scheduledAt time.Time) (forms.URLs, error) {
	f.calls++
	if f.fail {
		return forms.URLs{}, errors.New("forms api unavailable")
	}
	return forms.URLs{
		FormURL:     "https://docs.google.com/forms/d/fake/viewform",
		ResponseURL: "https://docs.google.com/forms/d/fake/edit",
	}, nil
}

func seoulLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func defaultTestRules() []recurrence.Rule {
	return []recurrence.Rule{
		{Weekday: time.Wednesday, Hour: 20, Minute: 30, Title: "수요일 저녁 출석체크"},
		{Weekday: time.Saturday, Hour: 8, Minute: 0, Title: "토요일 오전 출석체크"},
	}
}

func newTestScheduler(t *testing.T, fc *clock.FakeClock, fp forms.Provider) (*Scheduler, *gorm.DB) {
	t.Helper()

	conn, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Occurrence{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := repository.Provide()
	svc := service.New(service.Params{
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repo,
		Forms:   fp,
		Records: records.NoOpProvider{},
	})

	sched, err := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		Svc:      svc,
		Repo:     repo,
		Rules:    defaultTestRules(),
		Location: seoulLocation(t),
		Clock:    fc,
		Config:   Config{CheckInterval: time.Hour, LookaheadWindow: time.Hour},
	})
	require.NoError(t, err)
	return sched, conn
}

func allOccurrences(t *testing.T, conn *gorm.DB) []domain.Occurrence {
	t.Helper()
	var occs []domain.Occurrence
	require.NoError(t, conn.Order("scheduled_time asc").Find(&occs).Error)
	return occs
}

func TestRunOnceMaterializesNextOccurrence(t *testing.T) {
	seoul := seoulLocation(t)
	// Monday morning, two days before the Wednesday slot.
	fc := clock.NewFakeClock(time.Date(2024, 3, 18, 10, 0, 0, 0, seoul))
	fp := &countingForms{}
	sched, conn := newTestScheduler(t, fc, fp)

	require.NoError(t, sched.RunOnce(context.Background()))

	occs := allOccurrences(t, conn)
	require.Len(t, occs, 1)
	want := time.Date(2024, 3, 20, 11, 30, 0, 0, time.UTC)
	assert.True(t, occs[0].ScheduledTime.Equal(want), "got %v", occs[0].ScheduledTime)
	assert.Equal(t, "수요일 저녁 출석체크", occs[0].Title)
	assert.False(t, occs[0].Notified)
	assert.Equal(t, 1, fp.calls)
}

func TestRunOnceIsIdempotentAcrossTicks(t *testing.T) {
	seoul := seoulLocation(t)
	fc := clock.NewFakeClock(time.Date(2024, 3, 18, 10, 0, 0, 0, seoul))
	fp := &countingForms{}
	sched, conn := newTestScheduler(t, fc, fp)

	require.NoError(t, sched.RunOnce(context.Background()))
	fc.Advance(time.Hour)
	require.NoError(t, sched.RunOnce(context.Background()))

	assert.Len(t, allOccurrences(t, conn), 1)
	assert.Equal(t, 1, fp.calls, "second tick must not provision again")

	// Even with the in-process cache gone, the existence check holds.
	sched.ResetCache()
	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Len(t, allOccurrences(t, conn), 1)
	assert.Equal(t, 1, fp.calls)
}

func TestRunOnceAdvancesToNextRuleAfterSlotPasses(t *testing.T) {
	seoul := seoulLocation(t)
	fc := clock.NewFakeClock(time.Date(2024, 3, 18, 10, 0, 0, 0, seoul))
	fp := &countingForms{}
	sched, conn := newTestScheduler(t, fc, fp)

	require.NoError(t, sched.RunOnce(context.Background()))

	// Thursday: the Wednesday slot has passed, Saturday 08:00 is next.
	fc.Set(time.Date(2024, 3, 21, 10, 0, 0, 0, seoul))
	require.NoError(t, sched.RunOnce(context.Background()))

	occs := allOccurrences(t, conn)
	require.Len(t, occs, 2)
	wantSat := time.Date(2024, 3, 22, 23, 0, 0, 0, time.UTC)
	assert.True(t, occs[1].ScheduledTime.Equal(wantSat), "got %v", occs[1].ScheduledTime)
	assert.Equal(t, "토요일 오전 출석체크", occs[1].Title)
}

func TestRunOnceFlagsImminentOccurrenceExactlyOnce(t *testing.T) {
	seoul := seoulLocation(t)
	// Wednesday 20:00, thirty minutes before the slot.
	fc := clock.NewFakeClock(time.Date(2024, 3, 20, 20, 0, 0, 0, seoul))
	fp := &countingForms{}
	sched, conn := newTestScheduler(t, fc, fp)

	// Seed the imminent occurrence as an earlier tick would have.
	at := time.Date(2024, 3, 20, 11, 30, 0, 0, time.UTC)
	_, created, err := seedOccurrence(t, conn, at)
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, sched.RunOnce(context.Background()))

	occs := allOccurrences(t, conn)
	var imminent *domain.Occurrence
	for i := range occs {
		if occs[i].ScheduledTime.Equal(at) {
			imminent = &occs[i]
		}
	}
	require.NotNil(t, imminent)
	assert.True(t, imminent.Notified)

	// A second scan finds nothing left to flag.
	var unnotified int64
	require.NoError(t, conn.Model(&domain.Occurrence{}).
		Where("notified = ? AND scheduled_time <= ?", false, at).
		Count(&unnotified).Error)
	assert.Zero(t, unnotified)
}

// flakyNotifyRepo fails a fixed number of MarkNotified calls before
// delegating to the real repository.
type flakyNotifyRepo struct {
	domain.Repository
	failures int
}

func (r *flakyNotifyRepo) MarkNotified(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	if r.failures > 0 {
		r.failures--
		return false, errors.New("connection reset")
	}
	return r.Repository.MarkNotified(ctx, db, id)
}

func TestRunOnceNotifyFailureDoesNotBlockOthers(t *testing.T) {
	seoul := seoulLocation(t)
	// Wednesday 20:00, with two occurrences inside the lookahead window.
	fc := clock.NewFakeClock(time.Date(2024, 3, 20, 20, 0, 0, 0, seoul))

	conn, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Occurrence{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := repository.Provide()
	svc := service.New(service.Params{
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repo,
		Forms:   &countingForms{},
		Records: records.NoOpProvider{},
	})

	first := time.Date(2024, 3, 20, 11, 30, 0, 0, time.UTC)
	second := time.Date(2024, 3, 20, 11, 45, 0, 0, time.UTC)
	for _, at := range []time.Time{first, second} {
		_, created, err := svc.CreateIfAbsent(context.Background(), at, "수요일 저녁 출석체크")
		require.NoError(t, err)
		require.True(t, created)
	}

	flaky := &flakyNotifyRepo{Repository: repo, failures: 1}
	sched, err := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		Svc:      svc,
		Repo:     flaky,
		Rules:    defaultTestRules(),
		Location: seoul,
		Clock:    fc,
		Config:   Config{CheckInterval: time.Hour, LookaheadWindow: time.Hour},
	})
	require.NoError(t, err)

	// The earliest occurrence fails to flip; the later one must still
	// be flagged in the same cycle.
	err = sched.RunOnce(context.Background())
	require.Error(t, err)

	occs := allOccurrences(t, conn)
	require.Len(t, occs, 2)
	assert.False(t, occs[0].Notified)
	assert.True(t, occs[1].Notified)

	// The next cycle picks up the one that failed.
	require.NoError(t, sched.RunOnce(context.Background()))
	occs = allOccurrences(t, conn)
	assert.True(t, occs[0].Notified)
	assert.True(t, occs[1].Notified)
}

func TestRunOnceLeavesDistantOccurrencesUnnotified(t *testing.T) {
	seoul := seoulLocation(t)
	// Monday: the next slot is two days out, far beyond the window.
	fc := clock.NewFakeClock(time.Date(2024, 3, 18, 10, 0, 0, 0, seoul))
	sched, conn := newTestScheduler(t, fc, &countingForms{})

	require.NoError(t, sched.RunOnce(context.Background()))

	occs := allOccurrences(t, conn)
	require.Len(t, occs, 1)
	assert.False(t, occs[0].Notified)
}

func TestRunOnceRetriesAfterProvisioningFailure(t *testing.T) {
	seoul := seoulLocation(t)
	fc := clock.NewFakeClock(time.Date(2024, 3, 18, 10, 0, 0, 0, seoul))
	fp := &countingForms{fail: true}
	sched, conn := newTestScheduler(t, fc, fp)

	err := sched.RunOnce(context.Background())
	require.ErrorIs(t, err, domain.ErrFormProvisioning)
	assert.Empty(t, allOccurrences(t, conn))

	// The failed slot was not cached, so the next tick retries it.
	fp.fail = false
	fc.Advance(time.Hour)
	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Len(t, allOccurrences(t, conn), 1)
}

func TestNewRejectsInvalidRuleSet(t *testing.T) {
	seoul := seoulLocation(t)
	conn, err := dbpkg.NewTest()
	require.NoError(t, err)

	_, err = New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		Svc:      nopService{},
		Repo:     repository.Provide(),
		Rules:    nil,
		Location: seoul,
		Clock:    clock.NewFakeClock(time.Now()),
	})
	assert.ErrorIs(t, err, recurrence.ErrNoRules)
}

// seedOccurrence inserts a bare occurrence row the way the materialize
// phase would, bypassing the scheduler under test.
func seedOccurrence(t *testing.T, conn *gorm.DB, at time.Time) (*domain.Response, bool, error) {
	t.Helper()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	svc := service.New(service.Params{
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repository.Provide(),
		Forms:   forms.NoOpProvider{},
		Records: records.NoOpProvider{},
	})
	return svc.CreateIfAbsent(context.Background(), at, "수요일 저녁 출석체크")
}

type nopService struct{}

func (nopService) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	return nil, nil
}

func (nopService) CreateIfAbsent(ctx context.Context, at time.Time, title string) (*domain.Response, bool, error) {
	return nil, false, nil
}

func (nopService) GetByID(ctx context.Context, id string) (*domain.Response, error) {
	return nil, domain.ErrNotFound
}

func (nopService) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	return nil, nil
}
