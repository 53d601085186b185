package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/repository"
)

type fixture struct {
	db            *DB
	parents       *ParentRepository
	students      *StudentRepository
	classes       *ClassRepository
	registrations *RegistrationRepository
	subscriptions *SubscriptionRepository
	dashboard     *DashboardRepository
}

func newFixture() *fixture {
	db := Open()
	return &fixture{
		db:            db,
		parents:       NewParentRepository(db),
		students:      NewStudentRepository(db),
		classes:       NewClassRepository(db),
		registrations: NewRegistrationRepository(db),
		subscriptions: NewSubscriptionRepository(db),
		dashboard:     NewDashboardRepository(db),
	}
}

func (f *fixture) parent(t *testing.T, phone string) *model.Parent {
	t.Helper()
	p := &model.Parent{Name: "Parent " + phone, Phone: phone}
	require.NoError(t, f.parents.Create(context.Background(), p))
	return p
}

func (f *fixture) student(t *testing.T, parentID int, name string) *model.Student {
	t.Helper()
	s := &model.Student{Name: name, ParentID: parentID}
	require.NoError(t, f.students.Create(context.Background(), s))
	return s
}

func (f *fixture) class(t *testing.T, day int, start, end model.TimeOfDay, max int) *model.Class {
	t.Helper()
	c := &model.Class{
		Name:          fmt.Sprintf("Class %d %s", day, start.Short()),
		Subject:       "Math",
		TeacherName:   "Teacher",
		DayOfWeek:     day,
		TimeSlotStart: start,
		TimeSlotEnd:   end,
		MaxStudents:   max,
	}
	require.NoError(t, f.classes.Create(context.Background(), c))
	return c
}

func hm(h, m int) model.TimeOfDay { return model.NewTimeOfDay(h, m, 0) }

func TestParentPhoneUnique(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.parent(t, "0812345678")

	err := f.parents.Create(ctx, &model.Parent{Name: "Other", Phone: "0812345678"})
	assert.ErrorIs(t, err, repository.ErrDuplicatePhone)

	other := f.parent(t, "0899999999")
	_, err = f.parents.Update(ctx, other.ID, func(o *model.Parent) error {
		o.Phone = p.Phone
		return nil
	})
	assert.ErrorIs(t, err, repository.ErrDuplicatePhone)

	// Keeping one's own phone is not a conflict.
	updated, err := f.parents.Update(ctx, p.ID, func(o *model.Parent) error {
		o.Name = "Renamed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestParentDeleteCascades(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.parent(t, "0811111111")
	keep := f.parent(t, "0822222222")
	s1 := f.student(t, p.ID, "A")
	s2 := f.student(t, p.ID, "B")
	s3 := f.student(t, keep.ID, "C")
	c := f.class(t, 1, hm(8, 0), hm(9, 0), 10)

	for _, s := range []*model.Student{s1, s2, s3} {
		_, err := f.registrations.Register(ctx, c.ID, s.ID)
		require.NoError(t, err)
	}
	require.NoError(t, f.subscriptions.Create(ctx, &model.Subscription{
		StudentID: s1.ID, PackageName: "Basic", TotalSessions: 4, IsActive: true,
	}))

	require.NoError(t, f.parents.Delete(ctx, p.ID))

	counts := f.db.Counts()
	assert.Equal(t, 1, counts["parents"])
	assert.Equal(t, 1, counts["students"])
	assert.Equal(t, 1, counts["registrations"])
	assert.Equal(t, 0, counts["subscriptions"])

	got, err := f.classes.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStudents)

	_, err = f.students.GetByID(ctx, s1.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, f.parents.Delete(ctx, p.ID), repository.ErrNotFound)
}

func TestStudentRequiresParent(t *testing.T) {
	f := newFixture()
	err := f.students.Create(context.Background(), &model.Student{Name: "Orphan", ParentID: 42})

	var nf *repository.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "parent", nf.Resource)
}

func TestStudentParentName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.parent(t, "0811111111")
	q := f.parent(t, "0822222222")
	s := f.student(t, p.ID, "A")

	got, err := f.students.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.ParentName)

	moved, err := f.students.Update(ctx, s.ID, func(st *model.Student) error {
		st.ParentID = q.ID
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, q.Name, moved.ParentName)

	byParent, err := f.students.ListByParents(ctx, []int{q.ID})
	require.NoError(t, err)
	require.Len(t, byParent, 1)
	assert.Equal(t, s.ID, byParent[0].ID)
}

func TestRegisterCheckOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.parent(t, "0811111111")
	a := f.student(t, p.ID, "A")
	b := f.student(t, p.ID, "B")

	full := f.class(t, 1, hm(8, 0), hm(9, 0), 1)
	_, err := f.registrations.Register(ctx, full.ID, a.ID)
	require.NoError(t, err)

	t.Run("missing class", func(t *testing.T) {
		_, err := f.registrations.Register(ctx, 999, a.ID)
		var nf *repository.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "class", nf.Resource)
	})

	t.Run("missing student", func(t *testing.T) {
		_, err := f.registrations.Register(ctx, full.ID, 999)
		var nf *repository.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "student", nf.Resource)
	})

	t.Run("duplicate wins over capacity", func(t *testing.T) {
		_, err := f.registrations.Register(ctx, full.ID, a.ID)
		assert.ErrorIs(t, err, repository.ErrDuplicateRegistration)
	})

	t.Run("capacity", func(t *testing.T) {
		_, err := f.registrations.Register(ctx, full.ID, b.ID)
		var ce *repository.CapacityError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, 1, ce.Current)
		assert.Equal(t, 1, ce.Max)
	})

	t.Run("schedule conflict", func(t *testing.T) {
		overlapping := f.class(t, 1, hm(8, 30), hm(10, 0), 5)
		_, err := f.registrations.Register(ctx, overlapping.ID, a.ID)
		var sc *repository.ScheduleConflictError
		require.True(t, errors.As(err, &sc))
		assert.Equal(t, full.ID, sc.Existing.ID)
	})

	t.Run("touching slots do not conflict", func(t *testing.T) {
		next := f.class(t, 1, hm(9, 0), hm(10, 0), 5)
		_, err := f.registrations.Register(ctx, next.ID, a.ID)
		assert.NoError(t, err)
	})

	t.Run("other day does not conflict", func(t *testing.T) {
		tuesday := f.class(t, 2, hm(8, 0), hm(9, 0), 5)
		_, err := f.registrations.Register(ctx, tuesday.ID, a.ID)
		assert.NoError(t, err)
	})
}

func TestUnregister(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.parent(t, "0811111111")
	s := f.student(t, p.ID, "A")
	c := f.class(t, 3, hm(10, 0), hm(11, 0), 2)

	_, err := f.registrations.Register(ctx, c.ID, s.ID)
	require.NoError(t, err)
	require.NoError(t, f.registrations.Unregister(ctx, c.ID, s.ID))

	got, err := f.classes.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStudents)

	assert.ErrorIs(t, f.registrations.Unregister(ctx, c.ID, s.ID), repository.ErrNotFound)
	assert.ErrorIs(t, f.registrations.Unregister(ctx, 999, s.ID), repository.ErrNotFound)
}

func TestLastSeatConcurrent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.parent(t, "0811111111")
	c := f.class(t, 4, hm(13, 0), hm(14, 0), 1)

	const n = 20
	students := make([]*model.Student, n)
	for i := range students {
		students[i] = f.student(t, p.ID, fmt.Sprintf("S%d", i))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		refused int
	)
	for _, s := range students {
		wg.Add(1)
		go func(studentID int) {
			defer wg.Done()
			_, err := f.registrations.Register(ctx, c.ID, studentID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, repository.ErrCapacityExceeded) {
				refused++
			}
		}(s.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, refused)

	got, err := f.classes.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStudents)
}

func TestClassUpdateSeesCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.parent(t, "0811111111")
	c := f.class(t, 5, hm(8, 0), hm(9, 0), 3)
	for i := 0; i < 2; i++ {
		s := f.student(t, p.ID, fmt.Sprintf("S%d", i))
		_, err := f.registrations.Register(ctx, c.ID, s.ID)
		require.NoError(t, err)
	}

	_, err := f.classes.Update(ctx, c.ID, func(cl *model.Class) error {
		cl.MaxStudents = 1
		return cl.Validate()
	})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "max_students", ve.Field)

	updated, err := f.classes.Update(ctx, c.ID, func(cl *model.Class) error {
		cl.MaxStudents = 2
		return cl.Validate()
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentStudents)
}

func TestUseSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.parent(t, "0811111111")
	s := f.student(t, p.ID, "A")

	sub := &model.Subscription{StudentID: s.ID, PackageName: "Trial", TotalSessions: 2, IsActive: true}
	require.NoError(t, f.subscriptions.Create(ctx, sub))

	for want := 1; want <= 2; want++ {
		got, err := f.subscriptions.UseSession(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.UsedSessions)
	}

	_, err := f.subscriptions.UseSession(ctx, sub.ID)
	assert.ErrorIs(t, err, repository.ErrSessionsExhausted)

	got, err := f.subscriptions.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive, "running out of sessions must not deactivate")

	_, err = f.subscriptions.Update(ctx, sub.ID, func(x *model.Subscription) error {
		x.IsActive = false
		return nil
	})
	require.NoError(t, err)
	_, err = f.subscriptions.UseSession(ctx, sub.ID)
	assert.ErrorIs(t, err, repository.ErrInactiveSubscription)

	_, err = f.subscriptions.UseSession(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUseSessionConcurrent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.parent(t, "0811111111")
	s := f.student(t, p.ID, "A")
	sub := &model.Subscription{StudentID: s.ID, PackageName: "Pack", TotalSessions: 5, IsActive: true}
	require.NoError(t, f.subscriptions.Create(ctx, sub))

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.subscriptions.UseSession(ctx, sub.ID)
		}()
	}
	wg.Wait()

	got, err := f.subscriptions.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.UsedSessions)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.parent(t, "0811111111")
	a := f.student(t, p.ID, "A")
	f.student(t, p.ID, "B")
	mon := f.class(t, 1, hm(8, 0), hm(9, 0), 5)
	f.class(t, 1, hm(10, 0), hm(11, 0), 5)
	f.class(t, 2, hm(8, 0), hm(9, 0), 5)
	_, err := f.registrations.Register(ctx, mon.ID, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.subscriptions.Create(ctx, &model.Subscription{StudentID: a.ID, PackageName: "A", TotalSessions: 1, IsActive: true}))
	require.NoError(t, f.subscriptions.Create(ctx, &model.Subscription{StudentID: a.ID, PackageName: "B", TotalSessions: 1}))

	stats, err := f.dashboard.GetStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.DashboardStats{
		TotalStudents:       2,
		TotalParents:        1,
		TotalClasses:        3,
		TotalRegistrations:  1,
		ActiveSubscriptions: 1,
		ClassesToday:        2,
	}, *stats)
}

func TestListPaging(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.parent(t, fmt.Sprintf("08%08d", i))
	}
	got, err := f.parents.List(context.Background(), model.ListParams{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 3, got[1].ID)

	empty, err := f.parents.List(context.Background(), model.ListParams{Skip: 10, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)
}
