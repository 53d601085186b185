package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/minilms-backend/internal/cache"
	"github.com/stemsi/minilms-backend/internal/config"
	"github.com/stemsi/minilms-backend/internal/handler"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/repository/memory"
	"github.com/stemsi/minilms-backend/internal/response"
	"github.com/stemsi/minilms-backend/internal/service"
	"github.com/stemsi/minilms-backend/internal/validator"
)

func init() {
	validator.Setup()
}

func newTestRouter(t *testing.T) (*gin.Engine, *memory.DB) {
	t.Helper()
	log := zerolog.Nop()
	db := memory.Open()
	classCache := cache.Noop{}

	parentRepo := memory.NewParentRepository(db)
	studentRepo := memory.NewStudentRepository(db)
	classRepo := memory.NewClassRepository(db)
	registrationRepo := memory.NewRegistrationRepository(db)
	subscriptionRepo := memory.NewSubscriptionRepository(db)

	handlers := &Handlers{
		Parent:       handler.NewParentHandler(service.NewParentService(parentRepo, studentRepo, classCache, log), log),
		Student:      handler.NewStudentHandler(service.NewStudentService(studentRepo, registrationRepo, classCache, log), log),
		Class:        handler.NewClassHandler(service.NewClassService(classRepo, classCache, log), service.NewRegistrationService(registrationRepo, classCache, log), log),
		Subscription: handler.NewSubscriptionHandler(service.NewSubscriptionService(subscriptionRepo, studentRepo, log), log),
		Dashboard:    handler.NewDashboardHandler(service.NewDashboardService(memory.NewDashboardRepository(db), time.UTC), log),
		Health:       handler.NewHealthHandler(db, nil, log),
	}

	cfg := &config.Config{GinMode: gin.TestMode, RequestTimeout: 5 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRouter(ctx, handlers, cfg, log), db
}

type envelope struct {
	Data       json.RawMessage      `json:"data"`
	Detail     string               `json:"detail"`
	Error      *response.ErrorBody  `json:"error"`
	Pagination *response.Pagination `json:"pagination"`
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func createParent(t *testing.T, r http.Handler, phone string) model.Parent {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/parents/", gin.H{"name": "Parent " + phone, "phone": phone})
	require.Equal(t, http.StatusCreated, code, env.Detail)
	return decode[model.Parent](t, env)
}

func createStudent(t *testing.T, r http.Handler, parentID int, name string) model.Student {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/students/", gin.H{"name": name, "parent_id": parentID, "gender": "Male", "dob": "2015-04-01"})
	require.Equal(t, http.StatusCreated, code, env.Detail)
	return decode[model.Student](t, env)
}

func createClass(t *testing.T, r http.Handler, day int, start, end string, max int) model.Class {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/classes/", gin.H{
		"name": fmt.Sprintf("Class %d %s", day, start), "subject": "Math", "teacher_name": "Ms. Sari",
		"day_of_week": day, "time_slot_start": start, "time_slot_end": end, "max_students": max,
	})
	require.Equal(t, http.StatusCreated, code, env.Detail)
	return decode[model.Class](t, env)
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	code, env := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"ok"`)
}

func TestParentRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	p := createParent(t, r, "0811111111")

	code, env := do(t, r, http.MethodPost, "/api/parents", gin.H{"name": "Dup", "phone": "0811111111"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrDuplicatePhone, env.Error.Code)
	assert.Equal(t, "Phone number already registered.", env.Error.Message)

	code, env = do(t, r, http.MethodPost, "/api/parents/", gin.H{"name": "Bad", "phone": "911"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
	assert.Contains(t, env.Error.Fields, "phone")
	assert.NotEmpty(t, env.Detail)

	createStudent(t, r, p.ID, "Rina")
	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/parents/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[model.Parent](t, env)
	require.Len(t, got.Students, 1)
	assert.Equal(t, "Rina", got.Students[0].Name)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/parents/%d", p.ID), gin.H{"email": "parent@example.com"})
	require.Equal(t, http.StatusOK, code)
	got = decode[model.Parent](t, env)
	require.NotNil(t, got.Email)
	assert.Equal(t, p.Phone, got.Phone)

	code, env = do(t, r, http.MethodGet, "/api/parents/?skip=0&limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "limit")

	code, env = do(t, r, http.MethodGet, "/api/parents/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrInvalidID, env.Error.Code)

	code, env = do(t, r, http.MethodGet, "/api/parents/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Parent not found", env.Detail)
}

func TestStudentRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	p := createParent(t, r, "0811111111")
	st := createStudent(t, r, p.ID, "Rina")
	assert.Equal(t, p.Name, st.ParentName)
	require.NotNil(t, st.DOB)
	assert.Equal(t, "2015-04-01", st.DOB.String())

	code, env := do(t, r, http.MethodPost, "/api/students/", gin.H{"name": "Ghost", "parent_id": 999})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Parent not found", env.Detail)

	code, env = do(t, r, http.MethodPost, "/api/students/", gin.H{"name": "Odd", "parent_id": p.ID, "gender": "robot"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "gender")

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/students/%d", st.ID), gin.H{"current_grade": 4})
	require.Equal(t, http.StatusOK, code)
	updated := decode[model.Student](t, env)
	require.NotNil(t, updated.CurrentGrade)
	assert.Equal(t, 4, *updated.CurrentGrade)

	c := createClass(t, r, 1, "08:00", "09:30", 5)
	code, _ = do(t, r, http.MethodPost, fmt.Sprintf("/api/classes/%d/register", c.ID), gin.H{"student_id": st.ID})
	require.Equal(t, http.StatusCreated, code)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/students/%d/classes", st.ID), nil)
	require.Equal(t, http.StatusOK, code)
	classes := decode[[]model.Class](t, env)
	require.Len(t, classes, 1)
	assert.Equal(t, c.ID, classes[0].ID)

	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/students/%d", st.ID), nil)
	require.Equal(t, http.StatusOK, code)
	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/classes/%d", c.ID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, decode[model.Class](t, env).CurrentStudents)
}

func TestUpdateNullClearsOptionalFields(t *testing.T) {
	r, _ := newTestRouter(t)
	p := createParent(t, r, "0812121212")
	code, _ := do(t, r, http.MethodPut, fmt.Sprintf("/api/parents/%d", p.ID), gin.H{"email": "parent@example.com"})
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, r, http.MethodPut, fmt.Sprintf("/api/parents/%d", p.ID), gin.H{"name": "Renamed"})
	require.Equal(t, http.StatusOK, code)
	got := decode[model.Parent](t, env)
	require.NotNil(t, got.Email)
	assert.Equal(t, "Renamed", got.Name)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/parents/%d", p.ID), gin.H{"email": nil})
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, decode[model.Parent](t, env).Email)

	st := createStudent(t, r, p.ID, "Rina")
	code, _ = do(t, r, http.MethodPut, fmt.Sprintf("/api/students/%d", st.ID), gin.H{"current_grade": 4})
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/students/%d", st.ID), gin.H{"name": "Rina Putri"})
	require.Equal(t, http.StatusOK, code)
	kept := decode[model.Student](t, env)
	assert.NotNil(t, kept.DOB)
	assert.NotNil(t, kept.Gender)
	assert.NotNil(t, kept.CurrentGrade)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/students/%d", st.ID), gin.H{
		"dob": nil, "current_grade": nil, "gender": nil,
	})
	require.Equal(t, http.StatusOK, code, env.Detail)
	cleared := decode[model.Student](t, env)
	assert.Nil(t, cleared.DOB)
	assert.Nil(t, cleared.Gender)
	assert.Nil(t, cleared.CurrentGrade)
	assert.Equal(t, "Rina Putri", cleared.Name)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/students/%d", st.ID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, decode[model.Student](t, env).CurrentGrade)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/students/%d", st.ID), gin.H{"current_grade": 13})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "current_grade")

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/students/%d", st.ID), gin.H{"gender": "robot"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "gender")
}

func TestClassRegistrationFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	p := createParent(t, r, "0811111111")
	a := createStudent(t, r, p.ID, "A")
	b := createStudent(t, r, p.ID, "B")
	c := createClass(t, r, 2, "09:00", "10:30", 1)
	assert.Equal(t, model.NewTimeOfDay(9, 0, 0), c.TimeSlotStart)

	registerPath := fmt.Sprintf("/api/classes/%d/register", c.ID)

	code, env := do(t, r, http.MethodPost, registerPath, gin.H{"student_id": a.ID})
	require.Equal(t, http.StatusCreated, code, env.Detail)

	code, env = do(t, r, http.MethodPost, registerPath, gin.H{"student_id": a.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrDuplicateRegistration, env.Error.Code)

	code, env = do(t, r, http.MethodPost, registerPath, gin.H{"student_id": b.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrCapacityExceeded, env.Error.Code)
	assert.Equal(t, "class is full (1/1)", env.Detail)

	code, env = do(t, r, http.MethodPost, "/api/classes/999/register", gin.H{"student_id": a.ID})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Class not found", env.Detail)

	code, env = do(t, r, http.MethodPost, registerPath, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "student_id")

	overlap := createClass(t, r, 2, "10:00", "11:00", 5)
	code, env = do(t, r, http.MethodPost, fmt.Sprintf("/api/classes/%d/register", overlap.ID), gin.H{"student_id": a.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrScheduleConflict, env.Error.Code)
	assert.Contains(t, env.Detail, c.Name)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/classes/%d/students", c.ID), nil)
	require.Equal(t, http.StatusOK, code)
	students := decode[[]model.Student](t, env)
	require.Len(t, students, 1)
	assert.Equal(t, a.ID, students[0].ID)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/classes/%d", c.ID), gin.H{"max_students": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/classes/%d/unregister/%d", c.ID, a.ID), nil)
	require.Equal(t, http.StatusOK, code)
	code, env = do(t, r, http.MethodDelete, fmt.Sprintf("/api/classes/%d/unregister/%d", c.ID, a.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Registration not found", env.Detail)

	code, env = do(t, r, http.MethodGet, "/api/classes/", nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[[]model.Class](t, env)
	require.Len(t, list, 2)
	assert.Zero(t, list[0].CurrentStudents)
	assert.Equal(t, 2, env.Pagination.Count)
}

func TestClassCreateRejectsInvertedSlot(t *testing.T) {
	r, _ := newTestRouter(t)
	code, env := do(t, r, http.MethodPost, "/api/classes/", gin.H{
		"name": "Late", "subject": "Art", "teacher_name": "T",
		"day_of_week": 3, "time_slot_start": "11:00:00", "time_slot_end": "10:00:00",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "start time must be before end time", env.Detail)

	code, env = do(t, r, http.MethodPost, "/api/classes/", gin.H{
		"name": "Bad day", "subject": "Art", "teacher_name": "T",
		"day_of_week": 7, "time_slot_start": "10:00", "time_slot_end": "11:00",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "day_of_week")
}

func TestLastSeatOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)
	p := createParent(t, r, "0811111111")
	c := createClass(t, r, 4, "14:00", "15:30", 1)

	const n = 10
	ids := make([]int, n)
	for i := range ids {
		ids[i] = createStudent(t, r, p.ID, fmt.Sprintf("S%d", i)).ID
	}

	codes := make([]int, n)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			body, _ := json.Marshal(gin.H{"student_id": id})
			req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/classes/%d/register", c.ID), bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i, id)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
}

func TestScheduleRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	c := createClass(t, r, 2, "09:00", "10:30", 5)

	code, env := do(t, r, http.MethodGet, "/api/classes/schedule", nil)
	require.Equal(t, http.StatusOK, code)

	var grid struct {
		Rows [][]struct {
			Slot struct {
				Start string `json:"start"`
			} `json:"slot"`
			Classes []model.Class `json:"classes"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &grid))

	var starts []string
	for _, row := range grid.Rows {
		for _, cl := range row[2].Classes {
			if cl.ID == c.ID {
				starts = append(starts, row[2].Slot.Start)
			}
		}
	}
	assert.Equal(t, []string{"08:00:00", "09:00:00", "10:00:00"}, starts)
}

func TestSubscriptionRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	p := createParent(t, r, "0811111111")
	st := createStudent(t, r, p.ID, "A")

	code, env := do(t, r, http.MethodPost, "/api/subscriptions/", gin.H{
		"student_id": st.ID, "package_name": "Trial", "total_sessions": 1,
		"start_date": "2024-01-01", "end_date": "2024-01-31",
	})
	require.Equal(t, http.StatusCreated, code, env.Detail)
	sub := decode[model.Subscription](t, env)
	assert.True(t, sub.IsActive)
	assert.Zero(t, sub.UsedSessions)

	usePath := fmt.Sprintf("/api/subscriptions/%d/use-session", sub.ID)
	code, env = do(t, r, http.MethodPatch, usePath, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"remaining_sessions":0`)

	code, env = do(t, r, http.MethodPatch, usePath, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrSessionsExhausted, env.Error.Code)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/subscriptions/%d", sub.ID), gin.H{"is_active": false, "total_sessions": 3})
	require.Equal(t, http.StatusOK, code)
	code, env = do(t, r, http.MethodPatch, usePath, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrInactiveSubscription, env.Error.Code)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/subscriptions/%d", sub.ID), gin.H{"used_sessions": 9})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "used sessions cannot exceed total sessions", env.Detail)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/subscriptions/student/%d", st.ID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]model.Subscription](t, env), 1)

	code, env = do(t, r, http.MethodPost, "/api/subscriptions/", gin.H{
		"student_id": st.ID, "package_name": "Backwards", "total_sessions": 2,
		"start_date": "2024-02-01", "end_date": "2024-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/subscriptions/%d", sub.ID), nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/subscriptions/%d", sub.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDashboardRoute(t *testing.T) {
	r, db := newTestRouter(t)
	p := createParent(t, r, "0811111111")
	c := createClass(t, r, 1, "08:00", "09:00", 10)
	var ids []int
	for i := 0; i < 3; i++ {
		st := createStudent(t, r, p.ID, fmt.Sprintf("S%d", i))
		ids = append(ids, st.ID)
		code, _ := do(t, r, http.MethodPost, fmt.Sprintf("/api/classes/%d/register", c.ID), gin.H{"student_id": st.ID})
		require.Equal(t, http.StatusCreated, code)
	}
	code, _ := do(t, r, http.MethodDelete, fmt.Sprintf("/api/classes/%d/unregister/%d", c.ID, ids[0]), nil)
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, r, http.MethodGet, "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[model.DashboardStats](t, env)
	assert.Equal(t, 2, stats.TotalRegistrations)
	assert.Equal(t, 3, stats.TotalStudents)
	assert.Equal(t, 1, stats.TotalParents)
	assert.Equal(t, 1, stats.TotalClasses)

	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/parents/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, code)
	counts := db.Counts()
	assert.Zero(t, counts["students"])
	assert.Zero(t, counts["registrations"])
}
