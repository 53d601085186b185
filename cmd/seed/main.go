package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/cache"
	"github.com/stemsi/minilms-backend/internal/config"
	"github.com/stemsi/minilms-backend/internal/database"
	"github.com/stemsi/minilms-backend/internal/logger"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/repository"
	"github.com/stemsi/minilms-backend/internal/service"
)

type seedClass struct {
	name, subject, teacher string
	day                    int
	start, end             model.TimeOfDay
	max                    int
}

type seedSubscription struct {
	student     int
	pkg         string
	total, used int
	start, end  model.Date
	active      bool
}

var (
	seedParents = []model.CreateParentRequest{
		{Name: "Budi Santoso", Phone: "0812345601", Email: strPtr("budi.santoso@mail.com")},
		{Name: "Siti Rahayu", Phone: "0812345602", Email: strPtr("siti.rahayu@mail.com")},
		{Name: "Agus Wijaya", Phone: "0812345603", Email: strPtr("agus.wijaya@mail.com")},
		{Name: "Dewi Lestari", Phone: "0812345604", Email: strPtr("dewi.lestari@mail.com")},
		{Name: "Hendra Gunawan", Phone: "0812345605", Email: strPtr("hendra.gunawan@mail.com")},
	}

	// parent index, name, dob, gender, grade
	seedStudents = []struct {
		parent int
		name   string
		dob    model.Date
		gender model.Gender
		grade  int
	}{
		{0, "Rafi Santoso", model.NewDate(2015, time.March, 15), model.GenderMale, 4},
		{0, "Nadia Santoso", model.NewDate(2017, time.July, 20), model.GenderFemale, 2},
		{1, "Bima Pratama", model.NewDate(2014, time.January, 10), model.GenderMale, 5},
		{2, "Ayu Wijaya", model.NewDate(2016, time.May, 5), model.GenderFemale, 3},
		{3, "Dimas Lestari", model.NewDate(2015, time.November, 25), model.GenderMale, 4},
		{4, "Galih Gunawan", model.NewDate(2016, time.September, 8), model.GenderMale, 3},
	}

	seedClasses = []seedClass{
		{"Matematika Lanjut 4", "Matematika", "Bu Sari", 1, hm(8, 0), hm(9, 30), 20},
		{"Bahasa Indonesia 4", "Bahasa Indonesia", "Pak Hadi", 1, hm(10, 0), hm(11, 30), 20},
		{"English Conversation", "Bahasa Inggris", "Ms. Sarah", 2, hm(8, 0), hm(9, 30), 15},
		{"Sains Alam", "IPA", "Pak Teguh", 2, hm(14, 0), hm(15, 30), 25},
		{"Menggambar", "Seni Rupa", "Bu Lina", 3, hm(8, 0), hm(9, 30), 15},
		{"Dasar Musik", "Musik", "Pak Dodi", 3, hm(10, 0), hm(11, 30), 20},
		{"Matematika Dasar 3", "Matematika", "Bu Rina", 4, hm(8, 0), hm(9, 30), 25},
		{"Olahraga", "PJOK", "Pak Joko", 5, hm(7, 0), hm(8, 30), 30},
		{"Coding Scratch", "Informatika", "Pak Fajar", 6, hm(9, 0), hm(10, 30), 15},
		// Overlaps "Matematika Lanjut 4" to exercise the conflict check.
		{"Persiapan Olimpiade", "Matematika", "Bu Nina", 1, hm(8, 30), hm(10, 0), 10},
	}

	// class index, student index
	seedRegistrations = [][2]int{
		{0, 0}, {2, 0}, {1, 1}, {4, 2}, {6, 3}, {7, 4}, {8, 5},
	}

	seedSubscriptions = []seedSubscription{
		{0, "Paket Semester 1", 40, 12, model.NewDate(2026, time.January, 5), model.NewDate(2026, time.June, 30), true},
		{1, "Paket Bulanan", 8, 3, model.NewDate(2026, time.February, 1), model.NewDate(2026, time.February, 28), true},
		{2, "Paket Semester 1", 40, 40, model.NewDate(2025, time.September, 1), model.NewDate(2026, time.January, 31), false},
		{3, "Paket Privat", 20, 5, model.NewDate(2026, time.January, 15), model.NewDate(2026, time.May, 15), true},
	}
)

func hm(h, m int) model.TimeOfDay { return model.NewTimeOfDay(h, m, 0) }

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func main() {
	var force bool
	flag.BoolVar(&force, "force", false, "Seed even when parents already exist")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	var classCache service.ClassListCache = cache.Noop{}
	if rdb != nil {
		defer rdb.Close()
		classCache = cache.NewClassList(rdb, cfg.CacheTTL, log)
	}

	parentRepo := repository.NewParentRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	registrationRepo := repository.NewRegistrationRepository(pool)

	s := &seeder{
		log:           log,
		parents:       service.NewParentService(parentRepo, studentRepo, classCache, log),
		students:      service.NewStudentService(studentRepo, registrationRepo, classCache, log),
		classes:       service.NewClassService(repository.NewClassRepository(pool), classCache, log),
		registrations: service.NewRegistrationService(registrationRepo, classCache, log),
		subscriptions: service.NewSubscriptionService(repository.NewSubscriptionRepository(pool), studentRepo, log),
	}

	existing, err := s.parents.List(ctx, model.ListParams{Limit: 1})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check existing data")
	}
	if len(existing) > 0 && !force {
		log.Warn().Msg("Database already has parents, skipping seed (use -force to seed anyway)")
		return
	}

	if err := s.run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
	fmt.Println("Seed data created successfully!")
}

type seeder struct {
	log           zerolog.Logger
	parents       *service.ParentService
	students      *service.StudentService
	classes       *service.ClassService
	registrations *service.RegistrationService
	subscriptions *service.SubscriptionService
}

func (s *seeder) run(ctx context.Context) error {
	fmt.Println("=== Seeding parents ===")
	parentIDs := make([]int, 0, len(seedParents))
	for i := range seedParents {
		p, err := s.parents.Create(ctx, &seedParents[i])
		if err != nil {
			return fmt.Errorf("parent %s: %w", seedParents[i].Name, err)
		}
		parentIDs = append(parentIDs, p.ID)
	}

	fmt.Println("=== Seeding students ===")
	studentIDs := make([]int, 0, len(seedStudents))
	for _, st := range seedStudents {
		dob, gender := st.dob, st.gender
		created, err := s.students.Create(ctx, &model.CreateStudentRequest{
			Name:         st.name,
			DOB:          &dob,
			Gender:       &gender,
			CurrentGrade: intPtr(st.grade),
			ParentID:     parentIDs[st.parent],
		})
		if err != nil {
			return fmt.Errorf("student %s: %w", st.name, err)
		}
		studentIDs = append(studentIDs, created.ID)
	}

	fmt.Println("=== Seeding classes ===")
	classIDs := make([]int, 0, len(seedClasses))
	for _, c := range seedClasses {
		day, start, end := c.day, c.start, c.end
		created, err := s.classes.Create(ctx, &model.CreateClassRequest{
			Name:          c.name,
			Subject:       c.subject,
			TeacherName:   c.teacher,
			DayOfWeek:     &day,
			TimeSlotStart: &start,
			TimeSlotEnd:   &end,
			MaxStudents:   intPtr(c.max),
		})
		if err != nil {
			return fmt.Errorf("class %s: %w", c.name, err)
		}
		classIDs = append(classIDs, created.ID)
	}

	fmt.Println("=== Seeding registrations ===")
	for _, r := range seedRegistrations {
		if _, err := s.registrations.Register(ctx, classIDs[r[0]], studentIDs[r[1]]); err != nil {
			return fmt.Errorf("register student %d in class %d: %w", studentIDs[r[1]], classIDs[r[0]], err)
		}
	}

	fmt.Println("=== Seeding subscriptions ===")
	for _, sub := range seedSubscriptions {
		start, end := sub.start, sub.end
		created, err := s.subscriptions.Create(ctx, &model.CreateSubscriptionRequest{
			StudentID:     studentIDs[sub.student],
			PackageName:   sub.pkg,
			TotalSessions: sub.total,
			StartDate:     &start,
			EndDate:       &end,
		})
		if err != nil {
			return fmt.Errorf("subscription %s: %w", sub.pkg, err)
		}
		used, active := sub.used, sub.active
		if _, err := s.subscriptions.Update(ctx, created.ID, &model.UpdateSubscriptionRequest{
			UsedSessions: &used,
			IsActive:     &active,
		}); err != nil {
			return fmt.Errorf("subscription %s: %w", sub.pkg, err)
		}
	}

	s.log.Info().
		Int("parents", len(parentIDs)).
		Int("students", len(studentIDs)).
		Int("classes", len(classIDs)).
		Int("registrations", len(seedRegistrations)).
		Int("subscriptions", len(seedSubscriptions)).
		Msg("Seed complete")
	return nil
}
