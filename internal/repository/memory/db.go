// Package memory is an in-process store with the same contracts as the
// Postgres repositories. It backs STORAGE_DRIVER=memory and the tests.
//
// A single RWMutex guards every table, so operations touching several tables
// (registration, cascading deletes) are atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/minilms-backend/internal/model"
)

// DB holds all tables.
type DB struct {
	mu sync.RWMutex

	parents       map[int]model.Parent
	students      map[int]model.Student
	classes       map[int]model.Class
	registrations map[int]model.Registration
	subscriptions map[int]model.Subscription

	lastID map[string]int
	now    func() time.Time
}

// Open creates an empty store.
func Open() *DB {
	return &DB{
		parents:       make(map[int]model.Parent),
		students:      make(map[int]model.Student),
		classes:       make(map[int]model.Class),
		registrations: make(map[int]model.Registration),
		subscriptions: make(map[int]model.Subscription),
		lastID:        make(map[string]int),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Ping mirrors the health check of the real connection pool.
func (db *DB) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (db *DB) nextID(table string) int {
	db.lastID[table]++
	return db.lastID[table]
}

// sortedIDs returns the keys of m in ascending order.
func sortedIDs[T any](m map[int]T) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// page applies skip/limit to an ordered slice.
func page[T any](items []T, params model.ListParams) []T {
	if params.Skip >= len(items) {
		return []T{}
	}
	items = items[params.Skip:]
	if params.Limit > 0 && params.Limit < len(items) {
		items = items[:params.Limit]
	}
	return items
}

// countRegistrations must be called with db.mu held.
func (db *DB) countRegistrations(classID int) int {
	n := 0
	for _, r := range db.registrations {
		if r.ClassID == classID {
			n++
		}
	}
	return n
}

// classRow returns a class with its derived fields filled. db.mu must be held.
func (db *DB) classRow(id int) (model.Class, bool) {
	c, ok := db.classes[id]
	if !ok {
		return model.Class{}, false
	}
	c.CurrentStudents = db.countRegistrations(id)
	return c, true
}

// studentRow returns a student with its derived fields filled. db.mu must be held.
func (db *DB) studentRow(id int) (model.Student, bool) {
	s, ok := db.students[id]
	if !ok {
		return model.Student{}, false
	}
	s.ParentName = db.parents[s.ParentID].Name
	return s, true
}

// deleteStudent removes a student and everything it owns. db.mu must be held.
func (db *DB) deleteStudent(id int) {
	for rid, r := range db.registrations {
		if r.StudentID == id {
			delete(db.registrations, rid)
		}
	}
	for sid, s := range db.subscriptions {
		if s.StudentID == id {
			delete(db.subscriptions, sid)
		}
	}
	delete(db.students, id)
}

// Counts reports the number of rows per table, for tests asserting cascades.
func (db *DB) Counts() map[string]int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return map[string]int{
		"parents":       len(db.parents),
		"students":      len(db.students),
		"classes":       len(db.classes),
		"registrations": len(db.registrations),
		"subscriptions": len(db.subscriptions),
	}
}
