// Package schedule answers time-slot questions over a snapshot of classes:
// which classes occupy a cell of the weekly grid, and whether a new class
// collides with ones a student already attends.
//
// All intervals are half-open [start, end). Two intervals overlap when
// aStart < bEnd && aEnd > bStart, so a class ending at 10:00 does not
// overlap one starting at 10:00.
package schedule

import (
	"github.com/stemsi/minilms-backend/internal/model"
)

// DaysPerWeek is the number of grid columns; day 0 is Sunday.
const DaysPerWeek = 7

// Slot is one row of the weekly grid.
type Slot struct {
	Start model.TimeOfDay `json:"start"`
	End   model.TimeOfDay `json:"end"`
}

// DefaultSlots are the display rows of the admin schedule grid.
var DefaultSlots = []Slot{
	{Start: model.NewTimeOfDay(7, 0, 0), End: model.NewTimeOfDay(8, 30, 0)},
	{Start: model.NewTimeOfDay(8, 0, 0), End: model.NewTimeOfDay(9, 30, 0)},
	{Start: model.NewTimeOfDay(9, 0, 0), End: model.NewTimeOfDay(10, 30, 0)},
	{Start: model.NewTimeOfDay(10, 0, 0), End: model.NewTimeOfDay(11, 30, 0)},
	{Start: model.NewTimeOfDay(14, 0, 0), End: model.NewTimeOfDay(15, 30, 0)},
	{Start: model.NewTimeOfDay(15, 30, 0), End: model.NewTimeOfDay(17, 0, 0)},
}

// Overlaps reports whether [aStart, aEnd) intersects [bStart, bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd model.TimeOfDay) bool {
	return aStart < bEnd && aEnd > bStart
}

// ClassesInCell returns every class held on day whose time slot intersects
// [slotStart, slotEnd), preserving input order. Partial overlap counts, so a
// class spanning several display slots is returned for each of them.
func ClassesInCell(classes []model.Class, day int, slotStart, slotEnd model.TimeOfDay) []model.Class {
	out := []model.Class{}
	for _, c := range classes {
		if c.DayOfWeek == day && Overlaps(c.TimeSlotStart, c.TimeSlotEnd, slotStart, slotEnd) {
			out = append(out, c)
		}
	}
	return out
}

// Cell is one (day, slot) intersection of the grid with its occupants.
type Cell struct {
	DayOfWeek int           `json:"day_of_week"`
	Slot      Slot          `json:"slot"`
	Classes   []model.Class `json:"classes"`
}

// Grid is the weekly schedule: Rows[i][d] is slot i on day d.
type Grid struct {
	Slots []Slot   `json:"slots"`
	Rows  [][]Cell `json:"rows"`
}

// BuildGrid lays classes out on a DaysPerWeek x len(slots) grid.
func BuildGrid(classes []model.Class, slots []Slot) Grid {
	rows := make([][]Cell, len(slots))
	for i, slot := range slots {
		row := make([]Cell, DaysPerWeek)
		for day := 0; day < DaysPerWeek; day++ {
			row[day] = Cell{
				DayOfWeek: day,
				Slot:      slot,
				Classes:   ClassesInCell(classes, day, slot.Start, slot.End),
			}
		}
		rows[i] = row
	}
	return Grid{Slots: slots, Rows: rows}
}

// FindConflict returns the first class in existing that is held on the same
// day as target with an overlapping time slot. Entries with target's ID are
// ignored.
func FindConflict(existing []model.Class, target model.Class) (model.Class, bool) {
	for _, c := range existing {
		if c.ID == target.ID {
			continue
		}
		if c.DayOfWeek == target.DayOfWeek &&
			Overlaps(target.TimeSlotStart, target.TimeSlotEnd, c.TimeSlotStart, c.TimeSlotEnd) {
			return c, true
		}
	}
	return model.Class{}, false
}
