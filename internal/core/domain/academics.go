package domain

import "time"

// The academics and directory entities are owned by the surrounding platform.
// Finance only reads them, so they are kept as thin id-plus-attribute views.

// AcademicYear is a read-only view of an academic year.
type AcademicYear struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Term is a read-only view of a term within an academic year.
type Term struct {
	ID             string    `json:"id"`
	AcademicYearID string    `json:"academicYearID"`
	Name           string    `json:"name"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	IsCurrent      bool      `json:"isCurrent"`
}

// Contains reports whether d falls inside the term (inclusive).
func (t Term) Contains(d time.Time) bool {
	return WithinDates(d, t.StartDate, t.EndDate)
}

// Section groups grades (e.g. primary, secondary).
type Section struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Grade belongs to exactly one section.
type Grade struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SectionID string `json:"sectionID"`
}

// Class is a grade's cohort for an academic year.
type Class struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	GradeID        string `json:"gradeID"`
	AcademicYearID string `json:"academicYearID"`
}

// StudentStatus mirrors the directory's enrollment status.
type StudentStatus string

const (
	StudentActive    StudentStatus = "active"
	StudentInactive  StudentStatus = "inactive"
	StudentGraduated StudentStatus = "graduated"
)

// Student is a read-only view of a directory student.
type Student struct {
	ID             string        `json:"id"`
	FullName       string        `json:"fullName"`
	CurrentClassID *string       `json:"currentClassID,omitempty"`
	Status         StudentStatus `json:"status"`
}

// Placement is a student resolved down to class, grade and section.
type Placement struct {
	Student   Student
	Class     Class
	Grade     Grade
	SectionID string
}
