package gormdb

import "time"

// AcademicYear maps academic_years.
type AcademicYear struct {
	AcademicYearID string    `gorm:"column:academic_year_id;primaryKey"`
	Name           string    `gorm:"column:name"`
	StartDate      time.Time `gorm:"column:start_date;type:date"`
	EndDate        time.Time `gorm:"column:end_date;type:date"`
}

func (AcademicYear) TableName() string { return "academic_years" }

// Term maps terms.
type Term struct {
	TermID         string    `gorm:"column:term_id;primaryKey"`
	AcademicYearID string    `gorm:"column:academic_year_id;index"`
	Name           string    `gorm:"column:name"`
	StartDate      time.Time `gorm:"column:start_date;type:date"`
	EndDate        time.Time `gorm:"column:end_date;type:date"`
	IsCurrent      bool      `gorm:"column:is_current"`
}

func (Term) TableName() string { return "terms" }

// Section maps sections.
type Section struct {
	SectionID string `gorm:"column:section_id;primaryKey"`
	Name      string `gorm:"column:name"`
}

func (Section) TableName() string { return "sections" }

// Grade maps grades.
type Grade struct {
	GradeID   string `gorm:"column:grade_id;primaryKey"`
	Name      string `gorm:"column:name"`
	SectionID string `gorm:"column:section_id"`
}

func (Grade) TableName() string { return "grades" }

// Class maps classes.
type Class struct {
	ClassID        string `gorm:"column:class_id;primaryKey"`
	Name           string `gorm:"column:name"`
	GradeID        string `gorm:"column:grade_id"`
	AcademicYearID string `gorm:"column:academic_year_id"`
}

func (Class) TableName() string { return "classes" }

// Student maps students. CurrentClassID is NULL for students not placed in a class.
type Student struct {
	StudentID      string  `gorm:"column:student_id;primaryKey"`
	FullName       string  `gorm:"column:full_name"`
	CurrentClassID *string `gorm:"column:current_class_id;index"`
	Status         string  `gorm:"column:status"`
}

func (Student) TableName() string { return "students" }
