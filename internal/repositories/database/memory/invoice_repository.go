package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	"github.com/SscSPs/school_finance_core/internal/utils/pagination"
)

func cloneInvoice(inv domain.Invoice, withLines bool) domain.Invoice {
	if withLines {
		inv.Items = append([]domain.InvoiceItem(nil), inv.Items...)
		inv.Scholarships = append([]domain.InvoiceScholarship(nil), inv.Scholarships...)
	} else {
		inv.Items = nil
		inv.Scholarships = nil
	}
	return inv
}

// matches applies every set field of the filter. An empty AcademicYearID matches all years.
func matches(inv domain.Invoice, f domain.InvoiceFilter) bool {
	if f.AcademicYearID != "" && inv.AcademicYearID != f.AcademicYearID {
		return false
	}
	if f.TermID != nil && inv.TermID != *f.TermID {
		return false
	}
	if f.SectionID != nil && inv.SectionID != *f.SectionID {
		return false
	}
	if f.GradeID != nil && inv.GradeID != *f.GradeID {
		return false
	}
	if f.ClassID != nil && inv.ClassID != *f.ClassID {
		return false
	}
	if f.StudentID != nil && inv.StudentID != *f.StudentID {
		return false
	}
	if f.DueBefore != nil && !inv.DueDate.Before(*f.DueBefore) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if inv.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *store) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	defer s.read()()
	inv, ok := s.st().invoices[invoiceID]
	if !ok {
		return nil, notFound("invoice", invoiceID)
	}
	out := cloneInvoice(inv, true)
	return &out, nil
}

func (s *store) activeInvoice(studentID, academicYearID, termID string) (domain.Invoice, bool) {
	for _, inv := range s.st().invoices {
		if inv.StudentID == studentID && inv.AcademicYearID == academicYearID && inv.TermID == termID && !inv.IsCancelled() {
			return inv, true
		}
	}
	return domain.Invoice{}, false
}

func (s *store) FindActiveInvoice(ctx context.Context, studentID, academicYearID, termID string) (*domain.Invoice, error) {
	defer s.read()()
	inv, ok := s.activeInvoice(studentID, academicYearID, termID)
	if !ok {
		return nil, notFound("active invoice", domain.InvoiceKey(studentID, academicYearID, termID))
	}
	out := cloneInvoice(inv, true)
	return &out, nil
}

func (s *store) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	defer s.read()()
	out := []domain.Invoice{}
	for _, inv := range s.st().invoices {
		if matches(inv, filter) {
			out = append(out, cloneInvoice(inv, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *store) ListInvoicesByStudent(ctx context.Context, studentID string, limit int, nextToken *string) ([]domain.Invoice, *string, error) {
	defer s.read()()
	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	rows := []domain.Invoice{}
	for _, inv := range s.st().invoices {
		if inv.StudentID != studentID {
			continue
		}
		if cursor != nil && !cursor.After(inv.IssueDate, inv.CreatedAt, inv.ID) {
			continue
		}
		rows = append(rows, cloneInvoice(inv, false))
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.IssueDate.Equal(b.IssueDate) {
			return a.IssueDate.After(b.IssueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	var next *string
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		token := pagination.EncodeToken(pagination.Cursor{Date: last.IssueDate, CreatedAt: last.CreatedAt, ID: last.ID})
		next = &token
	}
	return rows, next, nil
}

func (s *store) ListInvoiceScholarships(ctx context.Context, filter domain.InvoiceFilter) ([]domain.InvoiceScholarship, error) {
	defer s.read()()
	out := []domain.InvoiceScholarship{}
	ids := make([]string, 0, len(s.st().invoices))
	for id, inv := range s.st().invoices {
		if !inv.IsCancelled() && matches(inv, filter) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, s.st().invoices[id].Scholarships...)
	}
	return out, nil
}

// LockInvoiceKey is a no-op; the unit of work already holds the database lock.
func (s *store) LockInvoiceKey(ctx context.Context, studentID, academicYearID, termID string) error {
	return nil
}

func (s *store) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	defer s.write()()
	if existing, dup := s.activeInvoice(invoice.StudentID, invoice.AcademicYearID, invoice.TermID); dup && !invoice.IsCancelled() {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateInvoice, existing.InvoiceNumber)
	}
	for _, inv := range s.st().invoices {
		if inv.InvoiceNumber == invoice.InvoiceNumber {
			return fmt.Errorf("%w: invoice number %s taken", apperrors.ErrConcurrency, invoice.InvoiceNumber)
		}
	}
	s.st().invoices[invoice.ID] = cloneInvoice(invoice, true)
	s.st().track(invoice.ID)
	return nil
}

// LockInvoice is a plain read; the unit of work already holds the database lock.
func (s *store) LockInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.FindInvoiceByID(ctx, invoiceID)
}

func (s *store) UpdateInvoiceState(ctx context.Context, invoice domain.Invoice) error {
	defer s.write()()
	stored, ok := s.st().invoices[invoice.ID]
	if !ok {
		return notFound("invoice", invoice.ID)
	}
	stored.PaidAmount = invoice.PaidAmount
	stored.Status = invoice.Status
	stored.CancelledAt = invoice.CancelledAt
	stored.CancelledBy = invoice.CancelledBy
	stored.CancelReason = invoice.CancelReason
	stored.LastUpdatedAt = invoice.LastUpdatedAt
	stored.LastUpdatedBy = invoice.LastUpdatedBy
	s.st().invoices[invoice.ID] = stored
	return nil
}
