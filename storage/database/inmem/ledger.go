package inmemdb

import (
	"context"
	"strings"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
)

type ledgerRepository struct {
	db *DB
}

var _ ledger.Repository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *DB) *ledgerRepository {
	return &ledgerRepository{db: db}
}

var invoiceOrderings = comparators[ledger.Invoice]{
	"id":             func(a, b ledger.Invoice) int { return cmpInt(a.ID, b.ID) },
	"invoice_number": func(a, b ledger.Invoice) int { return strings.Compare(a.Number, b.Number) },
	"due_date":       func(a, b ledger.Invoice) int { return cmpTime(a.DueDate, b.DueDate) },
	"created_at":     func(a, b ledger.Invoice) int { return cmpTime(a.CreatedAt, b.CreatedAt) },
	"session_id":     func(a, b ledger.Invoice) int { return cmpInt(a.SessionID, b.SessionID) },
	"installment_id": func(a, b ledger.Invoice) int { return cmpInt(a.InstallmentID, b.InstallmentID) },
	"invoice_amount": func(a, b ledger.Invoice) int { return cmpInt(a.Amount, b.Amount) },
}

// withPaid fills Paid from the invoice's receipts.
func (t *tables) withPaid(inv ledger.Invoice) ledger.Invoice {
	inv.Paid = core.M(0)
	for _, r := range t.receipts.rows {
		if r.InvoiceID == inv.ID {
			inv.Paid = inv.Paid.Add(r.Amount)
		}
	}
	inv.Items = nil
	return inv
}

func (t *tables) invoiceTaken(inv ledger.Invoice) bool {
	return t.invoices.exists(func(o ledger.Invoice) bool {
		return o.ID != inv.ID && (o.Number == inv.Number ||
			(o.StudentID == inv.StudentID && o.SessionID == inv.SessionID && o.InstallmentID == inv.InstallmentID))
	})
}

func (repo ledgerRepository) NextSerial(ctx context.Context, prefix string, year int) (int, error) {
	t, done := repo.db.begin(ctx)
	defer done()
	return t.nextSerial(prefix, year), nil
}

func (repo ledgerRepository) CreateInvoice(ctx context.Context, inv ledger.Invoice) (ledger.Invoice, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.invoiceTaken(inv) {
		return ledger.Invoice{}, ledger.ErrInvoiceExists
	}
	inv.ID = t.invoices.nextID()
	stored := inv
	stored.Items, stored.Paid = nil, core.Money{}
	t.invoices.put(inv.ID, stored)
	return inv, nil
}

func (repo ledgerRepository) UpdateInvoice(ctx context.Context, inv ledger.Invoice) (ledger.Invoice, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	old, ok := t.invoices.get(inv.ID)
	if !ok {
		return ledger.Invoice{}, ledger.ErrInvoiceNotFound
	}
	inv.Number, inv.StudentID, inv.CreatedAt = old.Number, old.StudentID, old.CreatedAt
	if t.invoiceTaken(inv) {
		return ledger.Invoice{}, ledger.ErrInvoiceExists
	}
	stored := inv
	stored.Items, stored.Paid = nil, core.Money{}
	t.invoices.put(inv.ID, stored)
	return inv, nil
}

func (repo ledgerRepository) DeleteInvoice(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.invoices.has(id) {
		return ledger.ErrInvoiceNotFound
	}
	if t.receipts.exists(func(r ledger.Receipt) bool { return r.InvoiceID == id }) {
		return ledger.ErrInvoiceHasReceipts
	}
	t.items.removeWhere(func(it ledger.Item) bool { return it.InvoiceID == id })
	t.invoices.remove(id)
	return nil
}

func (repo ledgerRepository) GetInvoice(ctx context.Context, id int64) (ledger.Invoice, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	inv, ok := t.invoices.get(id)
	if !ok {
		return ledger.Invoice{}, ledger.ErrInvoiceNotFound
	}
	return t.withPaid(inv), nil
}

func (repo ledgerRepository) ListInvoices(ctx context.Context, filter ledger.InvoiceFilter, ordering []core.DBOrdering) ([]ledger.Invoice, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	invoices := t.invoices.filter(func(inv ledger.Invoice) bool {
		switch {
		case filter.StudentID != 0 && inv.StudentID != filter.StudentID:
			return false
		case filter.SessionID != 0 && inv.SessionID != filter.SessionID:
			return false
		case filter.InstallmentID != 0 && inv.InstallmentID != filter.InstallmentID:
			return false
		case filter.ClassID != 0 && (!inv.ClassID.Valid || inv.ClassID.Int64 != filter.ClassID):
			return false
		case filter.Status != "" && inv.Status != filter.Status:
			return false
		}
		return true
	})
	for i := range invoices {
		invoices[i] = t.withPaid(invoices[i])
	}
	invoiceOrderings.sort(invoices, ordering,
		core.DBOrdering{Field: "session_id", Ascending: true}, core.DBOrdering{Field: "installment_id", Ascending: true},
		core.DBOrdering{Field: "id", Ascending: true})
	return invoices, nil
}

func (repo ledgerRepository) LockStudentInvoices(ctx context.Context, studentID int64) ([]ledger.Invoice, error) {
	return repo.ListInvoices(ctx, ledger.InvoiceFilter{StudentID: studentID}, nil)
}

// Receipts

func (repo ledgerRepository) CreateReceipt(ctx context.Context, r ledger.Receipt) (ledger.Receipt, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.invoices.has(r.InvoiceID) {
		return ledger.Receipt{}, ledger.ErrInvoiceNotFound
	}
	if t.receipts.exists(func(o ledger.Receipt) bool { return o.Number == r.Number }) {
		return ledger.Receipt{}, ledger.ErrReceiptExists
	}
	r.ID = t.receipts.nextID()
	t.receipts.put(r.ID, r)
	return r, nil
}

func (repo ledgerRepository) UpdateReceipt(ctx context.Context, r ledger.Receipt) (ledger.Receipt, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.receipts.has(r.ID) {
		return ledger.Receipt{}, ledger.ErrReceiptNotFound
	}
	if t.receipts.exists(func(o ledger.Receipt) bool { return o.ID != r.ID && o.Number == r.Number }) {
		return ledger.Receipt{}, ledger.ErrReceiptExists
	}
	t.receipts.put(r.ID, r)
	return r, nil
}

func (repo ledgerRepository) DeleteReceipt(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.receipts.has(id) {
		return ledger.ErrReceiptNotFound
	}
	t.receipts.remove(id)
	return nil
}

func (repo ledgerRepository) GetReceipt(ctx context.Context, id int64) (ledger.Receipt, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if r, ok := t.receipts.get(id); ok {
		return r, nil
	}
	return ledger.Receipt{}, ledger.ErrReceiptNotFound
}

func (repo ledgerRepository) ListReceipts(ctx context.Context, filter ledger.ReceiptFilter) ([]ledger.Receipt, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	receipts := t.receipts.filter(func(r ledger.Receipt) bool {
		if filter.InvoiceID != 0 && r.InvoiceID != filter.InvoiceID {
			return false
		}
		if filter.StudentID != 0 {
			if inv, ok := t.invoices.get(r.InvoiceID); !ok || inv.StudentID != filter.StudentID {
				return false
			}
		}
		return inRange(r.DatePaid, filter.From, filter.To)
	})
	sortByDate(receipts, func(r ledger.Receipt) (int64, int64) { return r.DatePaid.Unix(), r.ID })
	return receipts, nil
}

func (repo ledgerRepository) CountReceipts(ctx context.Context, invoiceID int64) (int, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return len(t.receipts.filter(func(r ledger.Receipt) bool { return r.InvoiceID == invoiceID })), nil
}

// Items

func (repo ledgerRepository) CreateItem(ctx context.Context, it ledger.Item) (ledger.Item, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.invoices.has(it.InvoiceID) {
		return ledger.Item{}, ledger.ErrInvoiceNotFound
	}
	it.ID = t.items.nextID()
	t.items.put(it.ID, it)
	return it, nil
}

func (repo ledgerRepository) DeleteItem(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.items.has(id) {
		return ledger.ErrItemNotFound
	}
	t.items.remove(id)
	return nil
}

func (repo ledgerRepository) ListItems(ctx context.Context, invoiceID int64) ([]ledger.Item, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return t.items.filter(func(it ledger.Item) bool { return it.InvoiceID == invoiceID }), nil
}
