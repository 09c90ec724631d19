package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
)

type ledgerRepository struct {
	repository
}

var _ ledger.Repository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *sqlx.DB) *ledgerRepository {
	return &ledgerRepository{repository{db: db}}
}

// invoiceSelect loads invoices with the sum of their receipts.
const invoiceSelect = `
	SELECT i.*, COALESCE((SELECT SUM(r.amount_paid) FROM receipt r WHERE r.invoice_id = i.id), 0) AS amount_paid
	FROM invoice i`

var invoiceOrderings = map[string]bool{
	"id": true, "invoice_number": true, "due_date": true, "created_at": true, "session_id": true,
	"installment_id": true, "invoice_amount": true,
}

func (repo ledgerRepository) NextSerial(ctx context.Context, prefix string, year int) (int, error) {
	return nextSerial(ctx, repo.repository, prefix, year)
}

func (repo ledgerRepository) CreateInvoice(ctx context.Context, inv ledger.Invoice) (ledger.Invoice, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO invoice (
			invoice_number, student_id, session_id, installment_id, class_id, fee_tier_id, invoice_amount,
			due_date, notes, status, balance_from_previous, created_at, updated_at
		) VALUES (
			:invoice_number, :student_id, :session_id, :installment_id, :class_id, :fee_tier_id, :invoice_amount,
			:due_date, :notes, :status, :balance_from_previous, :created_at, :updated_at
		) RETURNING id`, inv, ledger.ErrInvoiceExists)
	if err != nil {
		return ledger.Invoice{}, err
	}
	inv.ID = id
	return inv, nil
}

func (repo ledgerRepository) UpdateInvoice(ctx context.Context, inv ledger.Invoice) (ledger.Invoice, error) {
	err := repo.update(ctx, `
		UPDATE invoice SET
			session_id = :session_id, installment_id = :installment_id, class_id = :class_id,
			fee_tier_id = :fee_tier_id, invoice_amount = :invoice_amount, due_date = :due_date, notes = :notes,
			status = :status, balance_from_previous = :balance_from_previous, updated_at = :updated_at
		WHERE id = :id`, inv, ledger.ErrInvoiceNotFound, ledger.ErrInvoiceExists)
	return inv, err
}

func (repo ledgerRepository) DeleteInvoice(ctx context.Context, id int64) error {
	return repo.delete(ctx, "invoice", id, ledger.ErrInvoiceNotFound, ledger.ErrInvoiceHasReceipts)
}

func (repo ledgerRepository) GetInvoice(ctx context.Context, id int64) (ledger.Invoice, error) {
	var inv ledger.Invoice
	err := repo.get(ctx, &inv, ledger.ErrInvoiceNotFound, invoiceSelect+` WHERE i.id = $1`, id)
	return inv, err
}

func (repo ledgerRepository) ListInvoices(ctx context.Context, filter ledger.InvoiceFilter, ordering []core.DBOrdering) ([]ledger.Invoice, error) {
	w := &where{}
	if filter.StudentID != 0 {
		w.add("i.student_id = ?", filter.StudentID)
	}
	if filter.SessionID != 0 {
		w.add("i.session_id = ?", filter.SessionID)
	}
	if filter.InstallmentID != 0 {
		w.add("i.installment_id = ?", filter.InstallmentID)
	}
	if filter.ClassID != 0 {
		w.add("i.class_id = ?", filter.ClassID)
	}
	if filter.Status != "" {
		w.add("i.status = ?", filter.Status)
	}
	ord := core.FilterOrderings(ordering, invoiceOrderings,
		core.DBOrdering{Field: "session_id", Ascending: true}, core.DBOrdering{Field: "installment_id", Ascending: true},
		core.DBOrdering{Field: "id", Ascending: true})

	invoices := []ledger.Invoice{}
	err := repo.list(ctx, &invoices, invoiceSelect+w.String()+orderBy(ord), w.args...)
	return invoices, err
}

func (repo ledgerRepository) LockStudentInvoices(ctx context.Context, studentID int64) ([]ledger.Invoice, error) {
	invoices := []ledger.Invoice{}
	err := repo.list(ctx, &invoices, invoiceSelect+`
		WHERE i.student_id = $1
		ORDER BY i.session_id, i.installment_id, i.id
		FOR UPDATE OF i`, studentID)
	return invoices, err
}

func (repo ledgerRepository) CreateReceipt(ctx context.Context, r ledger.Receipt) (ledger.Receipt, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO receipt (
			receipt_number, invoice_id, amount_paid, date_paid, payment_method, reference, comment, received_by,
			created_at
		) VALUES (
			:receipt_number, :invoice_id, :amount_paid, :date_paid, :payment_method, :reference, :comment,
			:received_by, :created_at
		) RETURNING id`, r, ledger.ErrReceiptExists)
	if err != nil {
		return ledger.Receipt{}, err
	}
	r.ID = id
	return r, nil
}

func (repo ledgerRepository) UpdateReceipt(ctx context.Context, r ledger.Receipt) (ledger.Receipt, error) {
	err := repo.update(ctx, `
		UPDATE receipt SET
			invoice_id = :invoice_id, amount_paid = :amount_paid, date_paid = :date_paid,
			payment_method = :payment_method, reference = :reference, comment = :comment
		WHERE id = :id`, r, ledger.ErrReceiptNotFound, ledger.ErrReceiptExists)
	return r, err
}

func (repo ledgerRepository) DeleteReceipt(ctx context.Context, id int64) error {
	return repo.delete(ctx, "receipt", id, ledger.ErrReceiptNotFound, nil)
}

func (repo ledgerRepository) GetReceipt(ctx context.Context, id int64) (ledger.Receipt, error) {
	var r ledger.Receipt
	err := repo.get(ctx, &r, ledger.ErrReceiptNotFound, `SELECT * FROM receipt WHERE id = $1`, id)
	return r, err
}

func (repo ledgerRepository) ListReceipts(ctx context.Context, filter ledger.ReceiptFilter) ([]ledger.Receipt, error) {
	w := &where{}
	if filter.InvoiceID != 0 {
		w.add("r.invoice_id = ?", filter.InvoiceID)
	}
	if filter.StudentID != 0 {
		w.add("i.student_id = ?", filter.StudentID)
	}
	if !filter.From.IsZero() {
		w.add("r.date_paid >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		w.add("r.date_paid <= ?", filter.To)
	}
	receipts := []ledger.Receipt{}
	err := repo.list(ctx, &receipts, `
		SELECT r.* FROM receipt r JOIN invoice i ON i.id = r.invoice_id`+w.String()+`
		ORDER BY r.date_paid, r.id`, w.args...)
	return receipts, err
}

func (repo ledgerRepository) CountReceipts(ctx context.Context, invoiceID int64) (int, error) {
	var n int
	err := repo.get(ctx, &n, nil, `SELECT COUNT(*) FROM receipt WHERE invoice_id = $1`, invoiceID)
	return n, err
}

func (repo ledgerRepository) CreateItem(ctx context.Context, it ledger.Item) (ledger.Item, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO invoice_item (invoice_id, description, category, quantity, unit_price, amount)
		VALUES (:invoice_id, :description, :category, :quantity, :unit_price, :amount) RETURNING id`, it, nil)
	if err != nil {
		return ledger.Item{}, err
	}
	it.ID = id
	return it, nil
}

func (repo ledgerRepository) DeleteItem(ctx context.Context, id int64) error {
	return repo.delete(ctx, "invoice_item", id, ledger.ErrItemNotFound, nil)
}

func (repo ledgerRepository) ListItems(ctx context.Context, invoiceID int64) ([]ledger.Item, error) {
	items := []ledger.Item{}
	err := repo.list(ctx, &items, `SELECT * FROM invoice_item WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	return items, err
}
