package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/fees"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type (
	Repository interface {
		// NextSerial increments and returns the counter of (prefix, year).
		NextSerial(ctx context.Context, prefix string, year int) (int, error)

		CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
		UpdateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
		DeleteInvoice(ctx context.Context, id int64) error
		// GetInvoice returns the invoice with its Paid total (items are not loaded).
		GetInvoice(ctx context.Context, id int64) (Invoice, error)
		ListInvoices(ctx context.Context, filter InvoiceFilter, ordering []core.DBOrdering) ([]Invoice, error)
		// LockStudentInvoices locks and returns all the student's invoices ordered by
		// (session, installment), with their Paid totals.
		LockStudentInvoices(ctx context.Context, studentID int64) ([]Invoice, error)

		CreateReceipt(ctx context.Context, r Receipt) (Receipt, error)
		UpdateReceipt(ctx context.Context, r Receipt) (Receipt, error)
		DeleteReceipt(ctx context.Context, id int64) error
		GetReceipt(ctx context.Context, id int64) (Receipt, error)
		ListReceipts(ctx context.Context, filter ReceiptFilter) ([]Receipt, error)
		CountReceipts(ctx context.Context, invoiceID int64) (int, error)

		CreateItem(ctx context.Context, it Item) (Item, error)
		DeleteItem(ctx context.Context, id int64) error
		ListItems(ctx context.Context, invoiceID int64) ([]Item, error)
	}

	Calendar interface {
		GetPeriodOf(ctx context.Context, kind school.PeriodKind, id int64) (school.Period, error)
		GetStudent(ctx context.Context, id int64) (school.Student, error)
		ListStudents(ctx context.Context, filter school.StudentFilter, ordering []core.DBOrdering) ([]school.Student, error)
	}

	FeeCatalog interface {
		GetTier(ctx context.Context, id int64) (fees.Tier, error)
		InstallmentAmount(ctx context.Context, tier fees.Tier) (int64, error)
	}

	Service struct {
		repo     Repository
		tx       core.Transactor
		calendar Calendar
		catalog  FeeCatalog
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, tx core.Transactor, calendar Calendar, catalog FeeCatalog, validate *validator.Validate, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(calendar, "calendar"),
		vala.IsNotNil(catalog, "catalog"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, tx: tx, calendar: calendar, catalog: catalog, validate: validate, logger: logger}
}

// rebalance re-derives the carried balance and status of every invoice of the student.
// The invoices are walked in (session, installment) order with a running sum of amount − paid.
func (svc *Service) rebalance(ctx context.Context, studentID int64) error {
	invoices, err := svc.repo.LockStudentInvoices(ctx, studentID)
	if err != nil {
		return errors.Wrap(err, "locking student invoices")
	}
	running := core.M(0)
	for _, inv := range invoices {
		prev := running
		status := DeriveStatus(core.M(inv.Amount).Add(prev).Sub(inv.Paid))
		running = running.Add(inv.OwnBalance())

		if inv.BalanceFromPrevious.Equal(prev) && inv.Status == status {
			continue
		}
		if inv.Status != status {
			svc.logger.Info(fmt.Sprintf("invoice %s: %s -> %s", inv.Number, inv.Status, status))
		}
		inv.BalanceFromPrevious = prev
		inv.Status = status
		inv.UpdatedAt = core.NowFunc().UTC()
		if _, err = svc.repo.UpdateInvoice(ctx, inv); err != nil {
			return errors.Wrapf(err, "updating invoice %s", inv.Number)
		}
	}
	return nil
}

// previousBalance is the signed debt of the student's invoices before (session, installment).
func previousBalance(invoices []Invoice, sessionID, installmentID int64) core.Money {
	prev := core.M(0)
	for _, inv := range invoices {
		if inv.SessionID < sessionID || (inv.SessionID == sessionID && inv.InstallmentID < installmentID) {
			prev = prev.Add(inv.OwnBalance())
		}
	}
	return prev
}

// checkAnnualCap ensures amount plus the student's other invoices of the session fit the annual fee.
func checkAnnualCap(invoices []Invoice, tier fees.Tier, exclude int64, amount int64) error {
	total := amount
	for _, inv := range invoices {
		if inv.SessionID == tier.SessionID && inv.ID != exclude {
			total += inv.Amount
		}
	}
	if total > tier.AnnualAmount {
		return errors.Wrapf(ErrAnnualFeeExceeded, "session total %d exceeds the annual fee %d", total, tier.AnnualAmount)
	}
	return nil
}

// CreateInvoice bills the student for an installment. Without an amount the tier's
// installment amount is used; the carried balance is derived, never supplied.
func (svc *Service) CreateInvoice(ctx context.Context, in NewInvoice) (Invoice, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Invoice{}, err
	}
	var inv Invoice
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		std, err := svc.calendar.GetStudent(ctx, in.StudentID)
		if err != nil {
			return err
		}
		if _, err = svc.calendar.GetPeriodOf(ctx, school.KindSession, in.SessionID); err != nil {
			return err
		}
		if _, err = svc.calendar.GetPeriodOf(ctx, school.KindInstallment, in.InstallmentID); err != nil {
			return err
		}
		tier, err := svc.catalog.GetTier(ctx, in.TierID)
		if err != nil {
			return err
		}
		if tier.SessionID != in.SessionID {
			return core.NewFieldError("fee_tier_id", "the fee tier belongs to another session")
		}

		invoices, err := svc.repo.LockStudentInvoices(ctx, std.ID)
		if err != nil {
			return err
		}
		for _, other := range invoices {
			if other.SessionID == in.SessionID && other.InstallmentID == in.InstallmentID {
				return errors.Wrapf(ErrInvoiceExists, "invoice %s", other.Number)
			}
		}

		amount := in.Amount
		if amount == 0 {
			if amount, err = svc.catalog.InstallmentAmount(ctx, tier); err != nil {
				return err
			}
			if amount <= 0 {
				return core.NewFieldError("invoice_amount", "invoice amount must be greater than 0")
			}
		}
		if err = checkAnnualCap(invoices, tier, 0, amount); err != nil {
			return err
		}

		now := core.NowFunc().UTC()
		serial, err := svc.repo.NextSerial(ctx, invoicePrefix, now.Year())
		if err != nil {
			return errors.Wrap(err, "numbering invoice")
		}
		prev := previousBalance(invoices, in.SessionID, in.InstallmentID)
		inv, err = svc.repo.CreateInvoice(ctx, Invoice{
			Number:              FormatInvoiceNumber(now.Year(), std.ID, serial),
			StudentID:           std.ID,
			SessionID:           in.SessionID,
			InstallmentID:       in.InstallmentID,
			ClassID:             std.ClassID,
			TierID:              tier.ID,
			Amount:              amount,
			DueDate:             in.DueDate,
			Notes:               in.Notes,
			Status:              DeriveStatus(core.M(amount).Add(prev)),
			BalanceFromPrevious: prev,
			Paid:                core.M(0),
			CreatedAt:           now,
			UpdatedAt:           now,
		})
		if err != nil {
			return err
		}
		if err = svc.rebalance(ctx, std.ID); err != nil {
			return err
		}
		inv, err = svc.repo.GetInvoice(ctx, inv.ID)
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	svc.logger.Info(fmt.Sprintf("invoice %s created for student %d", inv.Number, inv.StudentID))
	return inv, nil
}

// UpdateInvoice changes the amount, due date and notes, checking the annual fee again.
func (svc *Service) UpdateInvoice(ctx context.Context, id int64, in InvoiceUpdate) (Invoice, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Invoice{}, err
	}
	var inv Invoice
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if inv, err = svc.repo.GetInvoice(ctx, id); err != nil {
			return err
		}
		invoices, err := svc.repo.LockStudentInvoices(ctx, inv.StudentID)
		if err != nil {
			return err
		}
		tier, err := svc.catalog.GetTier(ctx, inv.TierID)
		if err != nil {
			return err
		}
		if err = checkAnnualCap(invoices, tier, inv.ID, in.Amount); err != nil {
			return err
		}
		for _, locked := range invoices {
			if locked.ID == id {
				inv = locked
			}
		}
		inv.Amount = in.Amount
		inv.DueDate = in.DueDate
		inv.Notes = in.Notes
		inv.UpdatedAt = core.NowFunc().UTC()
		if _, err = svc.repo.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		if err = svc.rebalance(ctx, inv.StudentID); err != nil {
			return err
		}
		inv, err = svc.repo.GetInvoice(ctx, id)
		return err
	})
	return inv, err
}

func (svc *Service) DeleteInvoice(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		inv, err := svc.repo.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if _, err = svc.repo.LockStudentInvoices(ctx, inv.StudentID); err != nil {
			return err
		}
		n, err := svc.repo.CountReceipts(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return errors.Wrapf(ErrInvoiceHasReceipts, "invoice %s has %d receipts", inv.Number, n)
		}
		if err = svc.repo.DeleteInvoice(ctx, id); err != nil {
			return err
		}
		svc.logger.Info(fmt.Sprintf("invoice %s deleted", inv.Number))
		return svc.rebalance(ctx, inv.StudentID)
	})
}

// GetInvoice returns the invoice with its items.
func (svc *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := svc.repo.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Items, err = svc.repo.ListItems(ctx, id); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (svc *Service) ListInvoices(ctx context.Context, filter InvoiceFilter, ordering []core.DBOrdering) ([]Invoice, error) {
	filter.Status = core.CleanString(filter.Status, true /* lower */)
	return svc.repo.ListInvoices(ctx, filter, ordering)
}

// lockedInvoice locks the student's invoices and returns the fresh copy of invoiceID.
func (svc *Service) lockedInvoice(ctx context.Context, invoiceID int64) (Invoice, error) {
	inv, err := svc.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	invoices, err := svc.repo.LockStudentInvoices(ctx, inv.StudentID)
	if err != nil {
		return Invoice{}, err
	}
	for _, locked := range invoices {
		if locked.ID == invoiceID {
			return locked, nil
		}
	}
	return Invoice{}, ErrInvoiceNotFound
}

// PostReceipt records a payment of at most the invoice's overall balance.
func (svc *Service) PostReceipt(ctx context.Context, in ReceiptInput) (Receipt, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Receipt{}, err
	}
	var rec Receipt
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = svc.postReceipt(ctx, in)
		return err
	})
	return rec, err
}

func (svc *Service) postReceipt(ctx context.Context, in ReceiptInput) (Receipt, error) {
	inv, err := svc.lockedInvoice(ctx, in.InvoiceID)
	if err != nil {
		return Receipt{}, err
	}
	if ceiling := inv.OverallBalance(); in.Amount.GreaterThan(ceiling) {
		return Receipt{}, errors.Wrapf(ErrOverpayReceipt, "invoice %s: outstanding %s", inv.Number, ceiling.R2())
	}

	year := in.DatePaid.Year()
	serial, err := svc.repo.NextSerial(ctx, receiptPrefix, year)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "numbering receipt")
	}
	rec, err := svc.repo.CreateReceipt(ctx, Receipt{
		Number:     FormatReceiptNumber(year, serial),
		InvoiceID:  inv.ID,
		Amount:     in.Amount,
		DatePaid:   in.DatePaid,
		Method:     in.Method,
		Reference:  in.Reference,
		Comment:    in.Comment,
		ReceivedBy: in.ReceivedBy,
		CreatedAt:  core.NowFunc().UTC(),
	})
	if err != nil {
		return Receipt{}, err
	}
	if err = svc.rebalance(ctx, inv.StudentID); err != nil {
		return Receipt{}, err
	}
	svc.logger.Info(fmt.Sprintf("receipt %s of %s posted to invoice %s", rec.Number, rec.Amount, inv.Number))
	return rec, nil
}

// UpdateReceipt allows up to the overall balance plus the receipt's original amount.
func (svc *Service) UpdateReceipt(ctx context.Context, id int64, in ReceiptUpdate) (Receipt, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Receipt{}, err
	}
	var rec Receipt
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if rec, err = svc.repo.GetReceipt(ctx, id); err != nil {
			return err
		}
		inv, err := svc.lockedInvoice(ctx, rec.InvoiceID)
		if err != nil {
			return err
		}
		if ceiling := inv.OverallBalance().Add(rec.Amount); in.Amount.GreaterThan(ceiling) {
			return errors.Wrapf(ErrOverpayReceipt, "invoice %s: at most %s", inv.Number, ceiling.R2())
		}
		rec.Amount = in.Amount
		rec.DatePaid = in.DatePaid
		rec.Method = in.Method
		rec.Reference = in.Reference
		rec.Comment = in.Comment
		if rec, err = svc.repo.UpdateReceipt(ctx, rec); err != nil {
			return err
		}
		return svc.rebalance(ctx, inv.StudentID)
	})
	return rec, err
}

// DeleteReceipt removes the receipt; a closed invoice reopens when it is no longer settled.
func (svc *Service) DeleteReceipt(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		rec, err := svc.repo.GetReceipt(ctx, id)
		if err != nil {
			return err
		}
		inv, err := svc.lockedInvoice(ctx, rec.InvoiceID)
		if err != nil {
			return err
		}
		if err = svc.repo.DeleteReceipt(ctx, id); err != nil {
			return err
		}
		svc.logger.Info(fmt.Sprintf("receipt %s deleted from invoice %s", rec.Number, inv.Number))
		return svc.rebalance(ctx, inv.StudentID)
	})
}

func (svc *Service) GetReceipt(ctx context.Context, id int64) (Receipt, error) {
	return svc.repo.GetReceipt(ctx, id)
}

func (svc *Service) ListReceipts(ctx context.Context, filter ReceiptFilter) ([]Receipt, error) {
	return svc.repo.ListReceipts(ctx, filter)
}

// AllocatePayment posts as many receipts as needed, oldest (session, installment) first.
// The amount cannot exceed the sum of the invoices' own balances. Carried-forward balances
// are counted once, on the invoice they came from.
func (svc *Service) AllocatePayment(ctx context.Context, in AllocationInput) ([]Receipt, error) {
	if err := in.Validate(svc.validate); err != nil {
		return nil, err
	}
	var receipts []Receipt
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.calendar.GetStudent(ctx, in.StudentID); err != nil {
			return err
		}
		invoices, err := svc.repo.LockStudentInvoices(ctx, in.StudentID)
		if err != nil {
			return err
		}
		debt := core.M(0)
		for _, inv := range invoices {
			debt = debt.Add(inv.OwnBalance())
		}
		if in.Amount.GreaterThan(debt) {
			return errors.Wrapf(ErrInsufficientOutstanding, "outstanding %s", debt.R2())
		}

		remaining := in.Amount
		for i := range invoices {
			if !remaining.IsPositive() {
				break
			}
			// every receipt shifts the carried balances of the later invoices
			fresh, err := svc.repo.LockStudentInvoices(ctx, in.StudentID)
			if err != nil {
				return err
			}
			inv := fresh[i]
			take := remaining.Min(inv.OwnBalance()).Min(inv.OverallBalance())
			if !take.IsPositive() {
				continue
			}
			rec, err := svc.postReceipt(ctx, ReceiptInput{
				InvoiceID:  inv.ID,
				Amount:     take,
				DatePaid:   in.DatePaid,
				Method:     in.Method,
				Reference:  in.Reference,
				Comment:    in.Comment,
				ReceivedBy: in.ReceivedBy,
			})
			if err != nil {
				return err
			}
			receipts = append(receipts, rec)
			remaining = remaining.Sub(take)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

// StudentSummaries returns one row per student having invoices matching the filter.
func (svc *Service) StudentSummaries(ctx context.Context, filter InvoiceFilter) ([]StudentSummary, error) {
	invoices, err := svc.repo.ListInvoices(ctx, filter, nil)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[int64]*StudentSummary)
	var ids []int64
	latest := make(map[int64]Invoice)
	for _, inv := range invoices {
		sum, ok := byStudent[inv.StudentID]
		if !ok {
			sum = &StudentSummary{StudentID: inv.StudentID, Expected: core.M(0), Paid: core.M(0)}
			byStudent[inv.StudentID] = sum
			ids = append(ids, inv.StudentID)
		}
		sum.Invoices++
		sum.Expected = sum.Expected.Add(core.M(inv.Amount))
		sum.Paid = sum.Paid.Add(inv.Paid)
		if l, ok := latest[inv.StudentID]; !ok || inv.SessionID > l.SessionID ||
			(inv.SessionID == l.SessionID && inv.InstallmentID > l.InstallmentID) {
			latest[inv.StudentID] = inv
		}
	}
	if len(ids) == 0 {
		return []StudentSummary{}, nil
	}

	students, err := svc.calendar.ListStudents(ctx, school.StudentFilter{IDs: ids}, nil)
	if err != nil {
		return nil, err
	}
	for _, std := range students {
		if sum, ok := byStudent[std.ID]; ok {
			sum.StudentName = std.FullName()
			sum.ClassID = std.ClassID
		}
	}

	sums := make([]StudentSummary, 0, len(ids))
	for _, id := range ids {
		sum := byStudent[id]
		sum.Balance = sum.Expected.Sub(sum.Paid).R2()
		sum.LatestInstallment = latest[id].InstallmentID
		sum.LatestStatus = latest[id].Status
		sums = append(sums, *sum)
	}
	sort.Slice(sums, func(i, j int) bool { return sums[i].StudentName < sums[j].StudentName })
	return sums, nil
}

// Items

func (svc *Service) AddItem(ctx context.Context, invoiceID int64, in ItemInput) (Item, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Item{}, err
	}
	if _, err := svc.repo.GetInvoice(ctx, invoiceID); err != nil {
		return Item{}, err
	}
	return svc.repo.CreateItem(ctx, Item{
		InvoiceID:   invoiceID,
		Description: in.Description,
		Category:    in.Category,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice.R2(),
		Amount:      in.UnitPrice.Mul(in.Quantity).R2(),
	})
}

func (svc *Service) DeleteItem(ctx context.Context, id int64) error {
	return svc.repo.DeleteItem(ctx, id)
}
