package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/fees"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
	"github.com/kizito-simon15/montessori-sub000/core/payroll"
	"github.com/kizito-simon15/montessori-sub000/core/results"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type (
	// DB keeps every table in memory. One mutex serialises units of work: InTx holds it for the
	// whole of fn and repositories called outside a transaction hold it for a single call.
	DB struct {
		mu sync.Mutex
		t  *tables
	}

	txKey struct{}

	table[T any] struct {
		rows map[int64]T
		seq  int64
	}

	serialKey struct {
		prefix string
		year   int
	}

	tables struct {
		serials map[serialKey]int

		periods     table[school.Period]
		cycle       school.Cycle
		classes     table[school.Class]
		subjects    table[school.Subject]
		students    table[school.Student]
		staff       table[school.Staff]
		assignments table[school.Assignment]

		tiers           table[fees.Tier]
		uniformTypes    table[fees.UniformType]
		uniforms        table[fees.Uniform]
		studentUniforms table[fees.StudentUniform]

		invoices table[ledger.Invoice]
		receipts table[ledger.Receipt]
		items    table[ledger.Item]

		budgets      table[budget.Budget]
		lines        table[budget.Line]
		expenditures table[budget.Expenditure]

		slips      table[payroll.Slip]
		deductions table[payroll.Deduction]

		results table[results.Result]
		infos   table[results.Infos]

		seasonalProducts  table[inventory.SeasonalProduct]
		purchases         table[inventory.Purchase]
		processedProducts table[inventory.ProcessedProduct]
		batches           table[inventory.Batch]
		consumptions      table[inventory.Consumption]
		kitchenProducts   table[inventory.KitchenProduct]
		kitchenPurchases  table[inventory.KitchenPurchase]
		usage             table[inventory.Usage]
	}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{t: &tables{serials: make(map[serialKey]int)}}
}

// InTx runs fn under the DB lock. The tables are restored when fn fails or panics; a ctx already
// carrying the transaction joins it.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) == db {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.t.clone()
	committed := false
	defer func() {
		if !committed {
			db.t = snapshot
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		return err
	}
	committed = true
	return nil
}

// begin returns the tables, locking them unless ctx is inside a transaction of db.
func (db *DB) begin(ctx context.Context) (*tables, func()) {
	if ctx.Value(txKey{}) == db {
		return db.t, func() {}
	}
	db.mu.Lock()
	return db.t, db.mu.Unlock
}

func (t *tables) clone() *tables {
	c := *t
	c.serials = make(map[serialKey]int, len(t.serials))
	for k, v := range t.serials {
		c.serials[k] = v
	}
	c.periods = t.periods.clone()
	c.classes = t.classes.clone()
	c.subjects = t.subjects.clone()
	c.students = t.students.clone()
	c.staff = t.staff.clone()
	c.assignments = t.assignments.clone()
	c.tiers = t.tiers.clone()
	c.uniformTypes = t.uniformTypes.clone()
	c.uniforms = t.uniforms.clone()
	c.studentUniforms = t.studentUniforms.clone()
	c.invoices = t.invoices.clone()
	c.receipts = t.receipts.clone()
	c.items = t.items.clone()
	c.budgets = t.budgets.clone()
	c.lines = t.lines.clone()
	c.expenditures = t.expenditures.clone()
	c.slips = t.slips.clone()
	c.deductions = t.deductions.clone()
	c.results = t.results.clone()
	c.infos = t.infos.clone()
	c.seasonalProducts = t.seasonalProducts.clone()
	c.purchases = t.purchases.clone()
	c.processedProducts = t.processedProducts.clone()
	c.batches = t.batches.clone()
	c.consumptions = t.consumptions.clone()
	c.kitchenProducts = t.kitchenProducts.clone()
	c.kitchenPurchases = t.kitchenPurchases.clone()
	c.usage = t.usage.clone()
	return &c
}

func (t table[T]) clone() table[T] {
	rows := make(map[int64]T, len(t.rows))
	for id, row := range t.rows {
		rows[id] = row
	}
	return table[T]{rows: rows, seq: t.seq}
}

// nextID reserves the next primary key.
func (t *table[T]) nextID() int64 {
	t.seq++
	return t.seq
}

func (t *table[T]) put(id int64, row T) {
	if t.rows == nil {
		t.rows = make(map[int64]T)
	}
	t.rows[id] = row
}

func (t table[T]) get(id int64) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t table[T]) has(id int64) bool {
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) remove(id int64) {
	delete(t.rows, id)
}

// filter returns the rows matching keep, ordered by id.
func (t table[T]) filter(keep func(T) bool) []T {
	ids := make([]int64, 0, len(t.rows))
	for id, row := range t.rows {
		if keep == nil || keep(row) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

func (t table[T]) exists(match func(T) bool) bool {
	for _, row := range t.rows {
		if match(row) {
			return true
		}
	}
	return false
}

func (t *table[T]) removeWhere(match func(T) bool) {
	for id, row := range t.rows {
		if match(row) {
			delete(t.rows, id)
		}
	}
}

// comparators order rows on named fields; each returns <0, 0 or >0.
type comparators[T any] map[string]func(a, b T) int

func (cmps comparators[T]) allowed() map[string]bool {
	allowed := make(map[string]bool, len(cmps))
	for field := range cmps {
		allowed[field] = true
	}
	return allowed
}

// sort orders rows the way ORDER BY would, falling back to def.
func (cmps comparators[T]) sort(rows []T, ordering []core.DBOrdering, def ...core.DBOrdering) {
	ord := core.FilterOrderings(ordering, cmps.allowed(), def...)
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range ord {
			c := cmps[o.Field](rows[i], rows[j])
			if c == 0 {
				continue
			}
			if o.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpTime(a, b time.Time) int {
	return a.Compare(b)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func inRange(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// sortByDate orders rows on (date, id), the way the SQL repositories list dated records.
func sortByDate[T any](rows []T, key func(T) (int64, int64)) {
	sort.SliceStable(rows, func(i, j int) bool {
		di, ii := key(rows[i])
		dj, ij := key(rows[j])
		if di != dj {
			return di < dj
		}
		return ii < ij
	})
}
