package core

import (
	"database/sql/driver"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency given to amounts built without one.
var DefaultCurrency = "TZS"

// MaxReceiptAmount is the ceiling of a single receipt (Decimal(11,2)).
var MaxReceiptAmount = M("999999999.99")

type number interface {
	int | int32 | int64 | uint | uint32 | uint64 | string | decimal.Decimal
}

// newDecimal is a convenient factory for decimal.Decimal; it panics on malformed literals.
func newDecimal[T number](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	case string:
		return decimal.RequireFromString(v)
	default:
		panic("unsupported type")
	}
}

// Money represents a monetary value. Arithmetic is exact; R2 quantises to 2dp half-up.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M builds an amount in the DefaultCurrency.
func M[T number](value T) Money {
	return Money{value: newDecimal(value), cur: DefaultCurrency}
}

// ParseMoney parses a decimal literal such as "1200.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(CleanString(s))
	if err != nil {
		return Money{}, err
	}
	return Money{value: d, cur: DefaultCurrency}, nil
}

// SumMoney adds up amounts.
func SumMoney(ms ...Money) Money {
	total := M(0)
	for _, m := range ms {
		total = total.Add(m)
	}
	return total
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.Currency()).Currency()
}

// String formats the amount with its currency, e.g. "TSh1,200.50".
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

func (m Money) Currency() string {
	if m.cur == "" {
		return DefaultCurrency
	}
	return m.cur
}

func (m Money) Decimal() decimal.Decimal        { return m.value }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) Cmp(n Money) int                 { return m.value.Cmp(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) LessThanOrEqual(n Money) bool    { return m.value.LessThanOrEqual(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Mul(q Quantity) Money            { return Money{value: m.value.Mul(q.value), cur: m.cur} }
func (m Money) MulRate(r decimal.Decimal) Money { return Money{value: m.value.Mul(r), cur: m.cur} }
func (m Money) IntPart() int64                  { return m.value.IntPart() }

// R2 quantises to 2 decimal places, rounding half away from zero.
func (m Money) R2() Money { return Money{value: m.value.Round(2), cur: m.cur} }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// Min returns the smaller of m and n.
func (m Money) Min(n Money) Money {
	if n.LessThan(m) {
		return n
	}
	return m
}

// makes the "" currency totally weak.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + "!=" + b.cur)
	}
	return a.cur
}

func (m Money) MarshalJSON() ([]byte, error) {
	return m.value.Round(2).MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	m.cur = DefaultCurrency
	return m.value.UnmarshalJSON(data)
}

// Value implements driver.Valuer (numeric columns).
func (m Money) Value() (driver.Value, error) {
	return m.value.String(), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src interface{}) error {
	m.cur = DefaultCurrency
	return m.value.Scan(src)
}

// Quantity is an exact, unit-less amount of goods (kg, bags, litres...).
type Quantity struct {
	value decimal.Decimal
}

func Q[T number](value T) Quantity {
	return Quantity{value: newDecimal(value)}
}

// SumQuantity adds up quantities.
func SumQuantity(qs ...Quantity) Quantity {
	total := Q(0)
	for _, q := range qs {
		total = total.Add(q)
	}
	return total
}

func (q Quantity) Decimal() decimal.Decimal           { return q.value }
func (q Quantity) Equal(p Quantity) bool              { return q.value.Equal(p.value) }
func (q Quantity) Cmp(p Quantity) int                 { return q.value.Cmp(p.value) }
func (q Quantity) LessThan(p Quantity) bool           { return q.value.LessThan(p.value) }
func (q Quantity) LessThanOrEqual(p Quantity) bool    { return q.value.LessThanOrEqual(p.value) }
func (q Quantity) GreaterThan(p Quantity) bool        { return q.value.GreaterThan(p.value) }
func (q Quantity) Div(p Quantity) Quantity            { return Quantity{value: q.value.Div(p.value)} }
func (q Quantity) Mul(p Quantity) Quantity            { return Quantity{value: q.value.Mul(p.value)} }
func (q Quantity) MulRate(r decimal.Decimal) Quantity { return Quantity{value: q.value.Mul(r)} }
func (q Quantity) Add(p Quantity) Quantity            { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity            { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) Round(places int32) Quantity        { return Quantity{value: q.value.Round(places)} }
func (q Quantity) R2() Quantity                       { return q.Round(2) }
func (q Quantity) IsNegative() bool                   { return q.value.IsNegative() }
func (q Quantity) IsPositive() bool                   { return q.value.IsPositive() }
func (q Quantity) IsZero() bool                       { return q.value.IsZero() }
func (q Quantity) String() string                     { return q.value.String() }

// Min returns the smaller of q and p.
func (q Quantity) Min(p Quantity) Quantity {
	if p.LessThan(q) {
		return p
	}
	return q
}

// Max returns the larger of q and p.
func (q Quantity) Max(p Quantity) Quantity {
	if p.GreaterThan(q) {
		return p
	}
	return q
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return q.value.MarshalJSON()
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	return q.value.UnmarshalJSON(data)
}

func (q Quantity) Value() (driver.Value, error) {
	return q.value.String(), nil
}

func (q *Quantity) Scan(src interface{}) error {
	return q.value.Scan(src)
}
