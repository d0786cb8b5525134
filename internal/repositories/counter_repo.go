package repositories

// CounterRepository hands out monotonically increasing values for named
// sequences (order numbers, per-month invoice numbers). Next must stay
// unique under concurrent callers.
type CounterRepository interface {
	Next(name string) (int64, error)
}
