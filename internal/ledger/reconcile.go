package ledger

// CheckCounts validates the reconciliation rule for one item: all four
// counts are non-negative and working+damaged+lost equals total.
func CheckCounts(total, working, damaged, lost int) error {
	if total < 0 {
		return invalid("total_count", "must not be negative")
	}
	if err := nonNegative(working, damaged, lost); err != nil {
		return err
	}
	if working+damaged+lost != total {
		return &ValidationError{
			Field:   "total_count",
			Message: ErrInvalidCountSum.Error(),
			Err:     ErrInvalidCountSum,
		}
	}
	return nil
}

func nonNegative(working, damaged, lost int) error {
	switch {
	case working < 0:
		return invalid("working_count", "must not be negative")
	case damaged < 0:
		return invalid("damaged_count", "must not be negative")
	case lost < 0:
		return invalid("lost_count", "must not be negative")
	}
	return nil
}
