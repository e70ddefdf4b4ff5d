package menu

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/util"
)

// Fix checks or adjusts a parsed value before it is stored.
type Fix[T any] func(T) (T, error)

// Float edits *p. fix may be nil.
func Float(key, label string, p *float64, fix Fix[float64]) Item {
	return Item{
		Key:   key,
		Label: label,
		Value: func() string { return strconv.FormatFloat(*p, 'g', -1, 64) },
		Set: func(s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return faults.Invalid(fmt.Sprintf("%q is not a number", s))
			}
			return store(p, v, fix)
		},
	}
}

// Int edits *p. fix may be nil.
func Int(key, label string, p *int, fix Fix[int]) Item {
	return Item{
		Key:   key,
		Label: label,
		Value: func() string { return strconv.Itoa(*p) },
		Set: func(s string) error {
			v, err := strconv.Atoi(s)
			if err != nil {
				return faults.Invalid(fmt.Sprintf("%q is not a whole number", s))
			}
			return store(p, v, fix)
		},
	}
}

// Bool edits *p from y/n answers.
func Bool(key, label string, p *bool) Item {
	return Item{
		Key:   key,
		Label: label + " (y/n)",
		Value: func() string { return yesNo(*p) },
		Set: func(s string) error {
			switch strings.ToLower(s) {
			case "y", "yes":
				*p = true
			case "n", "no":
				*p = false
			default:
				return faults.Invalid(fmt.Sprintf("answer y or n, not %q", s))
			}
			return nil
		},
	}
}

// OneOf edits *p, accepting only the allowed words (case-insensitive).
func OneOf(key, label string, p *string, allowed ...string) Item {
	return Item{
		Key:   key,
		Label: label + " (" + strings.Join(allowed, "/") + ")",
		Value: func() string { return *p },
		Set: func(s string) error {
			for _, a := range allowed {
				if strings.EqualFold(s, a) {
					*p = a
					return nil
				}
			}
			return faults.Invalid(fmt.Sprintf("%q is not one of %s", s, strings.Join(allowed, ", ")))
		},
	}
}

// AtLeast clamps values below lo up to lo.
func AtLeast[T constraints.Ordered](lo T) Fix[T] {
	return func(v T) (T, error) { return max(v, lo), nil }
}

// ClampTo clamps values into [lo, hi].
func ClampTo[T constraints.Ordered](lo, hi T) Fix[T] {
	return func(v T) (T, error) { return util.Clamp(v, lo, hi), nil }
}

// Between rejects values outside [lo, hi].
func Between[T constraints.Ordered](lo, hi T) Fix[T] {
	return func(v T) (T, error) {
		if v < lo || v > hi {
			return v, faults.Invalid(fmt.Sprintf("%v is outside %v..%v", v, lo, hi))
		}
		return v, nil
	}
}

func store[T any](p *T, v T, fix Fix[T]) error {
	if fix != nil {
		var err error
		if v, err = fix(v); err != nil {
			return err
		}
	}
	*p = v
	return nil
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
