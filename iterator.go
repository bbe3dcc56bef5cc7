package recurly

import (
	"errors"
	"iter"
)

// ErrEmptyIterator is returned by First when a listing has no records.
var ErrEmptyIterator = errors.New("iterator is empty")

// The helpers below work on the sequences returned by List and the other
// listing methods. A listing yields (record, nil) pairs and ends with at
// most one (zero, err) pair; every helper stops at that error and passes it
// on. Stopping early also stops the underlying Pager, so no further pages
// are fetched.

// Collect drains a listing into a slice. On error it returns the records
// read before the failure together with the error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	records := []T{}
	for rec, err := range seq {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// CollectN is Collect limited to the first n records.
func CollectN[T any](seq iter.Seq2[T, error], n int) ([]T, error) {
	return Collect(Take(seq, n))
}

// Index drains a listing into a map keyed by key(record). A later record
// replaces an earlier one with the same key. On error the map holds what was
// indexed so far.
func Index[T any](seq iter.Seq2[T, error], key func(T) string) (map[string]T, error) {
	byKey := make(map[string]T)
	for rec, err := range seq {
		if err != nil {
			return byKey, err
		}
		byKey[key(rec)] = rec
	}
	return byKey, nil
}

// First returns the first record of a listing. Only the first page is
// requested.
func First[T any](seq iter.Seq2[T, error]) (T, error) {
	for rec, err := range seq {
		return rec, err
	}
	var zero T
	return zero, ErrEmptyIterator
}

// Take yields at most n records. The record after the n-th is never pulled.
func Take[T any](seq iter.Seq2[T, error], n int) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		remaining := n
		if remaining <= 0 {
			return
		}
		for rec, err := range seq {
			if !yield(rec, err) || err != nil {
				return
			}
			if remaining--; remaining == 0 {
				return
			}
		}
	}
}

// Where yields the records for which keep returns true. Filters the server
// understands belong in a Filter instead, so the records are never sent.
func Where[T any](seq iter.Seq2[T, error], keep func(T) bool) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for rec, err := range seq {
			switch {
			case err != nil:
				yield(rec, err)
				return
			case !keep(rec):
				continue
			case !yield(rec, nil):
				return
			}
		}
	}
}

// Map yields fn(record) for every record, for instance to turn records into
// output rows.
func Map[T, U any](seq iter.Seq2[T, error], fn func(T) U) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		for rec, err := range seq {
			if err != nil {
				var zero U
				yield(zero, err)
				return
			}
			if !yield(fn(rec), nil) {
				return
			}
		}
	}
}

// failed is a listing that yields err and nothing else.
func failed[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}
