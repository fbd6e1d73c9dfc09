package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is wrapped by stores when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoPrice marks an upstream answer that carried no usable price.
	ErrNoPrice = errors.New("no price available")
)

// NotFoundError names cache or storage keys that could not be resolved.
type NotFoundError struct {
	What string
	Keys []string
}

func (e *NotFoundError) Error() string {
	if len(e.Keys) == 0 {
		return fmt.Sprintf("%s not found", e.What)
	}
	return fmt.Sprintf("%s not found: %s", e.What, strings.Join(e.Keys, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DataGapError lists holdings whose daily record or current price is missing.
// The whole computation is rejected when it is returned.
type DataGapError struct {
	Codes []string
}

func (e *DataGapError) Error() string {
	return "price data missing for: " + strings.Join(e.Codes, ", ")
}

// MissingRateError lists currencies absent from the exchange rate map.
type MissingRateError struct {
	Currencies []string
}

func (e *MissingRateError) Error() string {
	return "exchange rate missing for: " + strings.Join(e.Currencies, ", ")
}

// UnknownIndexError is returned for index names that are not tracked.
type UnknownIndexError struct {
	Names []string
}

func (e *UnknownIndexError) Error() string {
	return "unknown market index: " + strings.Join(e.Names, ", ")
}
