package a

import (
	"errors"
	"io"
)

var ErrNotFound = errors.New("not found")

var ErrCount = 3

func bad(err error) bool {
	return err == ErrNotFound // want "comparison with ErrNotFound using == - use errors.Is"
}

func badNotEqual(err error) bool {
	return err != io.ErrUnexpectedEOF // want "comparison with ErrUnexpectedEOF using != - use errors.Is"
}

func badReversed(err error) bool {
	return ErrNotFound == err // want "comparison with ErrNotFound using == - use errors.Is"
}

func good(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func goodNil(err error) bool {
	return err != nil
}

func goodNotError(n int) bool {
	return n == ErrCount
}

func goodLocal(err error) bool {
	ErrLocal := errors.New("local")
	return err == ErrLocal
}
