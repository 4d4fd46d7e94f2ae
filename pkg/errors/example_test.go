package errors_test

import (
	"fmt"
	"io"
	"os"

	"github.com/ajitpratap0/colingest/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeStructure, "record has 4 fields, want 5").
		WithDetail("line", 12).
		WithDetail("strategy", "schema")

	fmt.Println(err.Error())

	// Output:
	// structure: record has 4 fields, want 5
}

// ExampleWrap shows how an open failure becomes a fatal source error.
func ExampleWrap() {
	_, openErr := os.Open("/does/not/exist.csv")

	err := errors.Wrap(openErr, errors.ErrorTypeSource, "failed to open source").
		WithDetail("path", "/does/not/exist.csv")

	fmt.Println(errors.IsType(err, errors.ErrorTypeSource))
	fmt.Println(errors.IsFatal(err))
	fmt.Println(errors.Is(err, os.ErrNotExist))

	// Output:
	// true
	// true
	// true
}

// ExampleIsFatal demonstrates which error types the driver recovers from.
func ExampleIsFatal() {
	read := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeRead, "line could not be read")
	reject := errors.New(errors.ErrorTypeStructure, "latitude is not a float64")
	cfg := errors.New(errors.ErrorTypeConfig, "unknown strategy")

	fmt.Println(errors.IsFatal(read), errors.IsFatal(reject), errors.IsFatal(cfg), errors.IsFatal(nil))

	// Output:
	// false false true false
}
