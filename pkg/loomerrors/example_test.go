// Package loomerrors provides examples of structured error handling in loom.
package loomerrors_test

import (
	"errors"
	"fmt"
	"io"

	"github.com/loomdata/loom/pkg/loomerrors"
)

// Example demonstrates basic error creation and typed details.
func Example() {
	err := loomerrors.New(loomerrors.ErrorTypeInvalidRecord, "null value in required field")

	err = err.WithDetail("field", "order.id").
		WithDetail("record", 17)

	fmt.Println(err.Error())

	// Output:
	// invalid_record: null value in required field
}

// ExampleWrap shows how to wrap underlying errors with context.
func ExampleWrap() {
	originalErr := io.ErrUnexpectedEOF

	err := loomerrors.Wrap(originalErr, loomerrors.ErrorTypeFile, "reading column chunk").
		WithDetail("column", "tags.list.element")

	if loomerrors.IsType(err, loomerrors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("Original error is reachable")
	}

	// Output:
	// This is a file error
	// Original error is reachable
}

// ExampleIsType demonstrates matching on the engine's error taxonomy.
func ExampleIsType() {
	schemaErr := loomerrors.New(loomerrors.ErrorTypeSchema, "stored field cannot be read as a list")
	convErr := loomerrors.New(loomerrors.ErrorTypeConversion, "stored name does not match any constant")

	fmt.Println(loomerrors.IsType(schemaErr, loomerrors.ErrorTypeSchema))
	fmt.Println(loomerrors.IsType(convErr, loomerrors.ErrorTypeSchema))

	// Output:
	// true
	// false
}
