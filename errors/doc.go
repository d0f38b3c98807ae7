// Package errors provides structured error types for the canvas host.
//
// Errors are categorized by Stage (where in the guest lifecycle the error
// occurred: load, instantiate, call) and Kind (error category). The Error
// type includes the guest source name, the lifecycle phase for call errors,
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.StageInstantiate, errors.KindMissingImport).
//		Source("counter.wasm").
//		Cause(missing).
//		Detail("guest imports functions the host does not provide").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidBinary("counter.wasm", cause)
//	err := errors.GuestCall("frame", trap)
//
// Stage predicates classify any wrapped error:
//
//	if errors.IsGuestCall(err) {
//		// recoverable: show overlay, offer reload
//	}
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
