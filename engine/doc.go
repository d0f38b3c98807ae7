// Package engine provides the low-level WebAssembly canvas guest engine.
//
// This package wraps wazero to compile and instantiate core wasm guests
// against the canvas host API. It validates guest imports and exports
// against the fixed ABI, instantiates one host module per requested
// namespace version, and exposes typed wrappers over the guest entry
// points.
//
// Host function implementations do not hold engine state. Each call
// resolves the active surface from the invocation context, so a single
// engine can serve many instances without cross-talk.
package engine
