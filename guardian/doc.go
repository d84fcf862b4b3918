// Package guardian rewrites a WebAssembly module so that, at runtime, it
// reports its own persistent-state mutations to the surrounding host:
// which 64KiB pages of linear memory were written, when memory grew, and
// optionally which globals were set. The rewrite runs once, ahead of
// instantiation, against a module's binary encoding — it never executes
// the module itself.
//
// The entry point is Transform. It loads the input bytes into an
// editable *wasm.Module, optionally injects global exports, rewrites
// every local function's instructions, and re-encodes the result.
package guardian
