// Package vm executes decoded JVM-subset methods and classifies how each
// run terminates.
//
// This package contains:
//   - Tagged value representation (32-bit ints and heap references)
//   - Per-run arena heap with strings, arrays and instances
//   - Frame and call-stack management
//   - The instruction dispatch loop with a step budget
//   - The String intrinsic surface
//   - Outcome classification and the internal fault taxonomy
//
// A Machine runs one method at a time against a read-only Program. Runs
// are deterministic: the same program, method, arguments and options give
// the same outcome and step count. Machines share no mutable state, so
// callers may run one machine per goroutine against a shared Program.
package vm
