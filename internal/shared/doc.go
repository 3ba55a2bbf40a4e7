// Package shared holds helpers used across packages that belong to no
// single layer.
//
// # Structure
//
//   - testutil: log capture and Dispatch SCADA fixtures for tests and
//     benchmarks
//
// It must not grow domain logic; that lives under dataprocessing,
// operations and friends.
package shared
