// Package gdbarch describes target architectures.
//
// A Gdbarch is a table of scalar parameters (byte order, type widths,
// register numbers) and of hooks implementing architecture dependent
// behavior (register names and types, pseudo registers, breakpoint
// instructions, calling conventions). Architectures are built by the
// constructor of a CPU family registered with a Registry, in two phases:
// Alloc returns an architecture filled with defaults, the family
// constructor overrides what it needs through the Set methods, the Registry
// verifies the result and marks it initialized. Initialized architectures
// are immutable and shared.
//
// Optional hooks come with a Has method, calling an unset hook panics with
// a *MisuseError.
//
// Other packages attach architecture scoped data to a Gdbarch through Data
// slots (see NewPreInitData and NewPostInitData) without this package
// knowing about them.
package gdbarch
