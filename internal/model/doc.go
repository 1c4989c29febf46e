// Package model defines the domain types and value objects for the
// foptimizer CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (FileResult, RunSummary, tool and runner enums) are transient
// representations built up during a single batch run; there are no
// persistent state files beyond the reports the user asks for.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
