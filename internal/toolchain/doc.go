// Package toolchain manages the external encoder tools foptimizer
// delegates to (oxipng, oggenc2, pngquant, crowbar).
//
// Responsibilities:
//   - Resolve each tool to a runnable binary (manifest override →
//     tool workspace directory → PATH).
//   - Bootstrap the isolated tool workspace directory on first run.
//   - Execute tools either directly on the host (LocalRunner) or inside
//     a pinned tools container image (ContainerRunner).
//   - Spawn the GUI front-end as a detached process for "launch".
//
// The toolchain does no optimization itself; the external tools are the
// value, this package only finds and runs them.
package toolchain
