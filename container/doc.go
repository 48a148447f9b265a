// Package container runs the isolated renderer inside a hardened podman
// or docker container and exposes its standard streams to the caller.
//
// The renderer gets the untrusted document on stdin and must emit a
// pixel stream on stdout. Everything else is locked down: the container
// is started with no network, all capabilities dropped except SYS_CHROOT
// (the renderer image runs its own gVisor layer), no privilege
// escalation, and no runtime-side logging of its output. The exact
// argument set differs slightly between podman and docker; see
// Runner.securityArgs.
//
// # Stopping a renderer
//
// Spawned processes are not always tied to the underlying container:
// with docker the process talks to the daemon, and killing it merely
// closes the standard streams. Proc.Stop therefore kills the container
// by name through the runtime first and only then the local process.
// Every wait is bounded; a renderer that ignores its kill is reported
// and abandoned rather than blocking the conversion forever.
//
// # Exit codes
//
// A renderer that cannot produce pixels communicates the reason through
// its exit status. RendererError translates the agreed code table into
// readable errors for the caller.
package container
