// Package uihook provides datum.Hook implementations that stand in for the
// user interface of a parametric editor: Printer re-reads and prints every
// invalidated datum, and Forwarder relays invalidations to a remote UI over
// socket.io.
package uihook
