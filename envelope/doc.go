// Package envelope implements the Envelope Codec: converting a single
// local record snapshot into a self-describing JSON envelope naming
// table, per-column type and scalar value, and per-binary-column
// side-file identifier, and decoding envelopes back into a staged update
// ready to drive the pull path.
//
// Binary column bytes are never inlined into the envelope; they always
// travel as a separate sidecar object named "<identifier>_<column>".
package envelope
