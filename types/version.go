package types

// Version is the canonical project version.
// The CLI, the journal frame layout, and the adapter event shape share this
// version (lockstep versioning).
const Version = "0.2.0"
