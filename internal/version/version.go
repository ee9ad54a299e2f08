package version

// Version is the semantic version of the hearth binary, overridable at
// build time with -ldflags "-X .../internal/version.Version=...".
var Version = "0.1.0"
