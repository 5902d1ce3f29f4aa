package onboard

// Version is the library release, reported by the CLI and the HTTP info endpoint.
const Version = "0.4.0"
