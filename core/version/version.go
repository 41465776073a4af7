package version

// Version is stamped manually on release.
const Version = "v0.2.0"
