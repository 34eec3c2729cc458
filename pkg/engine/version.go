package engine

// Version is the engn release version.
const Version = "0.1.0"
