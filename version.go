package weave

// Version is the release of the weave module.
const Version = "0.3.0"
