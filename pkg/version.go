package genomcat

var (
	// Version of genomcat. It is set at build time.
	Version = "v0.1.0"

	// Build timestamp. It is set at build time.
	Build = "n/a"
)
