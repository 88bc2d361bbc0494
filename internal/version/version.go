package version

// Build metadata injected with -ldflags; the defaults cover local builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = ""
	Dirty   = "false"
)

// Human renders the build identity for startup logs.
func Human() string {
	v := Version
	if Commit != "" && Commit != "none" {
		v += " (" + Commit + ")"
	}
	if Dirty == "true" {
		v += "+dirty"
	}
	return v
}
