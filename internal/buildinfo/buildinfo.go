// Package buildinfo exposes version details stamped in at link time.
package buildinfo

var (
    Service = "notifyhub"
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

func Info() map[string]string {
    return map[string]string{
        "service": Service,
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
    }
}
