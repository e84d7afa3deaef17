// Package exitcode provides standardized exit codes for webneat
package exitcode

// Exit codes for the webneat CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	FileSystemError = 3
	PermissionError = 4
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case FileSystemError:
		return "File system error"
	case PermissionError:
		return "Permission error"
	default:
		return "Unknown error"
	}
}
