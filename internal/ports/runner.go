package ports

// Runner is a long-lived component started by the monitor command
type Runner interface {
	// Start launches the component without blocking
	Start() error

	// Stop shuts the component down and waits for it to finish
	Stop() error
}
