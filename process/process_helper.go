package process

// Opener acquires handles. Each platform (and the offline dump loader)
// provides one.
type Opener interface {
	// Open opens a handle on the process with the given PID
	Open(pid ProcessID) (Handle, error)

	// FindProcessByName finds processes by their name (exact match)
	FindProcessByName(name string) ([]ProcessInfo, error)

	// IsAlive reports whether the process still exists and is not a zombie
	IsAlive(pid ProcessID) bool
}
