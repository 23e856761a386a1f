//go:build !windows

package procrunner

// launchCommand invokes the module executable directly everywhere except
// Windows, per spec.md's platform note.
func launchCommand(path string, args []string) (string, []string) {
	return path, args
}
