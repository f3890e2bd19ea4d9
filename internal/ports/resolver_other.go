//go:build !linux && !darwin && !windows

package ports

// BSDs ship lsof as an optional package; it is the only tool we know how to read there.
func platformCommands() []command {
	return []command{
		{name: "lsof", args: []string{"-i", "-P", "-n"}, parse: ParseLsof},
	}
}
