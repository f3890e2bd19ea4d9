//go:build darwin

package ports

func platformCommands() []command {
	return []command{
		{name: "lsof", args: []string{"-i", "-P", "-n"}, parse: ParseLsof},
	}
}
