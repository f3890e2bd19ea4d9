//go:build linux

package ports

func platformCommands() []command {
	return []command{
		{name: "ss", args: []string{"-tulnp"}, parse: ParseSS},
		{name: "netstat", args: []string{"-tulpn"}, parse: ParseNetstatLinux},
	}
}
