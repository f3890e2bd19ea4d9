//go:build windows

package ports

func platformCommands() []command {
	return []command{
		{name: "netstat", args: []string{"-ano"}, parse: ParseNetstatWindows},
	}
}
