package shell

import (
	"slices"
	"strings"
)

// BlockFunc returns true if the given command args should be blocked.
type BlockFunc func(args []string) bool

// CommandsBlocker returns a BlockFunc that blocks exact command name matches.
func CommandsBlocker(cmds []string) BlockFunc {
	blocked := make(map[string]struct{}, len(cmds))
	for _, c := range cmds {
		blocked[c] = struct{}{}
	}
	return func(args []string) bool {
		if len(args) == 0 {
			return false
		}
		_, ok := blocked[args[0]]
		return ok
	}
}

// ArgumentsBlocker returns a BlockFunc that blocks a command when its
// positional arguments start with subArgs and every flag in flags is present.
//
// For example, ArgumentsBlocker("git", []string{"push"}, nil) blocks
// "git push origin main" but allows "git diff".
func ArgumentsBlocker(cmd string, subArgs, flags []string) BlockFunc {
	return func(args []string) bool {
		if len(args) == 0 || args[0] != cmd {
			return false
		}
		var positional, given []string
		for _, a := range args[1:] {
			if strings.HasPrefix(a, "-") {
				given = append(given, a)
			} else {
				positional = append(positional, a)
			}
		}
		if len(positional) < len(subArgs) || !slices.Equal(positional[:len(subArgs)], subArgs) {
			return false
		}
		for _, f := range flags {
			if !slices.Contains(given, f) {
				return false
			}
		}
		return true
	}
}

// BannedCommands are never run by a hook. A hook rewrites the file it is
// given; it has no business on the network, as root or installing software.
var BannedCommands = []string{
	// Nested shells and indirection would bypass the other rules.
	"bash", "sh", "zsh", "fish", "csh", "tcsh", "ksh", "dash",
	"env", "nohup", "xargs", "sudo", "doas", "su",
	// Network
	"curl", "wget", "nc", "ncat", "scp", "sftp", "ssh", "telnet",
	// Package managers
	"apt", "apt-get", "brew", "dnf", "pacman", "yum", "zypper",
	"pip", "pip3", "npm", "pnpm", "yarn", "cargo", "gem",
	// System modification
	"mount", "umount", "mkfs", "systemctl", "service", "crontab",
}

// DefaultBlockFuncs returns the standard set of block functions.
func DefaultBlockFuncs() []BlockFunc {
	return []BlockFunc{
		CommandsBlocker(BannedCommands),
		ArgumentsBlocker("git", []string{"push"}, nil),
		ArgumentsBlocker("git", []string{"commit"}, nil),
		ArgumentsBlocker("git", []string{"reset"}, []string{"--hard"}),
		ArgumentsBlocker("git", []string{"clean"}, nil),
	}
}
