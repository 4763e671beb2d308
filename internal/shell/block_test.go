package shell

import "testing"

func TestCommandsBlocker(t *testing.T) {
	blocker := CommandsBlocker([]string{"curl", "sudo"})

	tests := []struct {
		args    []string
		blocked bool
	}{
		{[]string{"curl", "http://example.com"}, true},
		{[]string{"sudo", "clang-format", "-i", "a.cpp"}, true},
		{[]string{"clang-format", "-i", "a.cpp"}, false},
		{[]string{}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := blocker(tt.args); got != tt.blocked {
			t.Errorf("CommandsBlocker(%v) = %v, want %v", tt.args, got, tt.blocked)
		}
	}
}

func TestArgumentsBlocker(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		sub     []string
		flags   []string
		args    []string
		blocked bool
	}{
		{"git push", "git", []string{"push"}, nil, []string{"git", "push", "origin", "main"}, true},
		{"git push forced", "git", []string{"push"}, nil, []string{"git", "push", "-f"}, true},
		{"git diff", "git", []string{"push"}, nil, []string{"git", "diff"}, false},
		{"reset hard", "git", []string{"reset"}, []string{"--hard"}, []string{"git", "reset", "--hard", "HEAD~1"}, true},
		{"reset soft", "git", []string{"reset"}, []string{"--hard"}, []string{"git", "reset", "HEAD~1"}, false},
		{"different cmd", "git", []string{"push"}, nil, []string{"hg", "push"}, false},
		{"empty args", "git", []string{"push"}, nil, []string{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocker := ArgumentsBlocker(tt.cmd, tt.sub, tt.flags)
			if got := blocker(tt.args); got != tt.blocked {
				t.Errorf("ArgumentsBlocker(%q, %v, %v)(%v) = %v, want %v",
					tt.cmd, tt.sub, tt.flags, tt.args, got, tt.blocked)
			}
		})
	}
}

func TestDefaultBlockFuncs(t *testing.T) {
	blockers := DefaultBlockFuncs()

	mustBlock := [][]string{
		{"curl", "http://example.com"},
		{"sudo", "clang-format", "-i", "a.cpp"},
		{"bash", "-c", "clang-format -i a.cpp"},
		{"env", "curl", "http://example.com"},
		{"npm", "install", "prettier"},
		{"git", "commit", "-am", "format"},
	}
	mustAllow := [][]string{
		{"clang-format", "-i", "src/a.cpp"},
		{"astyle", "--style=kr", "a.h"},
		{"git", "diff", "--stat"},
		{"sed", "-i", "s/\t/    /g", "a.h"},
	}

	blocked := func(args []string) bool {
		for _, bf := range blockers {
			if bf(args) {
				return true
			}
		}
		return false
	}
	for _, args := range mustBlock {
		if !blocked(args) {
			t.Errorf("expected %v to be blocked", args)
		}
	}
	for _, args := range mustAllow {
		if blocked(args) {
			t.Errorf("expected %v to be allowed", args)
		}
	}
}
