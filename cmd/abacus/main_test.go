package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/shlex"
)

func TestJoinArgs(t *testing.T) {
	tests := [][]string{
		{"add", "2", "3"},
		{"add", "-2", "1e3"},
		{"frob", "a b", "it's", `back\slash`, "#tag"},
	}
	for _, args := range tests {
		line := joinArgs(args)
		got, err := shlex.Split(line)
		if err != nil {
			t.Errorf("shlex.Split(%q): %v", line, err)
			continue
		}
		if diff := cmp.Diff(args, got); diff != "" {
			t.Errorf("round trip of %q (-want +got):\n%s", line, diff)
		}
	}
}
