package subprocess

import (
	"fmt"
	"strings"
)

// Command describes one external invocation.
type Command struct {
	Binary string
	Args   []string
	Dir    string
	Env    []string
}

// String renders the command line for [CMD] log lines. Arguments containing
// whitespace or quotes are single-quoted.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Binary))
	for _, arg := range c.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n'\"") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// State classifies how a process run ended.
type State int

const (
	Completed State = iota
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ExitStatus is the outcome of Execute. Code is only meaningful for Failed; a
// process killed by a signal reports -1.
type ExitStatus struct {
	State State
	Code  int
}

func (s ExitStatus) String() string {
	if s.State == Failed {
		return fmt.Sprintf("failed (exit code %d)", s.Code)
	}
	return s.State.String()
}
