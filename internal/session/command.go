package session

import "strings"

// Command is the closed vocabulary of the interactive loop. Any token outside
// it maps to CmdExit, which is the loop's only exit path.
type Command int

const (
	CmdExit Command = iota
	CmdClockIn
	CmdClockOut
	CmdAuto
	CmdNext
	CmdRefresh
)

func (c Command) String() string {
	switch c {
	case CmdClockIn:
		return "in"
	case CmdClockOut:
		return "out"
	case CmdAuto:
		return "auto"
	case CmdNext:
		return "next"
	case CmdRefresh:
		return "r"
	default:
		return "exit"
	}
}

// ParseCommand maps one input token to its command. Unrecognized tokens mean
// exit by design, not by error.
func ParseCommand(token string) Command {
	switch strings.TrimSpace(token) {
	case "in":
		return CmdClockIn
	case "out":
		return CmdClockOut
	case "auto":
		return CmdAuto
	case "next":
		return CmdNext
	case "r":
		return CmdRefresh
	default:
		return CmdExit
	}
}
