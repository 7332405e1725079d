// Package cmdlog pretty-prints instrument commands and replies for
// interactive bring-up sessions.
package cmdlog

import (
	"log"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gotmc/instr"
)

func isAscii(s string) bool {
	return !strings.ContainsFunc(s, func(r rune) bool {
		switch {
		case r < 7:
			return true
		case r > 6 && r < 14:
			return false
		case r > 13 && r < 32:
			return true
		case r > 127:
			return true
		}
		return false
	})
}

var (
	CmdStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	ReplyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
)

// PrettyFuncs returns logging wrappers around the adapter's query and
// command operations. query returns the raw reply; bquery logs replies that
// may be binary, hex-dumping anything that isn't printable ASCII; cmd logs
// the command and any error.
func PrettyFuncs(adapter instr.Adapter) (
	query func(string) string,
	bquery func(string),
	cmd func(string),
) {
	query = func(q string) string {
		s, err := adapter.Query(q)
		if err != nil {
			q = CmdStyle.Render(q)
			log.Printf("query %q: error %s", q, err)
		}
		return s
	}
	bquery = func(q string) {
		a := query(q)
		q = CmdStyle.Render(q)

		a = strings.TrimSuffix(a, "\n")
		if len(a) == 0 {
			log.Print(ReplyStyle.Render("<no response>"))
			return
		}

		if isAscii(a) {
			log.Printf("%s: [%d] %q", q, len(a), a)
		} else if len(a) < 32 {
			log.Printf("%s: [%d] %q (% 2x)", q, len(a), a, []byte(a))
		} else {
			log.Printf("%s: [%d] % 2x", q, len(a), []byte(a))
		}
	}

	cmd = func(c string) {
		if err := adapter.Command(c); err != nil {
			log.Printf("cmd %s: error %s", CmdStyle.Render(c), err)
		} else {
			log.Printf("%s()", CmdStyle.Render(c))
		}
	}
	return query, bquery, cmd
}
