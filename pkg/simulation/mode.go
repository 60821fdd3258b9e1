package simulation

import (
	"fmt"
	"strings"

	"github.com/orsinium-labs/enum"
)

// Mode selects the template set and the per-intent behaviour of the
// simulated user.
type Mode enum.Member[string]

var (
	// ModeMS discloses genres to a movie-suggestion bot.
	ModeMS = Mode{"ms"}
	// ModeMB discloses movies to a browse-by-name bot.
	ModeMB = Mode{"mb"}
	// ModeAC talks to an assistant-style bot that lists movies.
	ModeAC = Mode{"ac"}
	Modes  = enum.New(ModeMS, ModeMB, ModeAC)
)

// ParseMode resolves a mode name.
func ParseMode(s string) (Mode, error) {
	m := Modes.Parse(strings.ToLower(s))
	if m == nil {
		return Mode{}, fmt.Errorf("unknown mode %q, choose one of %s", s, names(Modes.Members()))
	}
	return *m, nil
}

func (m Mode) String() string { return m.Value }

// AgendaKind selects how the agenda is built.
type AgendaKind enum.Member[string]

var (
	// AgendaOurs walks the user-intent chain.
	AgendaOurs = AgendaKind{"ours"}
	// AgendaQRFA replays one of the top ranked corpus agendas.
	AgendaQRFA = AgendaKind{"qrfa"}
	// AgendaQRFATest walks the QRFA chain and drops agent labels.
	AgendaQRFATest = AgendaKind{"qrfa-test"}
	AgendaKinds    = enum.New(AgendaOurs, AgendaQRFA, AgendaQRFATest)
)

// ParseAgendaKind resolves an agenda kind name.
func ParseAgendaKind(s string) (AgendaKind, error) {
	k := AgendaKinds.Parse(strings.ToLower(s))
	if k == nil {
		return AgendaKind{}, fmt.Errorf("unknown agenda kind %q, choose one of %s", s, names(AgendaKinds.Members()))
	}
	return *k, nil
}

func (k AgendaKind) String() string { return k.Value }

func names[M fmt.Stringer](members []M) string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.String()
	}
	return strings.Join(out, ", ")
}
