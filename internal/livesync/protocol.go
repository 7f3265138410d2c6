package livesync

import (
	"context"
	"regexp"
	"strings"
)

// Message kinds on the coordinator socket.
const (
	KindGet       = "get"
	KindSubmit    = "submit"
	KindSubmitted = "submitted"
)

// Message is the single JSON envelope used in both directions.
type Message struct {
	Kind     string `json:"kind"`
	MyName   string `json:"myName,omitempty"`
	Position int    `json:"position,omitempty"`
	Code     string `json:"code,omitempty"`
	Base     string `json:"base,omitempty"`
	BotNames string `json:"botNames,omitempty"`
}

// Conn is one message-oriented connection to the coordinator. Receive
// blocks until a message arrives or the connection fails; Close unblocks it.
type Conn interface {
	Send(ctx context.Context, m Message) error
	Receive() (Message, error)
	Close() error
}

// Dialer opens connections to the coordinator.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }

const composedHeader = "# Classroom tournament: every submitted strategy.\n" +
	"# Cooperate, Defect, random and run_tournament are provided by the host.\n"

// botDef matches a top-level strategy definition. Strategies are named in
// CamelCase; lowercase top-level functions are helpers.
var botDef = regexp.MustCompile(`(?m)^def ([A-Z][A-Za-z0-9_]*)\s*\(`)

// DiscoverBots lists the strategies defined at the top level of base, in
// order of first definition.
func DiscoverBots(base string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range botDef.FindAllStringSubmatch(base, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Compose turns a coordinator reply into a runnable document: the harness
// header, the merged strategies, then the tournament call over botNames.
// The coordinator only announces Python class names, so an empty botNames
// falls back to the strategies discovered in base.
func Compose(base, botNames string) string {
	var b strings.Builder
	b.WriteString(composedHeader)
	base = strings.ReplaceAll(base, "\t", "    ")
	b.WriteString(base)
	if base != "" && !strings.HasSuffix(base, "\n") {
		b.WriteByte('\n')
	}
	names := strings.TrimSpace(botNames)
	if names == "" {
		names = strings.Join(DiscoverBots(base), ", ")
	}
	b.WriteString("\nrun_tournament([")
	b.WriteString(names)
	b.WriteString("])\n")
	return b.String()
}
