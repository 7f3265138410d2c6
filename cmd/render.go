package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/okian/dilemma/internal/domain/aggregate"
	"github.com/okian/dilemma/internal/sandbox"
)

// printOutcome writes the terminal output followed by the result tables.
func printOutcome(w io.Writer, o sandbox.Outcome, s aggregate.Summary) {
	if term := o.Terminal(); term != "" {
		fmt.Fprint(w, term)
		if !strings.HasSuffix(term, "\n") {
			fmt.Fprintln(w)
		}
	}
	if s.Empty() {
		if o.OK() {
			fmt.Fprintln(w, "No games were played.")
		}
		return
	}
	fmt.Fprintln(w)
	printScoreboard(w, s)
	fmt.Fprintln(w)
	printCrossTable(w, s)
}

func printScoreboard(w io.Writer, s aggregate.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tStrategy\tTotal\tGames\tAverage\t")
	for i, st := range s.Scoreboard {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f\t\n", i+1, st.Name, st.Total, st.Games, st.Average)
	}
	_ = tw.Flush()
}

func printCrossTable(w io.Writer, s aggregate.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(s.Players, "\t"))
	for _, row := range s.Table() {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			if c != nil {
				cells[i] = fmt.Sprintf("%.1f", c.Mean)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", row.Player, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}
