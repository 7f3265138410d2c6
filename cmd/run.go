package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/okian/dilemma/internal/adapters/editor"
	"github.com/okian/dilemma/internal/domain/aggregate"
	"github.com/okian/dilemma/internal/domain/strategy"
	"github.com/okian/dilemma/internal/domain/tournament"
	"github.com/okian/dilemma/internal/domain/types"
	"github.com/okian/dilemma/internal/sandbox"
)

func newRunCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a strategies document and print the results",
		Long: `Run executes a strategies document in the sandbox and prints its output,
the scoreboard and the cross table. Without a file the editor source
(source_path) is used; it is created from the default document if missing.

Examples:
  dilemma run                 # run the editor source
  dilemma run my_bots.star    # run a file
  dilemma run --builtin       # play the built-in Go strategies
  dilemma run --json          # machine-readable results`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			builtin, _ := cmd.Flags().GetBool("builtin")

			var o sandbox.Outcome
			if builtin {
				o = c.runBuiltins(cmd)
			} else {
				code, err := c.readSource(args)
				if err != nil {
					return err
				}
				o = c.engine().Run(cmd.Context(), code)
			}

			summary := aggregate.Compute(o.Result, c.cfg.Iterations)
			if jsonOut {
				if err := writeJSONReport(c, o, summary); err != nil {
					return err
				}
			} else {
				printOutcome(c.out, o, summary)
			}
			if o.Err != nil {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print results as JSON")
	cmd.Flags().Bool("builtin", false, "Play the built-in strategies instead of a document")
	return cmd
}

// readSource returns the named file or the editor source.
func (c *cli) readSource(args []string) (string, error) {
	if len(args) == 1 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return editor.Normalize(string(b)), nil
	}
	src, err := editor.NewFileSource(c.cfg.SourcePath)
	if err != nil {
		return "", err
	}
	return src.Current()
}

// runBuiltins plays the built-in strategies without the sandbox.
func (c *cli) runBuiltins(cmd *cobra.Command) sandbox.Outcome {
	seed := uint64(c.cfg.RandomSeed)
	if seed == 0 {
		seed = rand.Uint64()
	}
	start := time.Now()
	s := &tournament.Scheduler{Iterations: c.cfg.Iterations}
	result, err := s.Run(cmd.Context(), strategy.Builtins(seed), c.cfg.Repetitions)
	return sandbox.Outcome{Result: result, Err: err, Duration: time.Since(start)}
}

type jsonReport struct {
	OK         bool             `json:"ok"`
	Outcome    string           `json:"outcome"`
	Output     string           `json:"output"`
	Error      string           `json:"error,omitempty"`
	Scoreboard []types.Standing `json:"scoreboard"`
	CrossTable types.CrossTable `json:"crosstable"`
	Games      []types.Game     `json:"games"`
}

func writeJSONReport(c *cli, o sandbox.Outcome, s aggregate.Summary) error {
	r := jsonReport{
		OK:         o.OK(),
		Outcome:    o.Kind(),
		Output:     o.Output,
		Scoreboard: types.Scoreboard(s),
		CrossTable: types.NewCrossTable(s),
		Games:      types.Games(o.Result),
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
