package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/dilemma/internal/domain/aggregate"
)

const defaultSyncWait = 10 * time.Second

func newSubmitCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [file]",
		Short: "Submit strategies to the classroom coordinator",
		Long: `Submit sends a strategies document to slot 1 or 2 of the coordinator and
waits for the acknowledgment. Without a file the editor source is sent.
The author name comes from the identity setting.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, _ := cmd.Flags().GetInt("position")
			wait, _ := cmd.Flags().GetDuration("wait")
			code, err := c.readSource(args)
			if err != nil {
				return err
			}
			return c.submit(cmd.Context(), position, code, wait)
		},
	}
	cmd.Flags().Int("position", 1, "Submission slot (1 or 2)")
	cmd.Flags().Duration("wait", defaultSyncWait, "How long to wait for the coordinator")
	return cmd
}

func (c *cli) submit(ctx context.Context, position int, code string, wait time.Duration) error {
	ctrl := c.syncController()
	defer ctrl.Close()

	acked := make(chan int, 2)
	ctrl.OnSubmitted(func(p int) {
		select {
		case acked <- p:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := ctrl.Reconnect(ctx); err != nil {
		return err
	}
	if err := ctrl.Submit(ctx, position, code); err != nil {
		return err
	}
	for {
		select {
		case p := <-acked:
			if p == position {
				fmt.Fprintf(c.out, "Submitted to slot %d as %s.\n", position, ctrl.Identity())
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("no acknowledgment for slot %d: %w", position, ctx.Err())
		}
	}
}

func newFetchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the merged classroom strategies",
		Long: `Fetch asks the coordinator for the merged classroom document and prints
it. With --run the document is played and the results are printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, _ := cmd.Flags().GetBool("run")
			wait, _ := cmd.Flags().GetDuration("wait")
			code, err := c.fetch(cmd.Context(), wait)
			if err != nil {
				return err
			}
			if !run {
				_, err := fmt.Fprint(c.out, code)
				return err
			}
			o := c.engine().Run(cmd.Context(), code)
			printOutcome(c.out, o, aggregate.Compute(o.Result, c.cfg.Iterations))
			if o.Err != nil {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().Bool("run", false, "Run the fetched document")
	cmd.Flags().Duration("wait", defaultSyncWait, "How long to wait for the coordinator")
	return cmd
}

func (c *cli) fetch(ctx context.Context, wait time.Duration) (string, error) {
	ctrl := c.syncController()
	defer ctrl.Close()

	changed := make(chan string, 1)
	ctrl.OnChange(func(_ context.Context, source string) {
		select {
		case changed <- source:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := ctrl.Reconnect(ctx); err != nil {
		return "", err
	}
	if err := ctrl.Get(ctx); err != nil {
		return "", err
	}
	select {
	case code := <-changed:
		return code, nil
	case <-ctx.Done():
		return "", fmt.Errorf("no source from coordinator: %w", ctx.Err())
	}
}
