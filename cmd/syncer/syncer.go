package syncer

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"smmpanel/src/controller"
	"smmpanel/src/executors"
)

type passRunner interface {
	RunPass(ctx context.Context) (controller.PassSummary, error)
}

// Syncer runs reconciliation from the command line: once, or on a period
// when Watch is set.
type Syncer struct {
	Runner passRunner
	Out    io.Writer
	Watch  time.Duration
	Config *Config
}

func (s *Syncer) Start(ctx context.Context) error {
	if s.Watch > 0 {
		logrus.WithField("period", s.Watch.String()).Info("Starting sync loop")
		return executors.StartSyncLoop(ctx, s.Runner, s.Watch)
	}

	summary, err := s.Runner.RunPass(ctx)
	if err != nil {
		logrus.WithError(err).Error("Reconciliation pass failed")
		return err
	}

	return s.print(summary)
}

func (s *Syncer) print(summary controller.PassSummary) error {
	showAll := s.Config != nil && s.Config.ShowAll

	fmt.Fprintf(s.Out, "candidates=%d changed=%d unchanged=%d failed=%d gave_up=%d\n",
		summary.Candidates, summary.Changed, summary.Unchanged, summary.Failed, summary.GaveUp)

	if len(summary.Results) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(s.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPANEL ID\tSTATUS\tOUTCOME\tATTEMPTS\tERROR")
	for _, res := range summary.Results {
		if !showAll && res.Outcome == controller.SyncUnchanged {
			continue
		}
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			res.Order.ID, res.Order.UpstreamID(), res.Order.Status, res.Outcome, res.Order.SyncAttempts, errText)
	}
	return tw.Flush()
}
