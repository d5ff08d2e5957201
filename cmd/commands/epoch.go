package commands

import (
	"fmt"
	"strconv"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	cfg "epochbft/config"
	"epochbft/epoch"
	"epochbft/types"
)

// EpochCmd 使用配置中的checkpoint zero和周期离线计算epoch
var EpochCmd = &cobra.Command{
	Use:   "epoch",
	Short: "Epoch clock arithmetic against the configured checkpoint zero and period",
}

var epochCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current epoch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ec, err := newEpochClock(config, clock.New())
		if err != nil {
			return err
		}
		current, err := ec.CurrentEpoch()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), current.Int64())
		return nil
	},
}

var epochAtCmd = &cobra.Command{
	Use:   "at [timestamp]",
	Short: "Show the epoch a unix timestamp falls into",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return errors.Wrap(err, "invalid timestamp")
		}
		ec, err := newEpochClock(config, clock.New())
		if err != nil {
			return err
		}
		e, err := ec.EpochAt(ts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), e.Int64())
		return nil
	},
}

var epochTimestampCmd = &cobra.Command{
	Use:   "timestamp [epoch]",
	Short: "Show the unix timestamp at which an epoch starts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return errors.Wrap(err, "invalid epoch")
		}
		ec, err := newEpochClock(config, clock.New())
		if err != nil {
			return err
		}
		ts, err := ec.EpochTimestamp(types.Epoch(e))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ts)
		return nil
	},
}

func init() {
	EpochCmd.AddCommand(epochCurrentCmd, epochAtCmd, epochTimestampCmd)
}

func newEpochClock(config *cfg.Config, timeSource clock.Clock) (*epoch.EpochClock, error) {
	ec := epoch.NewEpochClock(timeSource)
	ec.SetLogger(logger)
	if err := ec.Configure(config.Epoch.CheckpointZeroTimestamp, config.Epoch.CheckpointsPeriod); err != nil {
		return nil, err
	}
	return ec, nil
}
