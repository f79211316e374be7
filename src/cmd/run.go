package cmd

import (
	"github.com/magicpot/indexer/src/indexer"
	"github.com/magicpot/indexer/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Polls pots, ingests their transfers and advances the game",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := indexer.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished run command")
		applicationCtxCancel()
		return
	},
}
