package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/followup-engine/config"
	"github.com/warp/followup-engine/factory"
)

var importCmd = &cobra.Command{
	Use:   "import <state.json>",
	Short: "Replace the store with a state document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close()

		st, err := factory.Decode(f)
		if err != nil {
			return err
		}

		svc, store, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := factory.Load(cmd.Context(), svc.Store, st); err != nil {
			return eris.Wrap(err, "load state")
		}
		zap.L().Info("import complete",
			zap.Int("clients", len(st.Clients)),
			zap.Int("tasks", len(st.Tasks)),
			zap.String("file", args[0]))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the store as a state document (stdout when no file)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := factory.Dump(cmd.Context(), svc.Store)
		if err != nil {
			return err
		}

		if len(args) == 0 || args[0] == "-" {
			return factory.Encode(cmd.OutOrStdout(), *st)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return eris.Wrapf(err, "create %s", args[0])
		}
		defer f.Close()
		return factory.Encode(f, *st)
	},
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Rebuild every future open auto task from the current calendar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := svc.Regenerate(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "regenerated %d tasks\n", n)
		return err
	},
}

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write " + config.FileName + ".yaml with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.FileName + ".yaml"
		if _, err := os.Stat(path); err == nil && !initForce {
			return eris.Errorf("%s already exists (use --force)", path)
		}
		return config.Write(path, config.Default())
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(importCmd, exportCmd, regenerateCmd, initCmd)
}
