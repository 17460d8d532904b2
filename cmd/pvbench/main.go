package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dep-resolve/pvsolver"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pvbench <file> <root-package> <root-version>",
		Short: "pvbench drives pvsolver's resolver against a range-literal fixture file",
		Args:  cobra.ExactArgs(3),
		RunE:  runBench,
	}
	cmd.Flags().String("log-level", "warn", "logrus level: trace, debug, info, warn, error")
	cmd.Flags().Int("max-decisions", 0, "resolution step budget (0 = unbounded)")
	cmd.Flags().Bool("explain", false, "on failure, print the derivation trace")
	cmd.Flags().String("config", "", "optional viper config file providing defaults for the flags above")

	_ = viper.BindPFlag("log-level", cmd.Flags().Lookup("log-level"))
	_ = viper.BindPFlag("max-decisions", cmd.Flags().Lookup("max-decisions"))
	_ = viper.BindPFlag("explain", cmd.Flags().Lookup("explain"))
	return cmd
}

func loadConfig(flags *pflag.FlagSet) error {
	configPath, _ := flags.GetString("config")
	if configPath == "" {
		return nil
	}
	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("pvbench: reading config %s: %w", configPath, err)
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd.Flags()); err != nil {
		return err
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("pvbench: %w", err)
	}
	log.SetLevel(level)

	provider, err := LoadFile(args[0])
	if err != nil {
		return err
	}
	rootPkg := args[1]
	rootVer, err := parseIntArg(args[2])
	if err != nil {
		return fmt.Errorf("pvbench: bad root version %q: %w", args[2], err)
	}

	opts := pvsolver.Options{
		Logger:       log,
		MaxDecisions: viper.GetInt("max-decisions"),
	}
	resolver := pvsolver.NewResolver[string, int](provider, intCmp, opts)

	start := time.Now()
	assignment, err := resolver.Resolve(rootPkg, rootVer)
	elapsed := time.Since(start)

	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "resolution failed after %s: %v\n", elapsed, err)
		if viper.GetBool("explain") {
			fmt.Fprintln(cmd.OutOrStdout(), resolver.ExplainFailure(err))
		}
		cmd.SilenceUsage = true
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "resolved in %s:\n", elapsed)
	litter.Dump(assignment)
	return nil
}

func parseIntArg(s string) (int, error) {
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
