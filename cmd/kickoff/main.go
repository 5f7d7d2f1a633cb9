package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "config.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "kickoff",
		Short: "Football tournament fixture scheduler",
	}

	var configFile string
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	// app loads the config and opens the store for commands that need them.
	app := func(cmd *cobra.Command) (*App, error) {
		configPath, err := resolveConfigPath(configFile)
		if err != nil {
			return nil, err
		}
		return NewApp(cmd.Context(), configPath)
	}

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	fixturesCmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Generate, validate and share fixtures",
	}

	var outputFile, textFile string
	var reload bool
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate the double round robin for every group",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Generate(cmd.Context(), outputFile, textFile, reload)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "fixtures.xlsx", "Output Excel file path")
	generateCmd.Flags().StringVar(&textFile, "text", "", "Also write the shareable text for every matchday to this file")
	generateCmd.Flags().BoolVar(&reload, "reload", false, "Take the roster from the config file even if one is stored")

	validateCmd := &cobra.Command{
		Use:          "validate <fixtures.xlsx>",
		Short:        "Validate an exported workbook against the tournament's groups",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Validate(cmd.Context(), args[0])
		},
	}

	var pngFile string
	shareCmd := &cobra.Command{
		Use:          "share <matchday|all>",
		Short:        "Print the shareable message for a matchday",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Share(cmd.Context(), args[0], pngFile)
		},
	}
	shareCmd.Flags().StringVar(&pngFile, "png", "", "Also render the matchday as a PNG card")

	fixturesCmd.AddCommand(generateCmd, validateCmd, shareCmd)

	teamsCmd := &cobra.Command{
		Use:   "teams",
		Short: "Manage teams",
	}
	renameCmd := &cobra.Command{
		Use:          "rename <old> <new>",
		Short:        "Rename a team everywhere it appears",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RenameTeam(cmd.Context(), args[0], args[1])
		},
	}
	addTeamCmd := &cobra.Command{
		Use:          "add <group> <name>",
		Short:        "Add a team to a group",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.AddTeam(cmd.Context(), args[0], args[1])
		},
	}
	removeTeamCmd := &cobra.Command{
		Use:          "remove <group> <name>",
		Short:        "Remove a team from a group",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RemoveTeam(cmd.Context(), args[0], args[1])
		},
	}
	teamsCmd.AddCommand(renameCmd, addTeamCmd, removeTeamCmd)

	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Record group stage results",
	}
	recordCmd := &cobra.Command{
		Use:          "record <group> <home> <away> <home-score> <away-score>",
		Short:        "Record the score of a group match",
		Args:         cobra.ExactArgs(5),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, away, err := parseScores(args[3], args[4])
			if err != nil {
				return err
			}
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RecordResult(cmd.Context(), args[0], args[1], args[2], home, away)
		},
	}
	resultsCmd.AddCommand(recordCmd)

	standingsCmd := &cobra.Command{
		Use:          "standings [group]",
		Short:        "Print group tables",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			group := ""
			if len(args) == 1 {
				group = args[0]
			}
			return a.Standings(cmd.Context(), group)
		},
	}

	knockoutCmd := &cobra.Command{
		Use:   "knockout",
		Short: "Run the knockout stage",
	}
	seedCmd := &cobra.Command{
		Use:          "seed",
		Short:        "Seed the quarter-finals from the group tables",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.SeedKnockout(cmd.Context())
		},
	}
	scoreCmd := &cobra.Command{
		Use:          "score <match> <home-score> <away-score>",
		Short:        "Record a knockout score and advance the winner",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, away, err := parseScores(args[1], args[2])
			if err != nil {
				return err
			}
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ScoreKnockout(cmd.Context(), args[0], home, away)
		},
	}
	showCmd := &cobra.Command{
		Use:          "show",
		Short:        "Print the knockout bracket",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ShowKnockout(cmd.Context())
		},
	}
	knockoutCmd.AddCommand(seedCmd, scoreCmd, showCmd)

	var force bool
	resetCmd := &cobra.Command{
		Use:          "reset",
		Short:        "Delete all stored data for the tournament",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("reset deletes groups, fixtures, results and the bracket; pass --force to confirm")
			}
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Reset(cmd.Context())
		},
	}
	resetCmd.Flags().BoolVar(&force, "force", false, "Confirm deleting all tournament data")

	var addr string
	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the tournament over HTTP and websockets",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.Serve(cmd.Context())
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config or KICKOFF_ADDR)")

	rootCmd.AddCommand(initCmd, fixturesCmd, teamsCmd, resultsCmd, standingsCmd, knockoutCmd, resetCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
