package cmds

import (
	"fmt"

	"gomemscan/config"
	"gomemscan/terminal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// configFile replaces the default config file when set.
	configFile string
	// dumpDir is a dump directory to attach to instead of a live process.
	dumpDir string

	workers          int
	chunkSize        uint
	pageSize         uint
	pageCacheEntries int
	batchSize        int
	flushThreshold   int
	printLimit       int
	noColor          bool
)

const memscanCommandLongDesc = `memscan searches the memory of a running process for a value and narrows
the matching addresses down as the value changes.

Attach to a process by PID or name, then use 'scan search <kind> <value>' to
record every address holding the value and 'scan filter <kind> <value>' after
the value changed to keep only the addresses that follow it. Type 'help' in
the terminal for every command.

Settings are read from ~/.gomemscan/config.yml, which is created on first run.
Flags override the file.`

// New returns an initialized command tree.
func New() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "memscan [pid|name]",
		Short:        "memscan is an interactive process memory scanner.",
		Long:         memscanCommandLongDesc,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runTerminal,
	}

	rootCommand.Flags().StringVar(&configFile, "config", "", "Config file to use instead of ~/.gomemscan/config.yml.")
	rootCommand.Flags().StringVar(&dumpDir, "dump", "", "Attach to a saved memory dump instead of a live process.")
	addScannerFlags(rootCommand.Flags())

	rootCommand.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "memscan\nVersion: %s\n", terminal.Version)
		},
	})

	return rootCommand
}

func addScannerFlags(flags *pflag.FlagSet) {
	flags.IntVarP(&workers, "workers", "w", 4, "Number of goroutines used by search and filter.")
	flags.UintVar(&chunkSize, "chunk-size", 32*1024, "Bytes read at a time while searching a region.")
	flags.UintVar(&pageSize, "page-size", 4096, "Block size of the filter page cache, a power of two.")
	flags.IntVar(&pageCacheEntries, "page-cache-entries", 32, "Blocks kept by each filter worker.")
	flags.IntVar(&batchSize, "batch-size", 256, "Hits a worker buffers before spilling them.")
	flags.IntVar(&flushThreshold, "flush-threshold", 64*1024, "Hits a worker holds before appending them to the results.")
	flags.IntVar(&printLimit, "print-limit", 0, "Maximum number of results printed, 0 prints all of them.")
	flags.BoolVar(&noColor, "no-color", false, "Disable coloured output.")
}

// applyFlags overrides conf with every scanner flag given on the command line
func applyFlags(flags *pflag.FlagSet, conf *config.Config) {
	if flags.Changed("workers") {
		conf.Workers = &workers
	}
	if flags.Changed("chunk-size") {
		conf.ChunkSize = &chunkSize
	}
	if flags.Changed("page-size") {
		conf.PageSize = &pageSize
	}
	if flags.Changed("page-cache-entries") {
		conf.PageCacheEntries = &pageCacheEntries
	}
	if flags.Changed("batch-size") {
		conf.BatchSize = &batchSize
	}
	if flags.Changed("flush-threshold") {
		conf.FlushThreshold = &flushThreshold
	}
	if flags.Changed("print-limit") {
		conf.PrintLimit = printLimit
	}
	if flags.Changed("no-color") {
		conf.NoColor = noColor
	}
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.LoadConfig(), nil
	}
	return config.LoadConfigFile(configFile)
}

func runTerminal(cmd *cobra.Command, args []string) error {
	if dumpDir != "" && len(args) > 0 {
		return fmt.Errorf("--dump and a process argument are mutually exclusive")
	}

	conf, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), conf)

	term := terminal.New(newOpener(), conf)
	switch {
	case dumpDir != "":
		err = term.AttachDump(dumpDir)
	case len(args) == 1:
		err = term.Attach(args[0])
	}
	if err != nil {
		term.Close()
		return err
	}

	return term.Run()
}
