package terminal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"gomemscan/config"
	"gomemscan/hexdump"
	"gomemscan/process"
	"gomemscan/process_blob"
	"gomemscan/scanner"
)

const (
	defaultKind     = "int"
	defaultPeekSize = 64
	maxPeekSize     = 1 << 20
)

type cmdFn func(t *Term, args []string) error

type command struct {
	aliases []string
	usage   string
	help    string
	fn      cmdFn

	// kindNext reports whether, after args, the next argument is a value kind
	kindNext func(args []string) bool
}

func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

type Commands struct {
	cmds []command
}

// usageError is returned by commands called with the wrong arguments
type usageError struct {
	usage string
}

func (e usageError) Error() string {
	return "invalid usage, expected: " + e.usage
}

// ExitRequestError is returned by the exit command
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

var errNoCmd = errors.New("command not available")

func firstArgIsKind(args []string) bool {
	return len(args) == 0
}

// NewCommands returns the command table, with the aliases of conf added
func NewCommands(conf *config.Config) *Commands {
	c := &Commands{}

	c.cmds = []command{
		{
			aliases: []string{"help", "h"},
			usage:   "help [command]",
			fn:      c.help,
			help: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{
			aliases: []string{"clear"},
			usage:   "clear",
			fn:      clearScreen,
			help:    "Clears the console screen.",
		},
		{
			aliases: []string{"status"},
			usage:   "status",
			fn:      status,
			help: `Shows whether a process is attached.

A target that has exited since the last command is detached.`,
		},
		{
			aliases: []string{"attach"},
			usage:   "attach <pid|name> | attach --dump <dir>",
			fn:      attach,
			help: `Attaches to a process.

	attach 1234
	attach game.exe
	attach --dump ./dumps/1234

A process name must match exactly one process. With --dump a directory written
by the dump command is opened as an offline target. An existing attachment is
detached first.`},
		{
			aliases: []string{"detach"},
			usage:   "detach [force]",
			fn:      detach,
			help: `Detaches from the current process and resets every scan.

	detach [force]

Use 'force' to drop the attachment even if closing the handle fails.`},
		{
			aliases: []string{"ps"},
			usage:   "ps <name>",
			fn:      ps,
			help:    "Lists the processes with the given name.",
		},
		{
			aliases: []string{"scan", "s"},
			usage:   "scan | scan search <kind> <value> | scan filter <kind> <value>",
			fn:      scan,
			help: `Scans the attached process.

	scan                        catalog and print the accessible regions
	scan search <kind> <value>  catalog the regions and record every address holding value
	scan filter <kind> <value>  keep only the recorded addresses still holding value

Kinds: int (32-bit signed), int8, int16, int32, int64, byte, uint8, uint16,
uint32, uint64. Values may be decimal or 0x hex. Each kind keeps its own results.`,
			kindNext: func(args []string) bool {
				return len(args) == 1 && (args[0] == "search" || args[0] == "filter")
			},
		},
		{
			aliases:  []string{"regions"},
			usage:    "regions [kind]",
			fn:       regions,
			help:     "Prints the region catalog of the last scan of kind (default int).",
			kindNext: firstArgIsKind,
		},
		{
			aliases:  []string{"results", "r"},
			usage:    "results [kind]",
			fn:       results,
			help:     "Prints the recorded addresses of kind (default int).",
			kindNext: firstArgIsKind,
		},
		{
			aliases:  []string{"count"},
			usage:    "count [kind]",
			fn:       count,
			help:     "Prints the number of recorded addresses of kind (default int).",
			kindNext: firstArgIsKind,
		},
		{
			aliases:  []string{"poke"},
			usage:    "poke <kind> <addr> <value>",
			fn:       poke,
			help:     "Writes value as kind at addr in the attached process.",
			kindNext: firstArgIsKind,
		},
		{
			aliases: []string{"peek", "x"},
			usage:   "peek <addr> [size]",
			fn:      peek,
			help: `Hex dumps size bytes (default 64) at addr of the attached process.

8-byte words that point into accessible memory are listed after their line.`},
		{
			aliases: []string{"dump"},
			usage:   "dump <dir>",
			fn:      dump,
			help: `Saves the accessible regions of the attached process to dir.

The directory can be opened later with 'attach --dump <dir>'.`},
		{
			aliases: []string{"exit", "quit", "q"},
			usage:   "exit",
			fn:      exit,
			help:    "Exits memscan, detaching from the process.",
		},
	}

	if conf != nil {
		c.Merge(conf.Aliases)
	}
	return c
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
func (c *Commands) Find(cmdstr string) command {
	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v
		}
	}
	return command{aliases: []string{"nocmd"}, fn: noCmdAvailable}
}

// Call runs the command named by args[0] with the remaining arguments
func (c *Commands) Call(t *Term, args []string) error {
	return c.Find(args[0]).fn(t, args[1:])
}

func (c *Commands) help(t *Term, args []string) error {
	if len(args) > 1 {
		return usageError{"help [command]"}
	}
	if len(args) == 1 {
		cmd := c.Find(args[0])
		if cmd.usage == "" {
			return errNoCmd
		}
		fmt.Fprintln(t.stdout, cmd.help)
		if len(cmd.aliases) > 1 {
			fmt.Fprintf(t.stdout, "\nAliases: %s\n", strings.Join(cmd.aliases[1:], " | "))
		}
		return nil
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 1, ' ', 0)
	for _, cmd := range c.cmds {
		h := cmd.help
		if idx := strings.Index(h, "\n"); idx >= 0 {
			h = h[:idx]
		}
		if len(cmd.aliases) > 1 {
			fmt.Fprintf(w, "    %s (alias: %s)\t%s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
		} else {
			fmt.Fprintf(w, "    %s\t%s\n", cmd.aliases[0], h)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func clearScreen(t *Term, args []string) error {
	if t.color {
		fmt.Fprint(t.stdout, "\033[H\033[2J")
	}
	return nil
}

func status(t *Term, args []string) error {
	t.checkTarget()

	st := t.target.status()
	if st != statusAttached {
		fmt.Fprintf(t.stdout, "%s.\n", st)
		return nil
	}

	fmt.Fprintf(t.stdout, "%s. PID %d", st, t.target.pid)
	if t.target.name != "" {
		fmt.Fprintf(t.stdout, " (%s)", t.target.name)
	}
	fmt.Fprintln(t.stdout)
	return nil
}

func attach(t *Term, args []string) error {
	var err error
	switch {
	case len(args) == 1 && args[0] != "--dump":
		err = t.Attach(args[0])
	case len(args) == 2 && args[0] == "--dump":
		err = t.AttachDump(args[1])
	default:
		return usageError{"attach <pid|name> | attach --dump <dir>"}
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(t.stdout, "Success.")
	return nil
}

func detach(t *Term, args []string) error {
	force := false
	switch {
	case len(args) == 0:
	case len(args) == 1 && strings.EqualFold(args[0], "force"):
		force = true
	default:
		return usageError{"detach [force]"}
	}

	if t.target.status() != statusAttached {
		return errNotAttached
	}

	t.resetSessions()
	if err := t.target.detach(force); err != nil {
		return fmt.Errorf("failed to detach target, you can try to force detach with: detach force: %w", err)
	}

	fmt.Fprintln(t.stdout, "Success.")
	return nil
}

func ps(t *Term, args []string) error {
	if len(args) != 1 {
		return usageError{"ps <name>"}
	}
	if t.opener == nil {
		return errors.New("process listing is not supported on this platform")
	}

	found, err := t.opener.FindProcessByName(args[0])
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintf(t.stdout, "No process named %q\n", args[0])
		return nil
	}
	t.printProcesses(found)
	return nil
}

func scan(t *Term, args []string) error {
	switch {
	case len(args) == 0:
		s, err := t.boundSession(defaultKind)
		if err != nil {
			return err
		}
		s.ScanRegions()
		s.PrintRegions()
		return nil

	case len(args) == 3 && args[0] == "search":
		if _, err := scanner.EncodeValue(args[1], args[2]); err != nil {
			return err
		}
		s, err := t.boundSession(args[1])
		if err != nil {
			return err
		}
		s.ScanRegions()
		if err := s.SearchText(args[2]); err != nil {
			return err
		}
		s.PrintScannedValues()
		return nil

	case len(args) == 3 && args[0] == "filter":
		if _, err := scanner.EncodeValue(args[1], args[2]); err != nil {
			return err
		}
		s, err := t.boundSession(args[1])
		if err != nil {
			return err
		}
		if err := s.FilterText(args[2]); err != nil {
			return err
		}
		s.PrintScannedValues()
		return nil
	}

	return usageError{"scan | scan search <kind> <value> | scan filter <kind> <value>"}
}

// kindArg returns the optional kind argument of regions, results and count
func kindArg(cmd string, args []string) (string, error) {
	switch len(args) {
	case 0:
		return defaultKind, nil
	case 1:
		return args[0], nil
	}
	return "", usageError{cmd + " [kind]"}
}

func regions(t *Term, args []string) error {
	kind, err := kindArg("regions", args)
	if err != nil {
		return err
	}
	s, err := t.session(kind)
	if err != nil {
		return err
	}
	s.PrintRegions()
	return nil
}

func results(t *Term, args []string) error {
	kind, err := kindArg("results", args)
	if err != nil {
		return err
	}
	s, err := t.session(kind)
	if err != nil {
		return err
	}
	s.PrintScannedValues()
	return nil
}

func count(t *Term, args []string) error {
	kind, err := kindArg("count", args)
	if err != nil {
		return err
	}
	s, err := t.session(kind)
	if err != nil {
		return err
	}
	fmt.Fprintln(t.stdout, s.ScannedCount())
	return nil
}

func poke(t *Term, args []string) error {
	if len(args) != 3 {
		return usageError{"poke <kind> <addr> <value>"}
	}

	data, err := scanner.EncodeValue(args[0], args[2])
	if err != nil {
		return err
	}
	addr, err := parseAddress(args[1])
	if err != nil {
		return err
	}
	if err := t.requireTarget(); err != nil {
		return err
	}

	if err := t.target.handle.WriteMemory(addr, data); err != nil {
		return fmt.Errorf("write at %s failed: %w", addr.ToString(), err)
	}
	fmt.Fprintln(t.stdout, "Success.")
	return nil
}

func peek(t *Term, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError{"peek <addr> [size]"}
	}

	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	size := uint64(defaultPeekSize)
	if len(args) == 2 {
		size, err = strconv.ParseUint(args[1], 0, 32)
		if err != nil || size == 0 || size > maxPeekSize {
			return fmt.Errorf("invalid size %q, expected 1 to %d", args[1], maxPeekSize)
		}
	}
	if err := t.requireTarget(); err != nil {
		return err
	}

	buf := make([]byte, size)
	n, err := t.target.handle.ReadMemoryInto(addr, buf)
	if n <= 0 {
		return fmt.Errorf("read at %s failed: %w", addr.ToString(), err)
	}

	opts := hexdump.DefaultOptions()
	opts.StartAddress = uint64(addr)
	opts.Color = t.color
	opts.IsValidPointer = t.isAccessibleAddress
	hexdump.DumpToWriter(t.stdout, buf[:n], opts)

	if uint64(n) < size {
		fmt.Fprintf(t.stdout, "Only %d of %d bytes are readable\n", n, size)
	}
	return nil
}

// isAccessibleAddress reports whether v lies in committed, accessible memory of the target
func (t *Term) isAccessibleAddress(v uint64) bool {
	info, err := t.target.handle.QueryRegion(process.ProcessMemoryAddress(v))
	return err == nil && info.State == process.MemCommitted && info.Protect.IsAccessible()
}

func dump(t *Term, args []string) error {
	if len(args) != 1 {
		return usageError{"dump <dir>"}
	}
	if err := t.requireTarget(); err != nil {
		return err
	}

	// a private session, so the catalogs of the value sessions stay untouched
	s, err := scanner.NewSession("byte", t.sessionOptions()...)
	if err != nil {
		return err
	}
	s.Setup(t.target.pid, t.target.handle)
	s.ScanRegions()

	cataloged := s.Regions()
	infos := make([]process.RegionInfo, len(cataloged))
	for i, r := range cataloged {
		infos[i] = r.Info()
	}

	d := process_blob.Capture(t.target.handle, t.target.name, infos)
	if err := d.Save(args[0]); err != nil {
		return err
	}

	fmt.Fprintf(t.stdout, "Saved %d of %d regions to %s\n", len(d.Blobs), len(infos), args[0])
	return nil
}

func exit(t *Term, args []string) error {
	return ExitRequestError{}
}

func noCmdAvailable(t *Term, args []string) error {
	return errNoCmd
}

func parsePID(s string) (process.ProcessID, error) {
	pid, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID %d", pid)
	}
	return process.ProcessID(pid), nil
}

func parseAddress(s string) (process.ProcessMemoryAddress, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return process.ProcessMemoryAddress(v), nil
}
