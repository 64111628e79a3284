package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"sort"
	"strings"
	"time"

	"gomemscan/config"
	"gomemscan/process"
	"gomemscan/process_blob"
	"gomemscan/scanner"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/derekparker/trie"
	"github.com/go-delve/liner"
	"github.com/google/shlex"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	Version = "1.0.0"

	prompt = "> "
)

// outWriter lets the terminal redirect the output of sessions that already
// hold it as their writer
type outWriter struct {
	w io.Writer
}

func (o *outWriter) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

// Term is the interactive command surface. It owns the attachment and one
// scanner session per value kind.
type Term struct {
	opener   process.Opener
	target   target
	conf     *config.Config
	options  []scanner.Option
	sessions map[string]scanner.ValueSession
	cmds     *Commands
	complete *trie.Trie
	kinds    *trie.Trie

	prompt string
	color  bool
	stdout *outWriter
	stderr io.Writer
	line   *liner.State

	log *logger.Logger
}

// New creates a terminal that attaches through opener. options are applied
// to every session after the ones derived from conf.
func New(opener process.Opener, conf *config.Config, options ...scanner.Option) *Term {
	if conf == nil {
		conf = &config.Config{}
	}

	color := !conf.NoColor && supportsEscapeCodes() &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))

	var stdout io.Writer
	if color {
		stdout = getColorableWriter()
	} else {
		stdout = colorable.NewNonColorable(os.Stdout)
	}

	t := &Term{
		opener:   opener,
		conf:     conf,
		options:  append(conf.Options(), options...),
		sessions: make(map[string]scanner.ValueSession),
		cmds:     NewCommands(conf),
		prompt:   prompt,
		color:    color,
		stdout:   &outWriter{w: stdout},
		stderr:   os.Stderr,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "terminal")),
	}
	if color {
		t.prompt = coloransi.Color(coloransi.ColorOrange, coloransi.ColorPurple, ">") + " "
	}

	t.complete = trie.New()
	for _, cmd := range t.cmds.cmds {
		for _, alias := range cmd.aliases {
			t.complete.Add(alias, nil)
		}
	}
	t.kinds = trie.New()
	for _, name := range scanner.KindNames() {
		t.kinds.Add(name, nil)
	}

	return t
}

// RedirectTo redirects the output of this terminal, errors included, to w.
// Colour is turned off.
func (t *Term) RedirectTo(w io.Writer) {
	t.stdout.w = w
	t.stderr = w
	t.color = false
	t.prompt = prompt
}

// Run greets the operator and reads commands until exit or end of input.
// Interactive terminals get line editing, history and completion; anything
// else is read line by line.
func (t *Term) Run() error {
	defer t.Close()

	fmt.Fprint(t.stdout, t.welcomeMessage())

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return t.RunReader(os.Stdin)
	}
	return t.runLiner()
}

func (t *Term) runLiner() error {
	t.line = liner.NewLiner()
	t.line.SetCtrlCAborts(true)
	t.line.SetCompleter(t.completions)

	historyPath, _ := config.GetHistoryFilePath()
	if f, err := os.Open(historyPath); err == nil {
		t.line.ReadHistory(f)
		f.Close()
	}
	defer t.saveHistory(historyPath)

	for {
		cmdstr, err := t.line.Prompt(t.prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(t.stdout, "exit")
				return nil
			}
			return fmt.Errorf("prompt for input failed: %w", err)
		}

		if strings.TrimSpace(cmdstr) != "" {
			t.line.AppendHistory(cmdstr)
		}
		if t.execute(cmdstr) {
			return nil
		}
	}
}

func (t *Term) saveHistory(path string) {
	f, err := os.Create(path)
	if err != nil {
		t.log.Warn("Unable to save history: ", err)
		return
	}
	defer f.Close()

	if _, err := t.line.WriteHistory(f); err != nil {
		t.log.Warn("Unable to save history: ", err)
	}
}

// RunReader executes one command per line of r until exit or end of input
func (t *Term) RunReader(r io.Reader) error {
	lines := bufio.NewScanner(r)
	for lines.Scan() {
		if t.execute(lines.Text()) {
			return nil
		}
	}
	return lines.Err()
}

// execute runs one command line, printing its error. It reports whether the
// terminal should stop.
func (t *Term) execute(cmdstr string) bool {
	err := t.Call(cmdstr)
	if err == nil {
		return false
	}

	var exitErr ExitRequestError
	if errors.As(err, &exitErr) {
		return true
	}
	fmt.Fprintf(t.stderr, "Command failed: %s\n", err)
	return false
}

// Call tokenizes cmdstr, honouring quotes, and runs the command it names
func (t *Term) Call(cmdstr string) error {
	args, err := shlex.Split(cmdstr)
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	return t.cmds.Call(t, args)
}

// Close detaches from the target and releases the line editor
func (t *Term) Close() {
	if err := t.target.detach(true); err != nil {
		t.log.Warn("Detach failed: ", err)
	}
	t.resetSessions()
	if t.line != nil {
		t.line.Close()
		t.line = nil
	}
}

// completions completes command names, and value kinds where a command
// expects one
func (t *Term) completions(line string) []string {
	fields := strings.Fields(line)
	partial := ""
	if len(fields) > 0 && !strings.HasSuffix(line, " ") {
		partial = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}

	if len(fields) == 0 {
		return sorted(t.complete.PrefixSearch(partial))
	}

	cmd := t.cmds.Find(fields[0])
	if cmd.kindNext == nil || !cmd.kindNext(fields[1:]) {
		return nil
	}

	prefix := strings.Join(fields, " ") + " "
	var out []string
	for _, kind := range sorted(t.kinds.PrefixSearch(partial)) {
		out = append(out, prefix+kind)
	}
	return out
}

func sorted(keys []string) []string {
	sort.Strings(keys)
	return keys
}

// session returns the session for kind, creating it on first use. Aliases of
// one Go type share a session.
func (t *Term) session(kind string) (scanner.ValueSession, error) {
	canonical, err := scanner.CanonicalKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w, expected one of: %s", err, strings.Join(scanner.KindNames(), ", "))
	}

	if s, ok := t.sessions[canonical]; ok {
		return s, nil
	}

	s, err := scanner.NewSession(canonical, t.sessionOptions()...)
	if err != nil {
		return nil, err
	}
	t.sessions[canonical] = s
	return s, nil
}

func (t *Term) sessionOptions() []scanner.Option {
	opts := make([]scanner.Option, 0, len(t.options)+1)
	opts = append(opts, t.options...)
	return append(opts, scanner.WithOutput(t.stdout))
}

// boundSession returns the session for kind bound to the current target
func (t *Term) boundSession(kind string) (scanner.ValueSession, error) {
	if err := t.requireTarget(); err != nil {
		return nil, err
	}
	s, err := t.session(kind)
	if err != nil {
		return nil, err
	}
	s.Setup(t.target.pid, t.target.handle)
	return s, nil
}

func (t *Term) resetSessions() {
	for _, s := range t.sessions {
		s.Reset()
	}
}

// checkTarget detaches when the target process is gone
func (t *Term) checkTarget() {
	gone, err := t.target.check()
	if err != nil {
		t.log.Warn("Closing exited target: ", err)
	}
	if gone {
		fmt.Fprintln(t.stdout, "Target closed. Detaching.")
		t.resetSessions()
	}
}

var errNotAttached = errors.New("not attached to a process, use attach first")

func (t *Term) requireTarget() error {
	t.checkTarget()
	if t.target.status() != statusAttached {
		return errNotAttached
	}
	return nil
}

// Attach attaches to a PID, or to the single process with the given name
func (t *Term) Attach(arg string) error {
	pid, name, err := t.resolve(arg)
	if err != nil {
		return err
	}
	if err := t.attach(t.opener, pid, name); err != nil {
		return err
	}
	t.log.Infoln("Attached to", pid, name)
	return nil
}

// AttachDump loads a dump directory and attaches to it as an offline target
func (t *Term) AttachDump(dirname string) error {
	dump, err := process_blob.LoadProcessDump(dirname)
	if err != nil {
		return err
	}
	if err := t.attach(process_blob.DumpOpener{Dump: dump}, dump.PID, dump.Name); err != nil {
		return err
	}
	t.log.Infoln("Attached to dump of", dump.PID, dump.Name, "with", len(dump.MemoryMap), "regions")
	return nil
}

func (t *Term) attach(opener process.Opener, pid process.ProcessID, name string) error {
	if opener == nil {
		return errors.New("attaching to live processes is not supported on this platform")
	}
	if t.target.status() == statusAttached {
		fmt.Fprintf(t.stdout, "Already attached to %d. Detaching.\n", t.target.pid)
		t.resetSessions()
	}
	return t.target.attach(opener, pid, name)
}

func (t *Term) resolve(arg string) (process.ProcessID, string, error) {
	if pid, err := parsePID(arg); err == nil {
		return pid, "", nil
	}

	if t.opener == nil {
		return 0, "", fmt.Errorf("cannot look up %q without a process opener", arg)
	}
	found, err := t.opener.FindProcessByName(arg)
	if err != nil {
		return 0, "", fmt.Errorf("failed to look up %q: %w", arg, err)
	}

	switch len(found) {
	case 0:
		return 0, "", fmt.Errorf("no process named %q", arg)
	case 1:
		return found[0].PID, found[0].Name, nil
	}
	t.printProcesses(found)
	return 0, "", fmt.Errorf("%d processes named %q, attach by PID", len(found), arg)
}

func (t *Term) printProcesses(list []process.ProcessInfo) {
	tbl := newTable(
		column{header: "PID"},
		column{header: "PPID"},
		column{header: "NAME"},
		column{header: "STATE"},
		column{header: "THREADS"},
		column{header: "EXE"},
	)
	for _, p := range list {
		tbl.addRow(
			fmt.Sprint(p.PID),
			fmt.Sprint(p.PPID),
			p.Name,
			string(p.State),
			fmt.Sprint(p.Threads),
			p.Exe,
		)
	}
	tbl.render(t.stdout)
}

func (t *Term) welcomeMessage() string {
	username := "user"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}
	return welcomeMessage(username, time.Now())
}

func welcomeMessage(username string, now time.Time) string {
	date := now.Format("02.01.2006")
	clock := now.Format("15:04:05")

	padding := 64 - (len(username) + 7) - (len(date) + len(clock) + 3)
	if padding < 1 {
		padding = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "    memscan v%s\n", Version)
	fmt.Fprintf(&sb, "    %s\n\n", strings.Repeat("-", 64))
	fmt.Fprintf(&sb, "    Hello, %s%s%s | %s\n\n", username, strings.Repeat(" ", padding), date, clock)
	fmt.Fprintf(&sb, "    > Type 'help' for available commands\n")
	fmt.Fprintf(&sb, "    > System is ready\n\n")
	return sb.String()
}
