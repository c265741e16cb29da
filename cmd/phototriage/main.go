// phototriage is the command-line interface to the photo triage engine.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"phototriage/internal/asset"
	"phototriage/internal/config"
	"phototriage/internal/journal"
	"phototriage/internal/library"
	"phototriage/internal/logging"
	"phototriage/internal/notify"
	"phototriage/internal/tagstore"
	"phototriage/internal/triage"
)

var (
	configPath  = flag.String("config", "", "path to config file")
	libraryRoot = flag.String("library", "", "override the library root directory")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	switch cmd {
	case "scan":
		cmdScan()
	case "list":
		cmdList(args)
	case "tag":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: phototriage tag <photo> <keep|delete|unsure>")
			os.Exit(1)
		}
		cmdTag(args[0], args[1])
	case "untag":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: phototriage untag <photo>")
			os.Exit(1)
		}
		cmdUntag(args[0])
	case "stats":
		cmdStats()
	case "history":
		cmdHistory(args)
	case "undo":
		cmdUndo()
	case "apply":
		cmdApply(args)
	case "purge":
		cmdPurge()
	case "gui":
		fmt.Fprintln(os.Stderr, "The graphical review surface ships as a separate binary: phototriage-gui")
		os.Exit(1)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `phototriage - Triage a photo library from the terminal

Usage: phototriage [options] <command> [args]

Commands:
  scan                 Scan the library and report what it holds
  list                 List photos (use -filter to narrow)
  tag <photo> <tag>    Assign keep, delete, or unsure to a photo
  untag <photo>        Clear a photo's disposition
  stats                Show tag counts and journal totals
  history [photo]      Show recent decisions, optionally for one photo
  undo                 Revert the most recent decision
  apply                Delete every photo tagged delete (asks first)
  purge                Drop tags whose photos no longer exist
  help                 Show this help message

Options:
  -config <path>   Path to config file (default: platform config dir)
  -library <path>  Override the library root directory`)
}

// env assembles the component stack every command needs. Commands that
// mutate state must defer env.close.
type env struct {
	cfg   *config.Config
	lib   *library.DirLibrary
	store *tagstore.Store
	jrnl  *journal.Journal
	coord *triage.Coordinator
	log   *logging.Logger
}

func (e *env) close() {
	if e.coord != nil {
		if err := e.coord.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	if e.jrnl != nil {
		e.jrnl.Close()
	}
	if e.log != nil {
		e.log.Close()
	}
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:    level,
		Format:   format,
		Output:   cfg.Logging.Output,
		FilePath: cfg.Logging.FilePath,
	})
}

func openEnv() *env {
	cfg, _, err := config.LoadOrCreate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *libraryRoot != "" {
		cfg.Library.Root = *libraryRoot
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing data directories: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	store := tagstore.Open(cfg.Store.Path, tagstore.Options{
		QuietPeriod: time.Duration(cfg.Store.QuietPeriodMs) * time.Millisecond,
		Logger:      log.Logger,
	})
	<-store.Ready()

	lib := library.NewDirLibrary(cfg.Library.Root, store, log.Logger)
	if err := lib.Scan(); err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning library %s: %v\n", cfg.Library.Root, err)
		os.Exit(1)
	}

	var jrnl *journal.Journal
	if cfg.Journal.Enabled {
		jrnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
			os.Exit(1)
		}
	}

	coord := triage.New(lib, store, triage.Options{
		Journal: jrnl,
		Logger:  log.Logger,
	})

	return &env{cfg: cfg, lib: lib, store: store, jrnl: jrnl, coord: coord, log: log}
}

func cmdScan() {
	e := openEnv()
	defer e.close()

	purged, err := e.coord.Rescan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Library:  %s\n", e.lib.Root())
	fmt.Printf("Photos:   %d\n", e.lib.Len())
	fmt.Printf("Tagged:   %d\n", e.store.Len())
	if purged > 0 {
		fmt.Printf("Purged:   %d stale tags\n", purged)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	filterSpec := fs.String("filter", "", "comma-separated tags: keep,delete,unsure,untagged")
	collection := fs.String("collection", "", "restrict to a library subdirectory")
	fs.Parse(args)

	e := openEnv()
	defer e.close()

	f, err := parseFilter(*filterSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	f.Collection = *collection
	e.lib.SetFilter(f)

	ids := e.lib.OrderedFilteredAssets()
	for _, id := range ids {
		if tag, ok := e.lib.TagOf(id); ok {
			fmt.Printf("%-8s %s\n", tag, id)
		} else {
			fmt.Printf("%-8s %s\n", "-", id)
		}
	}
	fmt.Fprintf(os.Stderr, "%d photos\n", len(ids))
}

// parseFilter converts "keep,delete,untagged" into a library filter. An
// empty spec means everything passes.
func parseFilter(spec string) (library.Filter, error) {
	if spec == "" {
		return library.DefaultFilter(), nil
	}
	f := library.Filter{Allowed: make(map[asset.Tag]bool)}
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "untagged" {
			f.IncludeUntagged = true
			continue
		}
		tag, err := asset.ParseTag(token)
		if err != nil {
			return library.Filter{}, fmt.Errorf("bad filter token %q: %w", token, err)
		}
		f.Allowed[tag] = true
	}
	return f, nil
}

func cmdTag(photo, tagToken string) {
	tag, err := asset.ParseTag(tagToken)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	e := openEnv()
	defer e.close()

	id := resolvePhoto(e, photo)
	if err := e.coord.CommitTag(id, tag, journal.SourceCLI); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s -> %s\n", id, tag)
}

func cmdUntag(photo string) {
	e := openEnv()
	defer e.close()

	id := resolvePhoto(e, photo)
	if err := e.coord.ClearTag(id, journal.SourceCLI); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s -> untagged\n", id)
}

// resolvePhoto accepts either an exact asset ID or a unique basename.
func resolvePhoto(e *env, photo string) asset.ID {
	id := asset.ID(strings.ReplaceAll(photo, "\\", "/"))
	existing := e.lib.ExistingIDs()
	if _, ok := existing[id]; ok {
		return id
	}

	var matches []asset.ID
	for candidate := range existing {
		if strings.HasSuffix(string(candidate), "/"+photo) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0]
	case 0:
		fmt.Fprintf(os.Stderr, "No such photo: %s\n", photo)
	default:
		fmt.Fprintf(os.Stderr, "Ambiguous photo %s, matches:\n", photo)
		for _, m := range matches {
			fmt.Fprintf(os.Stderr, "  %s\n", m)
		}
	}
	os.Exit(1)
	return ""
}

func cmdStats() {
	e := openEnv()
	defer e.close()

	snapshot := e.store.Snapshot()
	counts := make(map[asset.Tag]int)
	for _, tag := range snapshot {
		counts[tag]++
	}

	fmt.Printf("Library:  %s\n", e.lib.Root())
	fmt.Printf("Photos:   %d\n", e.lib.Len())
	fmt.Println()
	fmt.Println("Dispositions:")
	for _, tag := range asset.Tags() {
		fmt.Printf("  %-8s %d\n", tag, counts[tag])
	}
	fmt.Printf("  %-8s %d\n", "untagged", e.lib.Len()-len(snapshot))

	if e.jrnl != nil {
		fmt.Println()
		fmt.Println("Journal decisions by resulting tag:")
		tagCounts, err := e.jrnl.CountsByTag()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading journal: %v\n", err)
			os.Exit(1)
		}
		for _, tc := range tagCounts {
			label := tc.Tag
			if label == "" {
				label = "(cleared)"
			}
			fmt.Printf("  %-10s %d\n", label, tc.Count)
		}
	}
}

func cmdHistory(args []string) {
	e := openEnv()
	defer e.close()

	if e.jrnl == nil {
		fmt.Fprintln(os.Stderr, "The journal is disabled in the configuration.")
		os.Exit(1)
	}

	var (
		decisions []journal.Decision
		err       error
	)
	if len(args) >= 1 {
		decisions, err = e.jrnl.HistoryForAsset(resolvePhoto(e, args[0]))
	} else {
		decisions, err = e.jrnl.Recent(50)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading journal: %v\n", err)
		os.Exit(1)
	}

	if len(decisions) == 0 {
		fmt.Println("No decisions recorded.")
		return
	}

	fmt.Printf("%-20s %-8s %-8s %-6s %s\n", "When", "From", "To", "Via", "Photo")
	for _, d := range decisions {
		when := time.Unix(0, d.TimestampNs).Format("2006-01-02 15:04:05")
		line := fmt.Sprintf("%-20s %-8s %-8s %-6s %s",
			when, tagLabel(d.PreviousTag), tagLabel(d.NewTag), d.Source, d.AssetID)
		if d.Undone {
			line += "  (undone)"
		}
		fmt.Println(line)
	}
}

func tagLabel(t *asset.Tag) string {
	if t == nil {
		return "-"
	}
	return t.String()
}

func cmdUndo() {
	e := openEnv()
	defer e.close()

	reverted, err := e.coord.Undo()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reverted: %s %s -> %s\n",
		reverted.AssetID, tagLabel(reverted.PreviousTag), tagLabel(reverted.NewTag))
}

func cmdApply(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.Parse(args)

	e := openEnv()
	defer e.close()

	doomed := e.store.ExistingWith(asset.TagDelete)
	if len(doomed) == 0 {
		fmt.Println("Nothing tagged delete.")
		return
	}

	existing := e.lib.ExistingIDs()
	ids := doomed[:0]
	for _, id := range doomed {
		if _, ok := existing[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		fmt.Println("Nothing tagged delete.")
		return
	}

	if !*yes {
		fmt.Printf("About to delete %d photos:\n", len(ids))
		for _, id := range ids {
			fmt.Printf("  %s\n", id)
		}
		fmt.Print("Proceed? [y/N] ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	if e.cfg.Notify.Enabled {
		n := notify.New("phototriage", e.log.Logger)
		defer n.Close()
		// Re-wire the coordinator's notifier for this one bulk action.
		e.coord.SetNotify(n.Send)
	}

	deleted, errs := e.coord.DeleteSelected(context.Background(), ids)
	fmt.Printf("Deleted %d of %d photos.\n", deleted, len(ids))
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  %v\n", err)
	}
	if len(errs) > 0 {
		os.Exit(1)
	}
}

func cmdPurge() {
	e := openEnv()
	defer e.close()

	purged, err := e.coord.Rescan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Purged %d stale tags.\n", purged)
}
