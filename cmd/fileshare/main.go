// Command fileshare is the command-line and terminal client for a gateway.
//
// Usage:
//
//	fileshare <command> [-server URL] [args]
//
// The server defaults to $FILESHARE_URL, then http://localhost:3001.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"fileshare/internal/client"
	"fileshare/internal/pkg/format"
	"fileshare/internal/tui"
)

const defaultServer = "http://localhost:3001"

func main() {
	if len(os.Args) < 2 {
		printUsage("")
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		printUsage("")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "health":
		err = cmdHealth(ctx, os.Args[2:])
	case "ls":
		err = cmdList(ctx, os.Args[2:])
	case "put":
		err = cmdPut(ctx, os.Args[2:])
	case "get":
		err = cmdGet(ctx, os.Args[2:])
	case "rm":
		err = cmdRemove(ctx, os.Args[2:])
	case "ui":
		err = cmdUI(ctx, os.Args[2:])
	default:
		printUsage(fmt.Sprintf("Unknown command: %s", cmd))
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(errMsg string) {
	w := os.Stderr
	if errMsg != "" {
		fmt.Fprintln(w, errMsg)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Usage: fileshare <command> [-server URL] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  health                 check that the gateway is reachable")
	fmt.Fprintln(w, "  ls                     list shared files, newest first")
	fmt.Fprintln(w, "  put <path>             upload a file")
	fmt.Fprintln(w, "  get <stored> [dir]     download a file into dir (default .)")
	fmt.Fprintln(w, "  rm <stored>            delete a file")
	fmt.Fprintln(w, "  ui [-dir DIR]          interactive terminal client")
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	server := os.Getenv("FILESHARE_URL")
	if server == "" {
		server = defaultServer
	}
	return fs, fs.String("server", server, "gateway URL")
}

func cmdHealth(ctx context.Context, args []string) error {
	fs, server := newFlagSet("health")
	fs.Parse(args)

	c := client.New(*server)
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("cannot connect to %s: %w", c.BaseURL(), err)
	}
	fmt.Printf("ok %s\n", c.BaseURL())
	return nil
}

func cmdList(ctx context.Context, args []string) error {
	fs, server := newFlagSet("ls")
	fs.Parse(args)

	files, err := client.New(*server).List(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No files shared yet")
		return nil
	}

	now := time.Now()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tUPLOADED\tSTORED AS")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.OriginalName, format.FileSize(f.Size), format.RelativeTime(f.UploadDate, now), f.Filename)
	}
	return tw.Flush()
}

func cmdPut(ctx context.Context, args []string) error {
	fs, server := newFlagSet("put")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: fileshare put <path>")
	}
	path := fs.Arg(0)

	bar := progressFor("Uploading " + path)
	res, err := client.New(*server).Upload(ctx, path, bar.Update)
	if err != nil {
		bar.Fail(err)
		return err
	}
	bar.Finish()
	fmt.Printf("%q uploaded as %s (%s)\n", res.OriginalName, res.Filename, format.FileSize(res.Size))
	return nil
}

func cmdGet(ctx context.Context, args []string) error {
	fs, server := newFlagSet("get")
	fs.Parse(args)
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("usage: fileshare get <stored> [dir]")
	}
	dir := "."
	if fs.NArg() == 2 {
		dir = fs.Arg(1)
	}

	bar := progressFor("Downloading " + fs.Arg(0))
	path, err := client.New(*server).DownloadTo(ctx, fs.Arg(0), dir, bar.Update)
	if err != nil {
		bar.Fail(err)
		return err
	}
	bar.Finish()
	fmt.Printf("saved %s\n", path)
	return nil
}

func cmdRemove(ctx context.Context, args []string) error {
	fs, server := newFlagSet("rm")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: fileshare rm <stored>")
	}
	if err := client.New(*server).Delete(ctx, fs.Arg(0)); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", fs.Arg(0))
	return nil
}

func cmdUI(ctx context.Context, args []string) error {
	fs, server := newFlagSet("ui")
	dir := fs.String("dir", ".", "download directory")
	fs.Parse(args)

	c := client.New(*server)
	p := tea.NewProgram(tui.New(ctx, c, c.BaseURL(), *dir), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// progressFor returns nil unless stdout is a terminal. A nil bar is inert.
func progressFor(prefix string) *client.ProgressBar {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return client.NewProgressBar(os.Stdout, prefix)
}
