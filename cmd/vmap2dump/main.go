// Command vmap2dump inspects and converts VMap2 stores from the command
// line. Grounded on the teacher's docs/examples CLIs (01-quick-start,
// 10-chart-info-viewer): flag.String/flag.Parse plus a thin main, rather
// than a subcommand framework, since nothing in the retrieved example pack
// pulls one in.
//
// Usage:
//
//	vmap2dump dump    -store PATH
//	vmap2dump import  -store PATH [-create] [-in FILE]
//	vmap2dump stats   -store PATH
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/slazav/vmap2/pkg/vmap2"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("vmap2dump: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "dump":
		err = runDump(args)
	case "import":
		err = runImport(args)
	case "stats":
		err = runStats(args)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: vmap2dump <dump|import|stats> -store PATH [flags]")
	fmt.Fprintln(os.Stderr, "  dump    write every object in the store to stdout in text form")
	fmt.Fprintln(os.Stderr, "  import  read objects in text form and add them to the store")
	fmt.Fprintln(os.Stderr, "  stats   print object count, type list and bounding box")
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	storePath := fs.String("store", "", "path to the VMap2 store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *storePath == "" {
		return fmt.Errorf("dump: -store is required")
	}

	s, err := vmap2.Open(*storePath, false)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	defer s.Close()

	return vmap2.Dump(os.Stdout, s)
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	storePath := fs.String("store", "", "path to the VMap2 store")
	inPath := fs.String("in", "", "text-dump file to import (default: stdin)")
	create := fs.Bool("create", false, "create the store if it does not exist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *storePath == "" {
		return fmt.Errorf("import: -store is required")
	}

	s, err := vmap2.Open(*storePath, *create)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer s.Close()

	in := os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		defer f.Close()
		in = f
	}

	n, err := vmap2.Import(s, in)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(os.Stderr, "imported %d objects\n", n)
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	storePath := fs.String("store", "", "path to the VMap2 store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *storePath == "" {
		return fmt.Errorf("stats: -store is required")
	}

	s, err := vmap2.Open(*storePath, false)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	defer s.Close()

	count := 0
	if err := s.IterStart(); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	for !s.IterEnd() {
		if _, _, err := s.IterNext(); err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		count++
	}

	types, err := s.Types()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	bbox, err := s.BBox()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Printf("objects: %d\n", count)
	fmt.Printf("types:   %d\n", len(types))
	for _, t := range types {
		fmt.Printf("  %s\n", vmap2.PrintType(t))
	}
	fmt.Printf("bbox:    [%.6f,%.6f] + %.6fx%.6f\n", bbox.X, bbox.Y, bbox.W, bbox.H)
	return nil
}
