package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkelly/lattice"
)

var (
	flagRoots   []string
	flagExports string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "lattice",
	Short:         "Documentation object graphs for Python source trees",
	Long:          "Lattice parses Python sources with tree-sitter, resolves names through import chains, and produces merged documentation object graphs as JSON or SQLite.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&flagRoots, "root", []string{"."}, "module search root (repeatable)")
	rootCmd.PersistentFlags().StringVar(&flagExports, "exports-script", "", "Risor script supplying public names for modules without __all__")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(showCmd)
}

// newEngine builds an Engine from the persistent flags.
func newEngine() (*lattice.Engine, error) {
	var opts []lattice.Option
	if flagExports != "" {
		p, err := lattice.LoadScriptProvider(flagExports)
		if err != nil {
			return nil, fmt.Errorf("loading exports script: %w", err)
		}
		opts = append(opts, lattice.WithExportProvider(p))
	}
	return lattice.New(lattice.NewDirLoader(flagRoots...), opts...), nil
}

var flagDB string

var collectCmd = &cobra.Command{
	Use:   "collect <name>...",
	Short: "Collect documentation graphs for the given dotted names",
	Long:  "Builds the object graph for each name, merges docstrings with signature data, and writes the result as JSON to stdout or into a SQLite database.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&flagDB, "db", "", "write graphs into a SQLite database instead of stdout")
}

func runCollect(cmd *cobra.Command, args []string) error {
	start := time.Now()

	engine, err := newEngine()
	if err != nil {
		return err
	}

	objects, err := engine.CollectAll(context.Background(), args)
	if err != nil {
		return err
	}

	if flagDB != "" {
		s, err := lattice.OpenStore(flagDB)
		if err != nil {
			return err
		}
		defer s.Close()
		saved := 0
		for _, name := range args {
			obj := objects[name]
			if obj == nil || obj.Kind != lattice.KindModule {
				continue
			}
			if err := lattice.SaveModule(s, obj); err != nil {
				return err
			}
			saved++
		}
		fmt.Fprintf(os.Stderr, "Collected %d object(s), saved %d module(s) in %s\n",
			len(objects), saved, time.Since(start).Round(time.Millisecond))
		fmt.Fprintf(os.Stderr, "Database: %s\n", flagDB)
		return nil
	}

	out := make([]*lattice.Object, 0, len(args))
	for _, name := range args {
		if obj := objects[name]; obj != nil {
			out = append(out, obj)
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Collected %d object(s) in %s\n",
		len(out), time.Since(start).Round(time.Millisecond))
	return nil
}

var flagShowDB string

var showCmd = &cobra.Command{
	Use:   "show <module>",
	Short: "Read a persisted module graph back from a database",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&flagShowDB, "db", "", "database to read from")
	showCmd.MarkFlagRequired("db")
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := lattice.OpenStore(flagShowDB)
	if err != nil {
		return err
	}
	defer s.Close()

	mod, err := lattice.LoadModule(s, args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(mod)
}

var flagContext string

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>...",
	Short: "Resolve dotted names to their canonical targets",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&flagContext, "context", "", "module context the names are written in (default: the name's own module)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	for _, name := range args {
		ctx := flagContext
		if ctx == "" {
			if dot := strings.LastIndex(name, "."); dot >= 0 {
				ctx = name[:dot]
			} else {
				ctx = name
			}
		}
		full := engine.Resolve(name, ctx)
		if full == "" {
			full = "<unresolved>"
		}
		fmt.Printf("%s\t%s\n", name, full)
	}
	return nil
}
