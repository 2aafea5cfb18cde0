// Command prosmarty renders templates from the command line and emits
// generated renderer source for embedding.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	prosmarty "github.com/williampany/pro-smarty"
)

type renderFlags struct {
	data           string
	dataFile       string
	out            string
	delimiter      string
	openDelimiter  string
	closeDelimiter string
	localsName     string
	views          []string
	root           string
	strict         bool
	rmWhitespace   bool
	debug          bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prosmarty",
		Short:         "Embedded template engine",
		Long:          "Renders templates mixing literal text with delimited directives, or emits the generated renderer source.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newSourceCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render <template-file>",
		Short: "Render a template file against JSON data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := flags.loadData()
			if err != nil {
				return err
			}
			opts := flags.options()
			opts.Filename = args[0]

			out, err := prosmarty.Render("", data, opts)
			if err != nil {
				return err
			}
			return flags.write(out)
		},
	}
	flags.register(cmd)
	return cmd
}

func newSourceCmd() *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "source <template-file>",
		Short: "Emit the generated renderer source for a template file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			opts := flags.options()
			opts.Filename = args[0]

			src, err := prosmarty.CompileSource(string(raw), opts)
			if err != nil {
				return err
			}
			return flags.write(src)
		},
	}
	flags.register(cmd)
	return cmd
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.data, "data", "", "render data as inline JSON object")
	cmd.Flags().StringVar(&f.dataFile, "data-file", "", "render data as a JSON file")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write output to a file instead of stdout")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "directive character (default \"%\")")
	cmd.Flags().StringVar(&f.openDelimiter, "open-delimiter", "", "directive opening character (default \"<\")")
	cmd.Flags().StringVar(&f.closeDelimiter, "close-delimiter", "", "directive closing character (default \">\")")
	cmd.Flags().StringVar(&f.localsName, "locals-name", "", "identifier binding the data context (default \"locals\")")
	cmd.Flags().StringArrayVar(&f.views, "views", nil, "include search root, repeatable")
	cmd.Flags().StringVar(&f.root, "root", "", "resolution base for absolute include paths")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "require the data context to be referenced through the locals name")
	cmd.Flags().BoolVar(&f.rmWhitespace, "rm-whitespace", false, "strip safe-to-remove whitespace before compiling")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "log the generated renderer source")
}

func (f *renderFlags) options() *prosmarty.Options {
	opts := prosmarty.DefaultOptions()
	if f.delimiter != "" {
		opts.Delimiter = f.delimiter
	}
	if f.openDelimiter != "" {
		opts.OpenDelimiter = f.openDelimiter
	}
	if f.closeDelimiter != "" {
		opts.CloseDelimiter = f.closeDelimiter
	}
	if f.localsName != "" {
		opts.LocalsName = f.localsName
	}
	opts.Views = f.views
	opts.Root = f.root
	opts.Strict = f.strict
	opts.RmWhitespace = f.rmWhitespace
	opts.Debug = f.debug
	return opts
}

func (f *renderFlags) loadData() (map[string]any, error) {
	if f.data != "" && f.dataFile != "" {
		return nil, fmt.Errorf("--data and --data-file are mutually exclusive")
	}

	raw := []byte(f.data)
	if f.dataFile != "" {
		var err error
		raw, err = os.ReadFile(f.dataFile)
		if err != nil {
			return nil, err
		}
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing render data: %w", err)
	}
	return data, nil
}

func (f *renderFlags) write(out string) error {
	if f.out == "" {
		_, err := fmt.Fprint(os.Stdout, out)
		return err
	}
	return os.WriteFile(f.out, []byte(out), 0o644)
}
