package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kjordahl/pascompile/internal/diag"
	"github.com/kjordahl/pascompile/internal/parser"
	"github.com/kjordahl/pascompile/internal/scanner"
	"github.com/kjordahl/pascompile/internal/token"
	"github.com/kjordahl/pascompile/internal/tree"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "pascompile <sourceFile>",
	Short: "Scan, parse, and type-check a single source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"trace every production entered and keep going past the first semantic error")
}

// Execute runs the root command, exiting 1 on any error the command
// itself did not already resolve to a specific exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("No source file detected")
			return nil
		}
		return fmt.Errorf("reading %s: %w", sourcePath, err)
	}
	src := string(data)

	buildDir := "build"
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", buildDir, err)
	}

	s := scanner.New(sourcePath, src)
	for s.NextToken() != token.EOF {
	}

	if err := writeWordList(filepath.Join(buildDir, "wordlist.txt"), s.GetWordList()); err != nil {
		return err
	}

	if fatal := s.Fatal(); fatal != nil {
		fmt.Println(fatal.Format(src, sourcePath, false))
		os.Exit(1)
	}
	for _, d := range s.Errors() {
		fmt.Println(d.Format(src, sourcePath, false))
	}

	p := parser.New(s.GetWordList(), s.GetSymbolTable(), !debug)
	if debug {
		p.Trace = func(production string, pos token.Position) {
			fmt.Printf("TRACE %s %s\n", production, pos)
		}
	}
	root := p.Parse()

	if err := tree.WriteFile(filepath.Join(buildDir, "parsetree.txt"), root); err != nil {
		return err
	}

	if out := diag.FormatAll(p.Diagnostics(), src, sourcePath, false); out != "" {
		fmt.Println(out)
	}

	if !debug && p.Fatal() != nil {
		os.Exit(1)
	}
	return nil
}

func writeWordList(path string, words []token.Word) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, word := range words {
		fmt.Fprintf(w, "%s,%s\n", word.Kind, word.String)
	}
	return w.Flush()
}
