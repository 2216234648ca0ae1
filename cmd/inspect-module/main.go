package main

import (
	"fmt"
	"os"

	"github.com/speakeasy-api/annotator"
	"github.com/speakeasy-api/annotator/bookkeeper"
	"github.com/speakeasy-api/annotator/pkg/report"
	"github.com/speakeasy-api/annotator/pkg/starlarkobj"
)

// moduleDriver has no flow graphs: calls into user functions are unknown.
type moduleDriver struct {
	filename string
}

func (d moduleDriver) RecursiveCall(*bookkeeper.Scope, *annotator.Function, []bookkeeper.Value) (bookkeeper.Value, error) {
	return bookkeeper.NewObject(nil), nil
}

func (d moduleDriver) EnsureGraph(*annotator.Function) error { return nil }

func (d moduleDriver) WhereAmI(pos annotator.Position) string {
	return fmt.Sprintf("%s:%d:%d", d.filename, pos.Block, pos.Index)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: inspect-module <module.star> [options.yaml]")
		os.Exit(2)
	}
	filename := os.Args[1]

	opts := bookkeeper.DefaultOptions()
	if len(os.Args) > 2 {
		var err error
		if opts, err = bookkeeper.LoadOptions(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Options error: %v\n", err)
			os.Exit(1)
		}
	}

	m, err := starlarkobj.Load(filename, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		os.Exit(1)
	}

	bk := bookkeeper.New(moduleDriver{filename: filename}, bookkeeper.WithOptions(opts))

	for i, name := range m.Names() {
		obj, _ := m.Get(name)
		s := bk.Enter(annotator.Position{Graph: filename, Index: i})
		v := bk.Classify(obj)
		fmt.Printf("%3d: %-15s %v\n", i, name, v)

		// Read every field of constant structs so their access sets show up.
		if pbc, ok := v.(*bookkeeper.PBC); ok {
			for _, o := range pbc.Objects() {
				in, ok := o.(*annotator.Instance)
				if !ok {
					continue
				}
				for _, attr := range in.AttrNames() {
					if _, err := s.GetAttr(pbc, bk.Classify(attr)); err != nil {
						fmt.Printf("     %s.%s: %v\n", name, attr, err)
					}
				}
			}
		}
		if err := s.Leave(); err != nil {
			fmt.Fprintf(os.Stderr, "Scope error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println()
	if err := report.Build(bk).WriteText(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Report error: %v\n", err)
		os.Exit(1)
	}
}
