// Package report renders the state of an analysis run for humans and
// golden files.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/speakeasy-api/annotator/bookkeeper"
)

// Snapshot is a printable copy of the bookkeeper records.
type Snapshot struct {
	RunID           string           `yaml:"run_id"`
	Classes         []Class          `yaml:"classes,omitempty"`
	AccessSets      []AccessSet      `yaml:"access_sets,omitempty"`
	Specializations []Specialization `yaml:"specializations,omitempty"`
	Warnings        []Warning        `yaml:"warnings,omitempty"`
}

// Class is one ClassDef.
type Class struct {
	Name  string `yaml:"name"`
	Base  string `yaml:"base,omitempty"`
	Attrs []Attr `yaml:"attrs,omitempty"`
}

// Attr is one attribute of a ClassDef.
type Attr struct {
	Name    string `yaml:"name"`
	Value   string `yaml:"value"`
	Readers int    `yaml:"readers"`
}

// AccessSet is one class of the constant access-set forest.
type AccessSet struct {
	Objects []string `yaml:"objects"`
	Attrs   []string `yaml:"attrs,omitempty"`
	Readers []string `yaml:"readers,omitempty"`
}

// Specialization is one specialized clone.
type Specialization struct {
	Original string `yaml:"original"`
	Key      string `yaml:"key"`
	Clone    string `yaml:"clone"`
}

// Warning is one recorded diagnostic.
type Warning struct {
	Where   string `yaml:"where"`
	Message string `yaml:"message"`
}

// Build copies the current records of bk.
func Build(bk *bookkeeper.Bookkeeper) *Snapshot {
	snap := &Snapshot{RunID: bk.RunID()}

	for _, cd := range bk.ClassDefs() {
		c := Class{Name: cd.Name}
		if cd.Base != nil {
			c.Base = cd.Base.Name
		}
		for _, name := range cd.Attrs() {
			a, _ := cd.Attr(name)
			c.Attrs = append(c.Attrs, Attr{
				Name:    name,
				Value:   a.Value.String(),
				Readers: len(a.Readers()),
			})
		}
		snap.Classes = append(snap.Classes, c)
	}

	for _, as := range bk.AccessSets() {
		entry := AccessSet{Attrs: as.AttrNames()}
		for _, obj := range as.Objects() {
			entry.Objects = append(entry.Objects, fmt.Sprint(obj))
		}
		for _, pos := range as.ReadLocations.Slice() {
			entry.Readers = append(entry.Readers, pos.String())
		}
		snap.AccessSets = append(snap.AccessSets, entry)
	}

	for _, sp := range bk.Specializations() {
		snap.Specializations = append(snap.Specializations, Specialization{
			Original: fmt.Sprint(sp.Original),
			Key:      fmt.Sprint(sp.Key),
			Clone:    fmt.Sprint(sp.Clone),
		})
	}

	for _, w := range bk.Warnings() {
		snap.Warnings = append(snap.Warnings, Warning{Where: w.Where, Message: w.Message})
	}
	return snap
}

// WriteYAML writes the snapshot as a YAML document.
func (s *Snapshot) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return enc.Close()
}

// WriteText writes the snapshot as aligned tables.
func (s *Snapshot) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", s.RunID)

	if len(s.Classes) > 0 {
		rows := [][]string{{"CLASS", "ATTR", "VALUE", "READERS"}}
		for _, c := range s.Classes {
			name := c.Name
			if c.Base != "" {
				name += " < " + c.Base
			}
			if len(c.Attrs) == 0 {
				rows = append(rows, []string{name, "-", "-", "0"})
			}
			for _, a := range c.Attrs {
				rows = append(rows, []string{name, a.Name, a.Value, fmt.Sprint(a.Readers)})
			}
		}
		b.WriteString("\n")
		writeTable(&b, rows)
	}

	if len(s.AccessSets) > 0 {
		rows := [][]string{{"OBJECTS", "ATTRS", "READERS"}}
		for _, as := range s.AccessSets {
			rows = append(rows, []string{
				strings.Join(as.Objects, ", "),
				strings.Join(as.Attrs, ", "),
				strings.Join(as.Readers, ", "),
			})
		}
		b.WriteString("\n")
		writeTable(&b, rows)
	}

	if len(s.Specializations) > 0 {
		rows := [][]string{{"ORIGINAL", "KEY", "CLONE"}}
		for _, sp := range s.Specializations {
			rows = append(rows, []string{sp.Original, sp.Key, sp.Clone})
		}
		b.WriteString("\n")
		writeTable(&b, rows)
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n")
		for _, wn := range s.Warnings {
			fmt.Fprintf(&b, "*** WARNING: [%s] %s\n", wn.Where, wn.Message)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeTable pads every column to its widest cell. Widths are measured in
// terminal cells so wide runes line up.
func writeTable(b *strings.Builder, rows [][]string) {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
}
