// Package ztest runs formulaic tests of tag queries that can be (1) run
// in-process with "go test" and (2) read by other tests that need a corpus
// of valid and invalid queries.
//
// A ztest is a YAML file in a directory named "ztests".  It describes a
// fixture catalog and a list of cases.  Each case gives a query and either
// the paths of the images it matches, in ascending ID order, or a regular
// expression that its compile error must match:
//
//	description: descendant wildcard
//	fixture:
//	  images:
//	    - path: a.jpg
//	      tags: [scene.outdoor.lake]
//	    - path: b.jpg
//	      tags: [scene.outdoor]
//	cases:
//	  - query: tag.scene.outdoor.*
//	    matches: [a.jpg]
//	  - query: tag.scene.outdoor.
//	    error: dangling
//
// Every case is run twice, once by evaluating the compiled query directly
// against records loaded from the catalog and once by compiling it to SQL
// and running it in an in-memory SQLite catalog.  Both must produce the
// expected matches.
//
// A case may also name a canonical form, which the normalized query must
// print as, and an equivalent query, which must match the same images.
// The canonical text of every query must compile again to the same text
// and the same matches.
//
// To run the ztests in a directory, call Run from a test:
//
//	func TestZTests(t *testing.T) {
//		ztest.Run(t, "ztests")
//	}
//
// Setting the ZTEST_TAG environment variable runs only the files whose tag
// field matches it.
package ztest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/jeremymatt/photo-manager/catalog"
	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ZTest defines a ztest.
type ZTest struct {
	Description string `yaml:"description,omitempty"`
	// Seed creates the default tag tree before the fixture is loaded.
	Seed    bool            `yaml:"seed,omitempty"`
	Fixture catalog.Fixture `yaml:"fixture,omitempty"`
	Cases   []Case          `yaml:"cases"`
	Skip    string          `yaml:"skip,omitempty"`
	// Tag, if not empty, is matched against ZTEST_TAG.
	Tag string `yaml:"tag,omitempty"`
}

type Case struct {
	Query string `yaml:"query"`
	// Matches lists the paths of matching images.  Nil means none.
	Matches []string `yaml:"matches,omitempty"`
	// Canonical is the expected text of the normalized query.
	Canonical string `yaml:"canonical,omitempty"`
	// Equiv is a query that must match exactly the same images.
	Equiv string `yaml:"equiv,omitempty"`
	// ErrorRE is a regular expression the compile error must match.
	ErrorRE string `yaml:"error,omitempty"`
}

func FromYAMLFile(filename string) (*ZTest, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var z ZTest
	d := yaml.NewDecoder(strings.NewReader(string(b)))
	d.KnownFields(true)
	if err := d.Decode(&z); err != nil {
		return nil, err
	}
	if len(z.Cases) == 0 {
		return nil, errors.New("no cases")
	}
	for k, c := range z.Cases {
		if c.Query == "" && c.ErrorRE == "" {
			return nil, fmt.Errorf("case %d: empty query", k+1)
		}
		if c.ErrorRE != "" {
			if _, err := regexp.Compile(c.ErrorRE); err != nil {
				return nil, fmt.Errorf("case %d: %w", k+1, err)
			}
		}
	}
	return &z, nil
}

// ShouldSkip returns a reason to skip z, or the empty string when z should
// run.
func (z *ZTest) ShouldSkip(tag string) string {
	switch {
	case z.Skip != "":
		return z.Skip
	case z.Tag != tag:
		return fmt.Sprintf("tag %q does not match ZTEST_TAG=%q", z.Tag, tag)
	}
	return ""
}

// Run runs the ztests in dirname as parallel subtests.
func Run(t *testing.T, dirname string) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		t.Fatal(err)
	}
	tag := os.Getenv("ZTEST_TAG")
	for _, e := range entries {
		filename := e.Name()
		if e.IsDir() || filepath.Ext(filename) != ".yaml" {
			continue
		}
		testname := strings.TrimSuffix(filename, ".yaml")
		t.Run(testname, func(t *testing.T) {
			t.Parallel()
			z, err := FromYAMLFile(filepath.Join(dirname, filename))
			if err != nil {
				t.Fatalf("%s: %s", filename, err)
			}
			if reason := z.ShouldSkip(tag); reason != "" {
				t.Skip("skipping test: ", reason)
			}
			if err := z.Run(context.Background()); err != nil {
				t.Fatalf("%s: %s", filename, err)
			}
		})
	}
}

// Run loads z's fixture into a fresh in-memory catalog and checks every
// case against it.  All case failures are reported together.
func (z *ZTest) Run(ctx context.Context) error {
	c, err := catalog.Open(ctx, catalog.Config{Seed: z.Seed}, schema.Default(), zap.NewNop())
	if err != nil {
		return err
	}
	defer c.Close()
	if _, err := c.Apply(ctx, &z.Fixture); err != nil {
		return fmt.Errorf("fixture: %w", err)
	}
	r := &runner{catalog: c}
	if r.records, err = c.Records(ctx); err != nil {
		return err
	}
	var failures []string
	for k, tc := range z.Cases {
		if err := r.run(ctx, tc); err != nil {
			failures = append(failures, fmt.Sprintf("case %d (%s): %s", k+1, tc.Query, err))
		}
	}
	if len(failures) > 0 {
		return errors.New(strings.Join(failures, "\n"))
	}
	return nil
}

type runner struct {
	catalog *catalog.Catalog
	records []*schema.Record
}

func (r *runner) run(ctx context.Context, tc Case) error {
	q, err := compiler.Compile(tc.Query, r.catalog.Snapshot())
	if tc.ErrorRE != "" {
		if err == nil {
			return errors.New("expected an error")
		}
		if !regexp.MustCompile(tc.ErrorRE).MatchString(err.Error()) {
			return fmt.Errorf("error %q does not match %q", err, tc.ErrorRE)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if tc.Canonical != "" && q.String() != tc.Canonical {
		return diffErr("canonical", tc.Canonical, q.String())
	}
	want := strings.Join(tc.Matches, "\n")
	direct := r.paths(q)
	if direct != want {
		return diffErr("direct", want, direct)
	}
	again, err := compiler.Compile(q.String(), r.catalog.Snapshot())
	if err != nil {
		return fmt.Errorf("canonical %s: %w", q.String(), err)
	}
	if again.String() != q.String() {
		return diffErr("recompiled canonical", q.String(), again.String())
	}
	if got := r.paths(again); got != want {
		return diffErr("recompiled canonical", want, got)
	}
	batch, err := r.batch(ctx, tc.Query)
	if err != nil {
		return err
	}
	if batch != want {
		return diffErr("batch", want, batch)
	}
	if tc.Equiv != "" {
		eq, err := compiler.Compile(tc.Equiv, r.catalog.Snapshot())
		if err != nil {
			return fmt.Errorf("equiv: %w", err)
		}
		if got := r.paths(eq); got != want {
			return diffErr("equiv "+tc.Equiv, want, got)
		}
	}
	return nil
}

func (r *runner) paths(q *compiler.Query) string {
	var paths []string
	for k, ok := range q.Filter(r.records) {
		if ok {
			paths = append(paths, r.records[k].Path)
		}
	}
	return strings.Join(paths, "\n")
}

func (r *runner) batch(ctx context.Context, query string) (string, error) {
	ids, err := r.catalog.Query(ctx, query)
	if err != nil {
		return "", err
	}
	records, err := r.catalog.Images(ctx, ids)
	if err != nil {
		return "", err
	}
	paths := make([]string, 0, len(records))
	for _, rec := range records {
		paths = append(paths, rec.Path)
	}
	return strings.Join(paths, "\n"), nil
}

func diffErr(name, expected, actual string) error {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected + "\n"),
		FromFile: "expected",
		B:        difflib.SplitLines(actual + "\n"),
		ToFile:   "actual",
		Context:  5,
	})
	if err != nil {
		return err
	}
	return fmt.Errorf("%s: expected and actual differ:\n%s", name, diff)
}
