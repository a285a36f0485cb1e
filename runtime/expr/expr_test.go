package expr_test

import (
	"testing"

	"github.com/jeremymatt/photo-manager/compiler/parser"
	"github.com/jeremymatt/photo-manager/compiler/semantic"
	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/jeremymatt/photo-manager/runtime/expr"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/tagtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, paths ...string) *runtime.Context {
	tree := tagtree.New()
	for _, p := range paths {
		_, err := tree.Add(p)
		require.NoError(t, err)
	}
	return runtime.NewContext(tree, schema.Default())
}

func compile(t *testing.T, ctx *runtime.Context, src string) expr.Evaluator {
	t.Helper()
	e, err := parser.Parse(src)
	require.NoError(t, err, src)
	e, err = semantic.Normalize(e, ctx.Schema)
	require.NoError(t, err, src)
	ev, err := expr.Compile(ctx, e)
	require.NoError(t, err, src)
	return ev
}

func compileErr(ctx *runtime.Context, src string) error {
	e, err := parser.Parse(src)
	if err != nil {
		return err
	}
	e, err = semantic.Normalize(e, ctx.Schema)
	if err != nil {
		return err
	}
	_, err = expr.Compile(ctx, e)
	return err
}

func tagged(paths ...string) *schema.Record {
	return &schema.Record{Tags: schema.NewTagSet(paths...)}
}

func withFields(fields map[string]schema.Value, paths ...string) *schema.Record {
	return &schema.Record{Fields: fields, Tags: schema.NewTagSet(paths...)}
}

var sceneTags = []string{"scene.outdoor", "scene.outdoor.lake", "scene.indoor", "person.alice", "person.bob", "person.carol"}

func TestWildcards(t *testing.T) {
	ctx := newContext(t, sceneTags...)
	outdoor := tagged("scene.outdoor")
	lake := tagged("scene.outdoor.lake")
	indoor := tagged("scene.indoor")
	records := []*schema.Record{outdoor, lake, indoor}

	assert.Equal(t, []bool{true, true, false}, expr.Filter(compile(t, ctx, "tag.scene.outdoor*"), records))
	assert.Equal(t, []bool{false, true, false}, expr.Filter(compile(t, ctx, "tag.scene.outdoor.*"), records))
	assert.Equal(t, []bool{true, false, false}, expr.Filter(compile(t, ctx, "tag.scene.outdoor"), records))
	assert.Equal(t, []bool{true, true, true}, expr.Filter(compile(t, ctx, "tag.scene.*"), records))
	assert.Equal(t, []bool{false, false, false}, expr.Filter(compile(t, ctx, "tag.scene"), records))
}

func TestSiblingPrefixIsNotDescendant(t *testing.T) {
	ctx := newContext(t, "scene.outdoor", "scene.outdoorsy")
	r := tagged("scene.outdoorsy")
	assert.False(t, compile(t, ctx, "tag.scene.outdoor*").Eval(r))
	assert.False(t, compile(t, ctx, "tag.scene.outdoor.*").Eval(r))
}

func TestUnknownPathMatchesNothing(t *testing.T) {
	ctx := newContext(t, "scene.outdoor")
	// The record carries a tag the tree does not know about.
	r := tagged("ghost.tag")
	assert.False(t, compile(t, ctx, "tag.ghost.tag").Eval(r))
	assert.False(t, compile(t, ctx, "tag.ghost*").Eval(r))
	assert.True(t, compile(t, ctx, "!tag.ghost.tag").Eval(r))
}

func TestScenarioFavoriteYear(t *testing.T) {
	ctx := newContext(t)
	ev := compile(t, ctx, "tag.favorite && tag.datetime.year>=2020")
	assert.True(t, ev.Eval(withFields(map[string]schema.Value{
		"favorite":      schema.NewBool(true),
		"datetime.year": schema.NewInt(2021),
	})))
	assert.False(t, ev.Eval(withFields(map[string]schema.Value{
		"favorite":      schema.NewBool(false),
		"datetime.year": schema.NewInt(2021),
	})))
	assert.False(t, ev.Eval(withFields(map[string]schema.Value{
		"favorite": schema.NewBool(true),
	})))
}

func TestScenarioNegatedOr(t *testing.T) {
	ctx := newContext(t, sceneTags...)
	ev := compile(t, ctx, "!(tag.person.alice || tag.person.bob)")
	assert.True(t, ev.Eval(tagged("person.carol")))
	assert.False(t, ev.Eval(tagged("person.bob")))
}

func TestLegacyEquivalence(t *testing.T) {
	ctx := newContext(t, sceneTags...)
	legacy := compile(t, ctx, `tag.person=="Alice"`)
	modern := compile(t, ctx, "tag.person.alice")
	notLegacy := compile(t, ctx, `tag.person!="alice"`)
	for _, r := range []*schema.Record{tagged("person.alice"), tagged("person.bob"), tagged(), tagged("person")} {
		assert.Equal(t, modern.Eval(r), legacy.Eval(r))
		assert.Equal(t, !modern.Eval(r), notLegacy.Eval(r))
	}
}

func TestDeMorgan(t *testing.T) {
	ctx := newContext(t, sceneTags...)
	pairs := [][2]string{
		{"!(tag.person.alice && tag.favorite)", "!tag.person.alice || !tag.favorite"},
		{"!(tag.scene.outdoor* || tag.datetime.year<2000)", "!tag.scene.outdoor* && !(tag.datetime.year<2000)"},
	}
	records := []*schema.Record{
		withFields(nil),
		withFields(map[string]schema.Value{"favorite": schema.NewBool(true)}, "person.alice"),
		withFields(map[string]schema.Value{"favorite": schema.NewBool(false)}, "person.alice"),
		withFields(map[string]schema.Value{"datetime.year": schema.NewInt(1999)}, "scene.outdoor.lake"),
		withFields(map[string]schema.Value{"datetime.year": schema.NewInt(2001)}),
	}
	for _, p := range pairs {
		lhs, rhs := compile(t, ctx, p[0]), compile(t, ctx, p[1])
		assert.Equal(t, expr.Filter(lhs, records), expr.Filter(rhs, records), p[0])
	}
}

func TestNonePartition(t *testing.T) {
	ctx := newContext(t)
	records := []*schema.Record{
		withFields(nil),
		withFields(map[string]schema.Value{"location.city": schema.NewString("Boston")}),
		withFields(map[string]schema.Value{"location.city": schema.NewString("")}),
	}
	isNone := expr.Filter(compile(t, ctx, "tag.location.city==None"), records)
	notNone := expr.Filter(compile(t, ctx, "tag.location.city!=None"), records)
	for k := range records {
		assert.NotEqual(t, isNone[k], notNone[k])
	}
	assert.Equal(t, []bool{true, false, false}, isNone)
}

func TestAbsentFieldComparisons(t *testing.T) {
	ctx := newContext(t)
	empty := withFields(nil)
	for _, src := range []string{
		"tag.datetime.year==2020",
		"tag.datetime.year!=2020",
		"tag.datetime.year<2020",
		"tag.location.city>='a'",
		"tag.favorite==false",
		"tag.favorite!=true",
	} {
		assert.False(t, compile(t, ctx, src).Eval(empty), src)
	}
}

func TestNumericComparisons(t *testing.T) {
	ctx := newContext(t)
	r := withFields(map[string]schema.Value{
		"datetime.year":     schema.NewInt(2021),
		"location.latitude": schema.NewFloat(42.5),
		"location.city":     schema.NewString("Boston"),
	})
	for src, want := range map[string]bool{
		"tag.datetime.year==2021":       true,
		"tag.datetime.year>2020.5":      true,
		"tag.datetime.year<=2021.0":     true,
		"tag.location.latitude>42":      true,
		"tag.location.latitude==42.5":   true,
		"tag.location.latitude<-10":     false,
		"tag.location.city<'Chicago'":   true,
		"tag.location.city>='boston'":   false,
		"tag.location.city=='Boston'":   true,
		"tag.location.city!='Boston'":   false,
		"tag.image_size.width!=None":    false,
		"tag.location.has_lat_lon==true": false,
	} {
		assert.Equal(t, want, compile(t, ctx, src).Eval(r), src)
	}
}

func TestTypeErrors(t *testing.T) {
	ctx := newContext(t)
	cases := []struct {
		src string
		msg string
	}{
		{"tag.favorite>true", `type error: operator ">" cannot be applied to bool field "favorite"`},
		{"tag.datetime.year>=None", `type error: operator ">=" cannot be used with None (field "datetime.year")`},
		{"tag.datetime.year=='2020'", `type error: field "datetime.year" is int but the literal is string`},
		{"tag.location.city==3", `type error: field "location.city" is string but the literal is int`},
		{"tag.favorite==1", `type error: field "favorite" is bool but the literal is int`},
	}
	for _, c := range cases {
		err := compileErr(ctx, c.src)
		var terr *expr.TypeError
		require.ErrorAs(t, err, &terr, c.src)
		assert.EqualError(t, err, c.msg)
	}
}

func TestUnknownField(t *testing.T) {
	ctx := newContext(t, "person.alice")
	err := compileErr(ctx, "tag.favourite>1")
	var ferr *expr.UnknownFieldError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "favorite", ferr.Suggestion)
	assert.EqualError(t, err, `unknown field "favourite" (did you mean "favorite"?)`)

	err = compileErr(ctx, "tag.person==None")
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "person", ferr.Field)
	assert.Equal(t, "", ferr.Suggestion)

	// An error anywhere fails the whole query.
	err = compileErr(ctx, "tag.person.alice || tag.rating>3")
	require.ErrorAs(t, err, &ferr)
}

type counter struct {
	n      int
	result bool
}

func (c *counter) Eval(*schema.Record) bool {
	c.n++
	return c.result
}

func TestShortCircuit(t *testing.T) {
	r := tagged()
	rhs := &counter{}
	assert.False(t, expr.NewLogicalAnd(&counter{result: false}, rhs).Eval(r))
	assert.Equal(t, 0, rhs.n)
	assert.True(t, expr.NewLogicalOr(&counter{result: true}, rhs).Eval(r))
	assert.Equal(t, 0, rhs.n)
	assert.True(t, expr.NewLogicalAnd(&counter{result: true}, &counter{result: true}).Eval(r))
	expr.NewLogicalOr(&counter{result: false}, rhs).Eval(r)
	assert.Equal(t, 1, rhs.n)
}

func TestMatchTag(t *testing.T) {
	tags := schema.NewTagSet("a.b.c")
	assert.True(t, expr.MatchTag(tags, "a", "self"))
	assert.True(t, expr.MatchTag(tags, "a.b", "descendants"))
	assert.False(t, expr.MatchTag(tags, "a.b.c", "descendants"))
	assert.True(t, expr.MatchTag(tags, "a.b.c", "self"))
	assert.False(t, expr.MatchTag(tags, "a.b", ""))
}
