package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

func TestNew_NoFieldsSpecified(t *testing.T) {
	f := New()
	assert.Empty(t, f.Fields)
	assert.NotNil(t, f.Fields)
	assert.Empty(t, f.ExcludeFields)
	assert.NotNil(t, f.ExcludeFields)
	assert.True(t, f.Empty())
}

func TestEmpty_NilFilter(t *testing.T) {
	var f *PropertyFilter
	assert.True(t, f.Empty())
	assert.True(t, f.ShouldSerialize("Movie", "Id"))
}

func TestEmpty_AllowsEverything(t *testing.T) {
	f := New()
	for _, prop := range []string{"Id", "Title", "", "*"} {
		assert.True(t, f.ShouldSerialize("Movie", prop), "prop=%q", prop)
	}
}

// ---------------------------------------------------------------------------
// Include list
// ---------------------------------------------------------------------------

func TestShouldSerialize_IncludeExact(t *testing.T) {
	f := New().AddInclude("Movie.Id")

	assert.True(t, f.ShouldSerialize("Movie", "Id"))
	assert.False(t, f.ShouldSerialize("Movie", "Title"))
	assert.False(t, f.ShouldSerialize("Director", "Id"))
}

func TestShouldSerialize_IncludeIsNotCaseSensitive(t *testing.T) {
	for _, spec := range []string{"Movie.Id", "MOVIE.Id", "MOVIE.ID", "movie.id"} {
		t.Run(spec, func(t *testing.T) {
			f := New().AddInclude(spec)
			assert.True(t, f.ShouldSerialize("Movie", "Id"))
			assert.False(t, f.ShouldSerialize("Movie", "Title"))
		})
	}
}

func TestShouldSerialize_IncludeWildcard(t *testing.T) {
	f := New().AddInclude("Movie.*")

	for _, prop := range []string{"Id", "Title", "Year", "Director"} {
		assert.True(t, f.ShouldSerialize("Movie", prop), "prop=%s", prop)
	}

	assert.False(t, f.ShouldSerialize("Director", "Name"))
}

func TestShouldSerialize_IncludeWildcardTwoLevels(t *testing.T) {
	f := New().AddInclude("Movie.*", "Director.*")

	assert.True(t, f.ShouldSerialize("Movie", "Director"))
	assert.True(t, f.ShouldSerialize("Director", "Name"))
	assert.False(t, f.ShouldSerialize("Studio", "Name"))
}

func TestShouldSerialize_DirectListMutation(t *testing.T) {
	f := New()
	assert.True(t, f.ShouldSerialize("Movie", "Title"))

	f.Fields = append(f.Fields, "Movie.Id")
	assert.False(t, f.ShouldSerialize("Movie", "Title"))

	f.Fields = f.Fields[:0]
	assert.True(t, f.ShouldSerialize("Movie", "Title"))
}

// ---------------------------------------------------------------------------
// Exclude list
// ---------------------------------------------------------------------------

func TestShouldSerialize_ExcludeExact(t *testing.T) {
	f := New().AddExclude("Movie.Id", "Movie.Title")

	assert.False(t, f.ShouldSerialize("Movie", "Id"))
	assert.False(t, f.ShouldSerialize("Movie", "Title"))
	assert.True(t, f.ShouldSerialize("Movie", "Year"))
	assert.True(t, f.ShouldSerialize("Director", "Id"))
}

func TestShouldSerialize_ExcludeIsNotCaseSensitive(t *testing.T) {
	for _, spec := range []string{"Movie.Id", "MOVIE.Id", "MOVIE.ID", "movie.id"} {
		t.Run(spec, func(t *testing.T) {
			f := New().AddExclude(spec)
			assert.False(t, f.ShouldSerialize("Movie", "Id"))
			assert.True(t, f.ShouldSerialize("Movie", "Title"))
		})
	}
}

func TestShouldSerialize_ExcludeWildcard(t *testing.T) {
	f := New().AddExclude("Movie.*")

	for _, prop := range []string{"Id", "Title", "Year", "Director"} {
		assert.False(t, f.ShouldSerialize("Movie", prop), "prop=%s", prop)
	}

	assert.True(t, f.ShouldSerialize("Director", "Name"))
}

// ---------------------------------------------------------------------------
// Combined lists
// ---------------------------------------------------------------------------

func TestShouldSerialize_ExclusionWinsOverInclusion(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
	}{
		{"exact both", []string{"Movie.Director"}, []string{"Movie.Director"}},
		{"include wildcard, exclude exact", []string{"Movie.*"}, []string{"Movie.Director"}},
		{"include exact, exclude wildcard", []string{"Movie.Director"}, []string{"Movie.*"}},
		{"case differs", []string{"movie.director"}, []string{"MOVIE.DIRECTOR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New().AddInclude(tt.include...).AddExclude(tt.exclude...)
			assert.False(t, f.ShouldSerialize("Movie", "Director"))
		})
	}
}

func TestShouldSerialize_IncludeCheckedIndependentlyOfExclude(t *testing.T) {
	f := New().AddInclude("Movie.Id").AddExclude("Director.Name")

	assert.True(t, f.ShouldSerialize("Movie", "Id"))
	assert.False(t, f.ShouldSerialize("Movie", "Title"), "not included")
	assert.False(t, f.ShouldSerialize("Director", "Age"), "not included")
	assert.False(t, f.ShouldSerialize("Director", "Name"), "excluded")
}

// ---------------------------------------------------------------------------
// Malformed specifiers are inert
// ---------------------------------------------------------------------------

func TestShouldSerialize_MalformedSpecifiersNeverMatch(t *testing.T) {
	for _, spec := range []string{"", "Movie", "Movie.Director.Name", ".Id", "*.Id", "Movie."} {
		t.Run(spec, func(t *testing.T) {
			f := New().AddExclude(spec)
			assert.True(t, f.ShouldSerialize("Movie", "Id"))
			assert.True(t, f.ShouldSerialize("Director", "Name"))
		})
	}
}

func TestShouldSerialize_MalformedIncludeStillRestricts(t *testing.T) {
	f := New().AddInclude("Movie")
	assert.False(t, f.ShouldSerialize("Movie", "Id"))
}

func TestShouldSerialize_TotalOverEmptyStrings(t *testing.T) {
	assert.True(t, ShouldSerialize("", "", nil, nil))
	assert.True(t, ShouldSerialize("", "", []string{"."}, nil))
	assert.False(t, ShouldSerialize("", "", nil, []string{".*"}))
}

// ---------------------------------------------------------------------------
// Pure function / adapters
// ---------------------------------------------------------------------------

func TestShouldSerialize_PureFunctionMatchesMethod(t *testing.T) {
	include := []string{"Movie.*", "Director.Name"}
	exclude := []string{"Movie.Year"}
	f := &PropertyFilter{Fields: include, ExcludeFields: exclude}

	for _, tc := range [][2]string{
		{"Movie", "Id"}, {"Movie", "Year"}, {"Director", "Name"}, {"Director", "Age"},
	} {
		assert.Equal(t, ShouldSerialize(tc[0], tc[1], include, exclude), f.ShouldSerialize(tc[0], tc[1]))
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "Movie.Id", Key("Movie", "Id"))
	assert.Equal(t, "Movie.*", WildcardKey("Movie"))
}

func TestFunc(t *testing.T) {
	var p Predicate = Func(func(typ, prop string) bool { return prop != "Secret" })
	assert.True(t, p.ShouldSerialize("User", "Name"))
	assert.False(t, p.ShouldSerialize("User", "Secret"))
	assert.False(t, IsEmpty(p))
}

func TestIsEmpty(t *testing.T) {
	var nilFilter *PropertyFilter

	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(nilFilter))
	assert.True(t, IsEmpty(New()))
	assert.False(t, IsEmpty(New().AddExclude("Movie.Id")))
}

func TestClone_IsIndependent(t *testing.T) {
	f := New().AddInclude("Movie.Id")
	c := f.Clone()

	f.AddInclude("Movie.Title")
	c.AddExclude("Movie.Id")

	assert.Equal(t, []string{"Movie.Id", "Movie.Title"}, f.Fields)
	assert.Empty(t, f.ExcludeFields)
	assert.Equal(t, []string{"Movie.Id"}, c.Fields)
	assert.Equal(t, []string{"Movie.Id"}, c.ExcludeFields)
}

// ---------------------------------------------------------------------------
// Explain
// ---------------------------------------------------------------------------

func TestExplain(t *testing.T) {
	tests := []struct {
		name    string
		filter  *PropertyFilter
		typ     string
		prop    string
		keep    bool
		reason  string
		matched string
	}{
		{"empty", New(), "Movie", "Id", true, "no property filters configured", ""},
		{"included exact", New().AddInclude("movie.id"), "Movie", "Id", true, `included by "movie.id"`, "movie.id"},
		{"included wildcard", New().AddInclude("Movie.*"), "Movie", "Id", true, `included by "Movie.*"`, "Movie.*"},
		{"not included", New().AddInclude("Movie.Title"), "Movie", "Id", false, "not matched by any include specifier", ""},
		{"excluded", New().AddExclude("Movie.Id"), "Movie", "Id", false, `excluded by "Movie.Id"`, "Movie.Id"},
		{"not excluded", New().AddExclude("Movie.Title"), "Movie", "Id", true, "not matched by any exclude specifier", ""},
		{"both", New().AddInclude("Movie.Id").AddExclude("Movie.*"), "Movie", "Id", false, `excluded by "Movie.*"`, "Movie.*"},
		{"included, other excluded", New().AddInclude("Movie.Id").AddExclude("Movie.Title"), "Movie", "Id", true, `included by "Movie.Id"`, "Movie.Id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.filter.Explain(tt.typ, tt.prop)
			assert.Equal(t, tt.keep, d.Serialize)
			assert.Contains(t, d.Reason, tt.reason)
			assert.Equal(t, tt.matched, d.Matched)
			assert.Equal(t, tt.filter.ShouldSerialize(tt.typ, tt.prop), d.Serialize)
		})
	}
}

// ---------------------------------------------------------------------------
// Specifiers
// ---------------------------------------------------------------------------

func TestParseSpecifier(t *testing.T) {
	s, err := ParseSpecifier("Movie.Id")
	require.NoError(t, err)
	assert.Equal(t, Specifier{TypeName: "Movie", Property: "Id"}, s)
	assert.False(t, s.IsWildcard())
	assert.Equal(t, "Movie.Id", s.String())

	w, err := ParseSpecifier("Director.*")
	require.NoError(t, err)
	assert.True(t, w.IsWildcard())
}

func TestParseSpecifier_Invalid(t *testing.T) {
	tests := []struct {
		in  string
		msg string
	}{
		{"Movie", "missing"},
		{"Movie.Director.Name", "nested paths"},
		{".Id", "empty type"},
		{"Movie.", "empty property"},
		{"*.Name", "wildcards are only allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseSpecifier(tt.in)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestLint(t *testing.T) {
	f := New().AddInclude("Movie.Id", "Movie").AddExclude("*.Name", "Director.Age")

	issues := f.Lint()
	require.Len(t, issues, 2)
	assert.Equal(t, "fields", issues[0].List)
	assert.Equal(t, "Movie", issues[0].Specifier)
	assert.Equal(t, "exclude-fields", issues[1].List)
	assert.Equal(t, "*.Name", issues[1].Specifier)
	assert.Contains(t, issues[1].String(), "exclude-fields:")
}
