package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/consts"
)

func parseOK(t *testing.T, src string) *ast.Script {
	t.Helper()
	script, err := Parse(strings.NewReader(src), nil)
	require.NoError(t, err)
	require.NotNil(t, script)
	return script
}

func TestParseFullScriptRoundTrip(t *testing.T) {
	src := `require ["fileinto"];
if header :contains "Subject" "invoice" {
	fileinto "Invoices";
} else {
	keep;
}
`
	script := parseOK(t, src)
	require.Len(t, script.Commands, 1)
	ifCmd, ok := script.Commands[0].(ast.If)
	require.True(t, ok)
	header, ok := ifCmd.Test.(ast.Header)
	require.True(t, ok)
	assert.Equal(t, ast.MatchContains, header.Match)
	assert.Equal(t, []string{"Subject"}, header.Headers)
	require.Len(t, ifCmd.Then, 1)
	assert.IsType(t, ast.FileInto{}, ifCmd.Then[0])
	require.Len(t, ifCmd.Else, 1)
	assert.IsType(t, ast.Keep{}, ifCmd.Else[0])
}

func TestParseElsifDesugarsToNestedIf(t *testing.T) {
	src := `require ["fileinto"];
if header :is "Subject" "a" {
	discard;
} elsif header :is "Subject" "b" {
	fileinto "B";
} else {
	keep;
}
`
	script := parseOK(t, src)
	top := script.Commands[0].(ast.If)
	require.Len(t, top.Else, 1)
	nested, ok := top.Else[0].(ast.If)
	require.True(t, ok)
	require.Len(t, nested.Then, 1)
	assert.IsType(t, ast.FileInto{}, nested.Then[0])
}

func TestParseRejectsUnknownExtensionUse(t *testing.T) {
	src := `fileinto "Junk";
`
	var got []string
	_, err := Parse(strings.NewReader(src), func(line int, msg string) {
		got = append(got, msg)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, consts.ErrParseError)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], `require ["fileinto"]`)
}

func TestParseAccumulatesMultipleErrors(t *testing.T) {
	src := `fileinto "Junk";
redirect "not-an-address";
`
	var got []string
	_, err := Parse(strings.NewReader(src), func(line int, msg string) {
		got = append(got, msg)
	})
	require.Error(t, err)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Contains(t, err.Error(), "and 1 more")
}

func TestParseRedirectRejectsMalformedAddress(t *testing.T) {
	src := `redirect "totally not an address";
`
	var got []string
	_, err := Parse(strings.NewReader(src), func(line int, msg string) {
		got = append(got, msg)
	})
	require.Error(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "redirect:")
}

func TestParseRedirectAcceptsDisplayNameAddress(t *testing.T) {
	src := `redirect "Jane Doe <jane@example.com>";
`
	script := parseOK(t, src)
	require.Len(t, script.Commands, 1)
	r := script.Commands[0].(ast.Redirect)
	assert.Equal(t, "Jane Doe <jane@example.com>", r.Address)
}

func TestParseAnyOfAllOfTestLists(t *testing.T) {
	src := `if anyof (true, false) {
	stop;
}
`
	script := parseOK(t, src)
	ifCmd := script.Commands[0].(ast.If)
	anyOf, ok := ifCmd.Test.(ast.AnyOf)
	require.True(t, ok)
	require.Len(t, anyOf.Tests, 2)
	assert.IsType(t, ast.True{}, anyOf.Tests[0])
	assert.IsType(t, ast.False{}, anyOf.Tests[1])
}

func TestParseSizeTestRequiresOverOrUnderTag(t *testing.T) {
	src := `if size 100 {
	stop;
}
`
	var got []string
	_, err := Parse(strings.NewReader(src), func(line int, msg string) {
		got = append(got, msg)
	})
	require.Error(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "missing :over or :under")
}

func TestParseRegexTestRequiresExtension(t *testing.T) {
	src := `if header :regex "Subject" "inv.*" {
	stop;
}
`
	var got []string
	_, err := Parse(strings.NewReader(src), func(line int, msg string) {
		got = append(got, msg)
	})
	require.Error(t, err)
	found := false
	for _, m := range got {
		if strings.Contains(m, `"regex"`) {
			found = true
		}
	}
	assert.True(t, found, "expected a missing-regex-extension diagnostic, got %v", got)
}

func TestParseRequireMustPrecedeOtherCommands(t *testing.T) {
	src := `stop;
require ["fileinto"];
`
	var got []string
	_, err := Parse(strings.NewReader(src), func(line int, msg string) {
		got = append(got, msg)
	})
	require.Error(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "require must appear before any other command")
}

func TestParseVacationClampsDaysToConfiguredBounds(t *testing.T) {
	src := `require ["vacation"];
vacation :days 90 "out of office";
`
	script, err := ParseWithOptions(strings.NewReader(src), nil, Options{
		VacationMinDays: 2,
		VacationMaxDays: 10,
	})
	require.NoError(t, err)
	vac := script.Commands[0].(ast.Vacation)
	assert.Equal(t, int64(10), vac.Days)
}

func TestParseVacationDefaultOptionsUseConstsBounds(t *testing.T) {
	src := `require ["vacation"];
vacation :days 90 "out of office";
`
	script := parseOK(t, src)
	vac := script.Commands[0].(ast.Vacation)
	assert.Equal(t, int64(consts.VacationMaxDays), vac.Days)
}

func TestParseAdvertisedExtensionsRestrictsRequire(t *testing.T) {
	src := `require ["fileinto"];
fileinto "Junk";
`
	var got []string
	_, err := ParseWithOptions(strings.NewReader(src), func(line int, msg string) {
		got = append(got, msg)
	}, Options{AdvertisedExtensions: []string{"reject"}})
	require.Error(t, err)
	found := false
	for _, m := range got {
		if strings.Contains(m, "unsupported extension") {
			found = true
		}
	}
	assert.True(t, found, "expected an unsupported-extension diagnostic, got %v", got)
}

func TestParseComparatorAsciiNumericRequiresExtension(t *testing.T) {
	src := `if header :comparator "i;ascii-numeric" :contains "Subject" "1" {
	stop;
}
`
	var got []string
	_, err := Parse(strings.NewReader(src), func(line int, msg string) {
		got = append(got, msg)
	})
	require.Error(t, err)
	found := false
	for _, m := range got {
		if strings.Contains(m, `"i;ascii-numeric"`) {
			found = true
		}
	}
	assert.True(t, found, "expected a missing-comparator-extension diagnostic, got %v", got)
}

func TestParseComparatorAsciiNumericAcceptedWithExtension(t *testing.T) {
	src := `require ["i;ascii-numeric"];
if header :comparator "i;ascii-numeric" :contains "Subject" "1" {
	stop;
}
`
	parseOK(t, src)
}
