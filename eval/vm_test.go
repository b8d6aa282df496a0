package eval

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/bytecode"
)

func compileOrFail(t *testing.T, script *ast.Script) *bytecode.Bytecode {
	t.Helper()
	bc, err := bytecode.Compile(script)
	require.NoError(t, err)
	return bc
}

func TestEvaluateFileIntoOnSubjectMatch(t *testing.T) {
	script := &ast.Script{
		Commands: []ast.Command{
			ast.If{
				Test: ast.Header{
					Match:    ast.MatchContains,
					Headers:  []string{"Subject"},
					Patterns: []string{"invoice"},
				},
				Then: []ast.Command{ast.FileInto{Mailbox: "Invoices"}},
			},
			ast.Stop{},
		},
	}
	bc := compileOrFail(t, script)
	host := newStubHost()
	host.headers["Subject"] = []string{"Your March invoice"}

	out, err := Evaluate(context.Background(), bc, host, bytecode.NewIncludeCache())
	require.NoError(t, err)
	require.Len(t, out.Actions, 1)
	assert.Equal(t, ActFileInto, out.Actions[0].Kind)
	assert.Equal(t, "Invoices", out.Actions[0].Mailbox)
	assert.Nil(t, out.RunErr)
}

func TestEvaluateImplicitKeepWhenNoActionTaken(t *testing.T) {
	script := &ast.Script{Commands: []ast.Command{ast.Stop{}}}
	bc := compileOrFail(t, script)
	host := newStubHost()

	out, err := Evaluate(context.Background(), bc, host, bytecode.NewIncludeCache())
	require.NoError(t, err)
	assert.Empty(t, out.Actions)

	log := Apply(context.Background(), host, out)
	assert.Contains(t, log, "keep")
}

func TestEvaluateRejectConflictsWithFileIntoProducesRunError(t *testing.T) {
	script := &ast.Script{
		Commands: []ast.Command{
			ast.Reject{Message: "spam"},
			ast.FileInto{Mailbox: "Junk"},
		},
	}
	bc := compileOrFail(t, script)
	host := newStubHost()

	out, err := Evaluate(context.Background(), bc, host, bytecode.NewIncludeCache())
	require.NoError(t, err)
	require.Error(t, out.RunErr)

	log := Apply(context.Background(), host, out)
	assert.Equal(t, "keep\n", log)
	assert.NotContains(t, host.recorded, "reject:spam")
	assert.NotContains(t, host.recorded, "fileinto:Junk")
}

func TestEvaluateAnyOfShortCircuitsRemainingTests(t *testing.T) {
	script := &ast.Script{
		Commands: []ast.Command{
			ast.If{
				Test: ast.AnyOf{Tests: []ast.Test{
					ast.True{},
					ast.Header{Match: ast.MatchContains, Headers: []string{"X-Never-Checked"}, Patterns: []string{"x"}},
				}},
				Then: []ast.Command{ast.Discard{}},
			},
		},
	}
	bc := compileOrFail(t, script)
	host := new(MockHost)

	out, err := Evaluate(context.Background(), bc, host, bytecode.NewIncludeCache())
	require.NoError(t, err)
	require.Len(t, out.Actions, 1)
	assert.Equal(t, ActDiscard, out.Actions[0].Kind)
	host.AssertNotCalled(t, "GetHeader", mock.Anything, mock.Anything)
}

func TestEvaluateVacationSuppressedOnSecondRun(t *testing.T) {
	script := &ast.Script{
		Commands: []ast.Command{
			ast.Vacation{Message: "I'm out", Days: 7},
		},
	}
	bc := compileOrFail(t, script)
	host := newStubHost()
	host.headers["From"] = []string{"sender@example.com"}

	out1, err := Evaluate(context.Background(), bc, host, bytecode.NewIncludeCache())
	require.NoError(t, err)
	Apply(context.Background(), host, out1)
	assert.Contains(t, host.recorded, "vacation:sender@example.com")

	host.recorded = nil
	out2, err := Evaluate(context.Background(), bc, host, bytecode.NewIncludeCache())
	require.NoError(t, err)
	Apply(context.Background(), host, out2)
	assert.NotContains(t, host.recorded, "vacation:sender@example.com")
}

func TestEvaluateIncludeCycleAborts(t *testing.T) {
	dir := t.TempDir()
	innerPath := dir + "/inner.sievebc"
	outerPath := dir + "/outer.sievebc"

	inner := &ast.Script{Commands: []ast.Command{ast.Include{Path: "outer"}}}
	writeBytecodeFile(t, innerPath, inner)

	outer := &ast.Script{Commands: []ast.Command{ast.Include{Path: "inner"}}}
	outerBC := writeBytecodeFile(t, outerPath, outer)

	host := newStubHost()
	host.includes["inner"] = innerPath
	host.includes["outer"] = outerPath

	out, err := Evaluate(context.Background(), outerBC, host, bytecode.NewIncludeCache())
	require.NoError(t, err)
	require.Error(t, out.RunErr)
}

func writeBytecodeFile(t *testing.T, path string, script *ast.Script) *bytecode.Bytecode {
	t.Helper()
	bc := compileOrFail(t, script)
	require.NoError(t, os.WriteFile(path, bc.Raw(), 0o600))
	return bc
}
