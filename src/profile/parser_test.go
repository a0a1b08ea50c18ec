package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicProfile(t *testing.T) {
	sels := Parse("%proc.name %proc.cmdline %fd.name")
	require.Len(t, sels, 3)
	assert.Equal(t, FieldProcName, sels[0].ID)
	assert.Equal(t, FieldProcCmdline, sels[1].ID)
	assert.Equal(t, FieldFdName, sels[2].ID)
}

func TestParseLiteralToken(t *testing.T) {
	sels := Parse("prefix-- %proc.name")
	require.Len(t, sels, 2)
	assert.True(t, sels[0].IsLiteral())
	assert.Equal(t, "prefix--", sels[0].Literal)
	assert.False(t, sels[1].IsLiteral())
}

func TestParseAncestorIndex(t *testing.T) {
	sels := Parse("%proc.aname[2]")
	require.Len(t, sels, 1)
	require.NotNil(t, sels[0].ArgID)
	assert.Equal(t, uint32(2), *sels[0].ArgID)
}

func TestParseAncestorIndexZeroMeansSelf(t *testing.T) {
	sels := Parse("%proc.aname[0]")
	require.Len(t, sels, 1)
	require.NotNil(t, sels[0].ArgID)
	assert.Equal(t, uint32(0), *sels[0].ArgID)
}

func TestParseNamedArg(t *testing.T) {
	sels := Parse("%proc.env[PATH]")
	require.Len(t, sels, 1)
	require.NotNil(t, sels[0].ArgName)
	assert.Equal(t, "PATH", *sels[0].ArgName)
}

func TestParseUnknownTokenDropped(t *testing.T) {
	sels := Parse("%proc.name %bogus.field %proc.exe")
	require.Len(t, sels, 2)
	assert.Equal(t, FieldProcName, sels[0].ID)
	assert.Equal(t, FieldProcExe, sels[1].ID)
}

func TestParseBadIndexDropped(t *testing.T) {
	sels := Parse("%proc.aname[notanumber]")
	assert.Empty(t, sels)
}

func TestParseArgOnSelectorThatDoesNotAcceptOneDropped(t *testing.T) {
	sels := Parse("%proc.name[0]")
	assert.Empty(t, sels)
}

func TestContainsFdSelector(t *testing.T) {
	assert.True(t, ContainsFdSelector(Parse("%proc.name %fd.name")))
	assert.False(t, ContainsFdSelector(Parse("%proc.name %proc.exe")))
}

func TestJoinRoundTrip(t *testing.T) {
	orig := "%proc.name %proc.aname[2] %proc.env[PATH] literal-tok"
	sels := Parse(orig)
	assert.Equal(t, orig, Join(sels))
}
