package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []Op {
	return []Op{
		{Seq: 1, Pass: 1, Kind: KindInsert, Parent: 0, Index: 0, Node: 1, Value: "column"},
		{Seq: 2, Pass: 1, Kind: KindInsert, Parent: 1, Index: 0, Node: 2, Value: "count=0"},
		{Seq: 3, Pass: 2, Kind: KindUpdate, Node: 2, Value: "count=1"},
	}
}

func TestMarshalCanonical_SortedKeysNoWhitespace(t *testing.T) {
	data, err := MarshalCanonical(sample()[2:])
	require.NoError(t, err)
	assert.Equal(t,
		`[{"count":0,"index":0,"kind":"update","node":2,"parent":0,"pass":2,"seq":3,"to":0,"value":"count=1"}]`,
		string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical([]Op{{Kind: KindUpdate, Value: "<b>&</b>"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":"<b>&</b>"`)
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	composed := []Op{{Kind: KindUpdate, Value: "caf\u00e9"}}
	decomposed := []Op{{Kind: KindUpdate, Value: "cafe\u0301"}}

	assert.Equal(t, MustHash(composed), MustHash(decomposed))
}

func TestMarshalCanonical_RejectsUnknownKind(t *testing.T) {
	_, err := MarshalCanonical([]Op{{Kind: "teleport"}})
	assert.ErrorContains(t, err, "unknown op kind")
}

func TestHash_StableAndSensitive(t *testing.T) {
	a := MustHash(sample())
	assert.Equal(t, a, MustHash(sample()))
	assert.Len(t, a, 64)

	changed := sample()
	changed[2].Value = "count=2"
	assert.NotEqual(t, a, MustHash(changed))
}

func TestHash_EmptyTrace(t *testing.T) {
	h, err := Hash(nil)
	require.NoError(t, err)
	assert.Equal(t, hashWithDomain(DomainTrace, []byte("[]")), h)
}

func TestCountAndInPass(t *testing.T) {
	ops := sample()
	assert.Equal(t, 2, Count(ops, KindInsert, -1))
	assert.Equal(t, 0, Count(ops, KindInsert, 2))
	assert.Equal(t, 1, Count(ops, KindUpdate, 2))
	assert.Len(t, InPass(ops, 1), 2)
	assert.Empty(t, InPass(ops, 9))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())
	assert.Equal(t, 2, s.Passes)
	assert.Equal(t, 3, s.Ops)
	assert.Equal(t, "3 ops in 2 passes (insert=2, update=1)", s.String())
}

func TestText(t *testing.T) {
	want := "# pass 1\n" +
		"insert parent=0 index=0 node=1 value=\"column\"\n" +
		"insert parent=1 index=0 node=2 value=\"count=0\"\n" +
		"# pass 2\n" +
		"update node=2 value=\"count=1\"\n"
	assert.Equal(t, want, Text(sample()))
}
