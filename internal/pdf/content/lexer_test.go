package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Operations(t *testing.T) {
	src := []byte("% header comment\n/F1 12 Tf\n(a\\)b\\101) Tj <41 42 4> Tj [1 (x) -2.5] TJ\n<< /MCID 3 >> BDC EMC q Q")

	ops, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, ops, 8)

	assert.Equal(t, "Tf", ops[0].Operator)
	assert.Equal(t, []Object{Name("F1"), Number(12)}, ops[0].Operands)

	assert.Equal(t, "Tj", ops[1].Operator)
	assert.Equal(t, String("a)bA"), ops[1].Operands[0])

	assert.Equal(t, String([]byte{0x41, 0x42, 0x40}), ops[2].Operands[0])

	assert.Equal(t, "TJ", ops[3].Operator)
	assert.Equal(t, Array{Number(1), String("x"), Number(-2.5)}, ops[3].Operands[0])

	assert.Equal(t, "BDC", ops[4].Operator)
	assert.Equal(t, Dict{"MCID": Number(3)}, ops[4].Operands[0])

	assert.Equal(t, "EMC", ops[5].Operator)
	assert.Empty(t, ops[5].Operands)
	assert.Equal(t, "q", ops[6].Operator)
	assert.Equal(t, "Q", ops[7].Operator)
}

func TestParse_NameEscapesAndKeywords(t *testing.T) {
	ops, err := Parse([]byte("/A#20B true false null gs"))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, []Object{Name("A B"), Bool(true), Bool(false), Null{}}, ops[0].Operands)
}

func TestParse_InlineImage(t *testing.T) {
	src := []byte("q BI /W 2 /H 1 /BPC 8 /CS /G ID \x00\xffEI\x01 EI Q 0 0 5 5 re f")

	ops, err := Parse(src)
	require.NoError(t, err)

	var names []string
	for _, op := range ops {
		names = append(names, op.Operator)
	}
	assert.Equal(t, []string{"q", "BI", "Q", "re", "f"}, names)
	assert.Equal(t, Number(2), ops[1].Operands[0].(Dict)["W"])
}

func TestParse_Unterminated(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"literal string", "(never closed Tj"},
		{"hex string", "<4142 Tj"},
		{"array", "[(a) (b) TJ"},
		{"dictionary", "<< /A 1 BDC"},
		{"inline image", "BI /W 1 ID \x00\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnterminated)
		})
	}
}

func TestParse_MalformedNumberReadsAsZero(t *testing.T) {
	ops, err := Parse([]byte("--3 w"))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, []Object{Number(0)}, ops[0].Operands)
}
