package keyspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog_crawler/internal/daterium/internal/models"
)

type fakeNames struct {
	brands   []string
	families []string
	err      error
}

func (f fakeNames) BrandNames(context.Context) ([]string, error)  { return f.brands, f.err }
func (f fakeNames) FamilyNames(context.Context) ([]string, error) { return f.families, f.err }

func collect(seq Sequence, start, size int) ([]string, []int) {
	var terms []string
	var starts []int
	for chunk := range Chunks(seq, start, size) {
		starts = append(starts, chunk.Start)
		terms = append(terms, chunk.Terms...)
	}
	return terms, starts
}

func TestNgrams_Bigram(t *testing.T) {
	seq := NewNgrams(Alphabet, 1, 2)
	require.Equal(t, 26+26*26, seq.Len())
	assert.Equal(t, "a", seq.At(0))
	assert.Equal(t, "z", seq.At(25))
	assert.Equal(t, "aa", seq.At(26))
	assert.Equal(t, "ab", seq.At(27))
	assert.Equal(t, "zz", seq.At(seq.Len()-1))
	assert.Equal(t, "", seq.At(seq.Len()))

	for i := 0; i < seq.Len(); i++ {
		require.Equal(t, i, seq.IndexOf(seq.At(i)))
	}
	assert.Equal(t, -1, seq.IndexOf("abc"))
	assert.Equal(t, -1, seq.IndexOf("A"))
	assert.Equal(t, -1, seq.IndexOf(""))
}

func TestNgrams_Trigram(t *testing.T) {
	seq := NewNgrams(Alphabet, 3, 3)
	require.Equal(t, 17576, seq.Len())
	assert.Equal(t, "aaa", seq.At(0))
	assert.Equal(t, "aab", seq.At(1))
	assert.Equal(t, "aba", seq.At(26))
	assert.Equal(t, "zzz", seq.At(17575))
	assert.Equal(t, 17575, seq.IndexOf("zzz"))
	assert.Equal(t, 26*26*1+26*2+3, seq.IndexOf("bcd"))
}

func TestDigits(t *testing.T) {
	seq := NewDigits(100)
	assert.Equal(t, 100, seq.Len())
	assert.Equal(t, "0", seq.At(0))
	assert.Equal(t, "99", seq.At(99))
	assert.Equal(t, 42, seq.IndexOf("42"))
	assert.Equal(t, -1, seq.IndexOf("042"))
	assert.Equal(t, -1, seq.IndexOf("100"))
	assert.Equal(t, -1, seq.IndexOf("x"))
}

func TestSlice_DedupKeepsOrder(t *testing.T) {
	seq := NewSlice([]string{"bosch", " ", "makita", "bosch", "tivoly"})
	terms, _ := collect(seq, 0, 10)
	assert.Equal(t, []string{"bosch", "makita", "tivoly"}, terms)
	assert.Equal(t, 1, seq.IndexOf("makita"))
	assert.Equal(t, -1, seq.IndexOf("ruko"))
}

func TestResume_SkipsThroughCursor(t *testing.T) {
	seq := NewSlice([]string{"a", "b", "c", "d"})

	start, resumed := Resume(seq, "b", true)
	assert.True(t, resumed)
	terms, _ := collect(seq, start, 2)
	assert.Equal(t, []string{"c", "d"}, terms)
}

func TestResume_StaleCursorRestarts(t *testing.T) {
	seq := NewSlice([]string{"a", "b", "c", "d"})

	start, resumed := Resume(seq, "gone", true)
	assert.False(t, resumed)
	assert.Equal(t, 0, start)

	start, resumed = Resume(seq, "", false)
	assert.False(t, resumed)
	assert.Equal(t, 0, start)
}

func TestResume_FinishedSweepStartsOver(t *testing.T) {
	seq := NewSlice([]string{"a", "b"})
	start, resumed := Resume(seq, "b", true)
	assert.False(t, resumed)
	terms, _ := collect(seq, start, 5)
	assert.Equal(t, []string{"a", "b"}, terms)
}

func TestChunks_BoundedBatches(t *testing.T) {
	seq := NewNgrams(Alphabet, 1, 1)
	_, starts := collect(seq, 3, 10)
	assert.Equal(t, []int{3, 13, 23}, starts)

	count := 0
	for chunk := range Chunks(NewNgrams(Alphabet, 3, 3), 0, 50) {
		assert.LessOrEqual(t, len(chunk.Terms), 50)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestGenerator_Keys(t *testing.T) {
	g := NewGenerator(fakeNames{brands: []string{"Bosch", "Tivoly"}}, 0)
	ctx := context.Background()

	seq, err := g.Keys(ctx, models.DigitRange)
	require.NoError(t, err)
	assert.Equal(t, DefaultDigitUpper, seq.Len())

	seq, err = g.Keys(ctx, models.BrandName)
	require.NoError(t, err)
	assert.Equal(t, 2, seq.Len())

	seq, err = g.Keys(ctx, models.FamilyName)
	require.NoError(t, err)
	assert.Equal(t, 0, seq.Len())

	seq, err = g.Keys(ctx, models.ToolTerm)
	require.NoError(t, err)
	assert.Equal(t, "taladro", seq.At(0))
	assert.Equal(t, "taladro metal", seq.At(1))

	_, err = g.Keys(ctx, models.Strategy("bogus"))
	assert.Error(t, err)
}

func TestGenerator_NameReaderError(t *testing.T) {
	g := NewGenerator(fakeNames{err: errors.New("db down")}, 10)
	_, err := g.Keys(context.Background(), models.BrandName)
	assert.ErrorContains(t, err, "db down")
}
