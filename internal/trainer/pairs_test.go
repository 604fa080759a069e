package trainer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withSmallShards lets tiny test vocabularies exercise the parallel paths.
func withSmallShards(t testing.TB) {
	t.Helper()
	prev := minShard
	minShard = 1
	t.Cleanup(func() { minShard = prev })
}

func TestShards(t *testing.T) {
	withSmallShards(t)

	assert.Equal(t, []shard{{0, 0}}, shards(0, 4))
	assert.Equal(t, []shard{{0, 10}}, shards(10, 1))
	assert.Equal(t, []shard{{0, 10}}, shards(10, 0))
	assert.Equal(t, []shard{{0, 5}, {5, 10}}, shards(10, 2))
	assert.Equal(t, []shard{{0, 4}, {4, 8}, {8, 10}}, shards(10, 3))
	assert.Equal(t, []shard{{0, 1}, {1, 2}}, shards(2, 8))
}

func TestShardsDefaultMinimum(t *testing.T) {
	assert.Len(t, shards(minShard, 8), 1)
	assert.Len(t, shards(minShard*4, 8), 4)
}

func TestCountPairs(t *testing.T) {
	v := loadTestVocabulary(t, "aa ab")

	table, err := CountPairs(context.Background(), v, 1)
	require.NoError(t, err)
	assert.Equal(t, PairTable{
		{"a", "a</w>"}: 1,
		{"a", "b</w>"}: 1,
	}, table)
}

func TestCountPairsWeightsByFrequency(t *testing.T) {
	v := loadTestVocabulary(t, "low low low lower")

	table, err := CountPairs(context.Background(), v, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), table[Pair{"l", "o"}])
	assert.Equal(t, int64(3), table[Pair{"o", "w</w>"}])
	assert.Equal(t, int64(1), table[Pair{"o", "w"}])
	assert.Equal(t, int64(1), table[Pair{"e", "r</w>"}])
	assert.Len(t, table, 5)
}

func TestCountPairsSingleSymbolWords(t *testing.T) {
	v := loadTestVocabulary(t, "a b c a")

	table, err := CountPairs(context.Background(), v, 4)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestCountPairsShardedMatchesSequential(t *testing.T) {
	withSmallShards(t)
	v := loadTestVocabulary(t, generateCorpus(7, 3000))

	want, err := CountPairs(context.Background(), v, 1)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8, 64} {
		got, err := CountPairs(context.Background(), v, workers)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestCountPairsCancelled(t *testing.T) {
	withSmallShards(t)
	v := loadTestVocabulary(t, generateCorpus(1, 100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CountPairs(ctx, v, 4)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSelectBest(t *testing.T) {
	cases := map[string]struct {
		table PairTable
		want  Pair
		freq  int64
		ok    bool
	}{
		"empty":  {table: PairTable{}, ok: false},
		"single": {table: PairTable{{"a", "b"}: 3}, want: Pair{"a", "b"}, freq: 3, ok: true},
		"max wins": {
			table: PairTable{{"a", "b"}: 3, {"z", "z"}: 4, {"c", "d"}: 1},
			want:  Pair{"z", "z"}, freq: 4, ok: true,
		},
		"tie on left": {
			table: PairTable{{"b", "a"}: 2, {"a", "z"}: 2},
			want:  Pair{"a", "z"}, freq: 2, ok: true,
		},
		"tie on right": {
			table: PairTable{{"a", "b</w>"}: 1, {"a", "a</w>"}: 1},
			want:  Pair{"a", "a</w>"}, freq: 1, ok: true,
		},
		"non positive ignored": {table: PairTable{{"a", "b"}: 0}, ok: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, freq, ok := SelectBest(tc.table)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, got)
				assert.Equal(t, tc.freq, freq)
			}
		})
	}
}

func TestSelectBestStableAcrossRuns(t *testing.T) {
	table := PairTable{}
	for _, l := range []string{"q", "c", "x", "a", "m"} {
		for _, r := range []string{"1", "0", "9"} {
			table[Pair{l, r}] = 5
		}
	}

	for range 50 {
		got, _, ok := SelectBest(table)
		require.True(t, ok)
		require.Equal(t, Pair{"a", "0"}, got)
	}
}
