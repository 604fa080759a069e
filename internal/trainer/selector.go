package trainer

// SelectBest returns the most frequent pair in table. Ties go to the lexicographically
// smallest pair so the choice never depends on map iteration order.
// ok is false when the table is empty.
func SelectBest(table PairTable) (best Pair, freq int64, ok bool) {
	for p, n := range table {
		if n <= 0 {
			continue
		}
		if !ok || n > freq || (n == freq && p.Less(best)) {
			best, freq, ok = p, n, true
		}
	}
	return best, freq, ok
}
