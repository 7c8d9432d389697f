package game

const center = 5

var corners = [4]int{1, 3, 7, 9}

// NextOpponentMove picks the opponent's cell by a greedy one-ply rule, in
// this order: win now, block the human's immediate win, center, first free
// corner, first free cell. It reports false on a full board.
func NextOpponentMove(b Board) (int, bool) {
	free := b.Free()
	if len(free) == 0 {
		return 0, false
	}
	for _, l := range free {
		if completes(b, l, Opponent) {
			return l, true
		}
	}
	for _, l := range free {
		if completes(b, l, Human) {
			return l, true
		}
	}
	if b.At(center) == Empty {
		return center, true
	}
	for _, l := range corners {
		if b.At(l) == Empty {
			return l, true
		}
	}
	return free[0], true
}

// completes reports whether putting m at label wins a line for m.
func completes(b Board, label int, m Mark) bool {
	b[label-1] = m
	out, err := b.Outcome()
	if err != nil {
		return false
	}
	return (m == Human && out == HumanWin) || (m == Opponent && out == OpponentWin)
}
