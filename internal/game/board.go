// Package game implements the tic-tac-toe session that captures the input
// stream while it is active.
package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrOutOfRange = errors.New("cell label must be within 1..9")
	ErrOccupied   = errors.New("cell is already occupied")
	ErrCorrupt    = errors.New("board holds an unknown mark")
)

type Mark uint8

const (
	Empty Mark = iota
	Human
	Opponent
)

func (m Mark) String() string {
	switch m {
	case Human:
		return "X"
	case Opponent:
		return "O"
	case Empty:
		return ""
	default:
		return "?"
	}
}

type Outcome int

const (
	Continue Outcome = iota
	HumanWin
	OpponentWin
	Draw
)

func (o Outcome) String() string {
	switch o {
	case HumanWin:
		return "player_win"
	case OpponentWin:
		return "opponent_win"
	case Draw:
		return "draw"
	default:
		return "continue"
	}
}

// lines are the 8 winning triples, as 0-based indices.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Board is indexed by label-1. A cell leaves Empty at most once.
type Board [9]Mark

// Place marks the cell with the given 1-based label.
func (b *Board) Place(label int, m Mark) error {
	if label < 1 || label > 9 {
		return fmt.Errorf("place %d: %w", label, ErrOutOfRange)
	}
	if m != Human && m != Opponent {
		return fmt.Errorf("place %d: %w", label, ErrCorrupt)
	}
	if b[label-1] != Empty {
		return fmt.Errorf("place %d: %w", label, ErrOccupied)
	}
	b[label-1] = m
	return nil
}

func (b *Board) At(label int) Mark { return b[label-1] }

// Free returns the empty labels in scan order.
func (b *Board) Free() []int {
	var out []int
	for i, m := range b {
		if m == Empty {
			out = append(out, i+1)
		}
	}
	return out
}

// Outcome evaluates the 8 lines, then fullness.
func (b *Board) Outcome() (Outcome, error) {
	for _, m := range b {
		if m > Opponent {
			return Continue, ErrCorrupt
		}
	}
	for _, l := range lines {
		m := b[l[0]]
		if m != Empty && m == b[l[1]] && m == b[l[2]] {
			if m == Human {
				return HumanWin, nil
			}
			return OpponentWin, nil
		}
	}
	if len(b.Free()) == 0 {
		return Draw, nil
	}
	return Continue, nil
}

// Render shows three rows; empty cells show their label.
func (b *Board) Render() string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			if b[i] == Empty {
				cells[col] = strconv.Itoa(i + 1)
			} else {
				cells[col] = b[i].String()
			}
		}
		sb.WriteString(strings.Join(cells, " | "))
		if row < 2 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func joinLabels(labels []int) string {
	s := make([]string, len(labels))
	for i, l := range labels {
		s[i] = strconv.Itoa(l)
	}
	return strings.Join(s, ", ")
}
