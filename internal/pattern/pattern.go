// internal/pattern/pattern.go
//
// Pattern engine for the 5x5 puzzle grid.
// Responsibilities:
//   - Evaluate a rule predicate over the 25 cells to build a Pattern.
//   - Compare a player's Selection against a Pattern and score it.
//
// Notes:
//   - Pattern and Selection are fixed-size arrays, so their length is always 25.
//   - Everything here is pure; callers own timing and persistence.

package pattern

import "math"

const (
	// Side is the number of rows (and columns) in the grid.
	Side = 5
	// Size is the number of cells in the grid.
	Size = Side * Side
)

// Pattern is the set of cells a level flashes.
type Pattern [Size]bool

// Selection is the set of cells a player has marked.
type Selection [Size]bool

// Tier buckets an accuracy into the feedback the client shows.
type Tier string

const (
	TierExcellent  Tier = "excellent"   // accuracy >= 80
	TierGood       Tier = "good"        // accuracy >= 60
	TierKeepTrying Tier = "keep_trying" // anything lower
)

// Result is the outcome of scoring one submission.
type Result struct {
	Correct   int  `json:"correct"`   // selected and in the pattern
	Incorrect int  `json:"incorrect"` // selected but not in the pattern
	Missed    int  `json:"missed"`    // in the pattern but not selected
	Matches   int  `json:"matches"`   // cells where selection == pattern
	Accuracy  int  `json:"accuracy"`  // round(matches/25*100)
	Points    int  `json:"points"`    // floor(matches/25*100)
	Tier      Tier `json:"tier"`
}

// Coords splits a cell index into row and column.
func Coords(index int) (row, col int) {
	return index / Side, index % Side
}

// Generate evaluates r against every cell.
func Generate(r Rule) Pattern {
	var p Pattern
	for i := 0; i < Size; i++ {
		row, col := Coords(i)
		p[i] = r.Match(i, row, col)
	}
	return p
}

// Count returns the number of active cells.
func (p Pattern) Count() int {
	n := 0
	for _, on := range p {
		if on {
			n++
		}
	}
	return n
}

// Indices lists the active cells in ascending order.
func (p Pattern) Indices() []int {
	out := make([]int, 0, Size)
	for i, on := range p {
		if on {
			out = append(out, i)
		}
	}
	return out
}

// Any reports whether at least one cell is selected.
func (s Selection) Any() bool {
	for _, on := range s {
		if on {
			return true
		}
	}
	return false
}

// Score compares a selection with the pattern cell by cell.
func Score(sel Selection, p Pattern) Result {
	var r Result
	for i := 0; i < Size; i++ {
		switch {
		case sel[i] && p[i]:
			r.Correct++
		case sel[i] && !p[i]:
			r.Incorrect++
		case !sel[i] && p[i]:
			r.Missed++
		}
		if sel[i] == p[i] {
			r.Matches++
		}
	}
	frac := float64(r.Matches) / Size
	r.Accuracy = int(math.Round(frac * 100))
	r.Points = int(math.Floor(frac * 100))
	r.Tier = TierFor(r.Accuracy)
	return r
}

// TierFor maps an accuracy percentage to a feedback tier.
func TierFor(accuracy int) Tier {
	switch {
	case accuracy >= 80:
		return TierExcellent
	case accuracy >= 60:
		return TierGood
	default:
		return TierKeepTrying
	}
}
