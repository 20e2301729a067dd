package game

import "fmt"

// PrizeTable is the ordered ladder of question values plus its safe-haven checkpoints.
type PrizeTable struct {
	Amounts    []int
	SafeHavens []int // 1-based positions
}

// Validate enforces a strictly increasing ladder and in-range checkpoints.
func (p PrizeTable) Validate() error {
	if len(p.Amounts) == 0 {
		return fmt.Errorf("prize table is empty")
	}
	for i, amount := range p.Amounts {
		if amount <= 0 {
			return fmt.Errorf("prize at position %d must be positive", i+1)
		}
		if i > 0 && amount <= p.Amounts[i-1] {
			return fmt.Errorf("prize table not strictly increasing at position %d", i+1)
		}
	}
	seen := make(map[int]bool, len(p.SafeHavens))
	for _, pos := range p.SafeHavens {
		if pos < 1 || pos > len(p.Amounts) {
			return fmt.Errorf("safe haven %d outside 1..%d", pos, len(p.Amounts))
		}
		if seen[pos] {
			return fmt.Errorf("duplicate safe haven %d", pos)
		}
		seen[pos] = true
	}
	return nil
}

// Len is the number of positions on the ladder.
func (p PrizeTable) Len() int {
	return len(p.Amounts)
}

// PrizeFor returns the value of 0-based position i.
func (p PrizeTable) PrizeFor(i int) int {
	if i < 0 || i >= len(p.Amounts) {
		return 0
	}
	return p.Amounts[i]
}

// IsSafeHaven reports whether the 1-based position is a checkpoint.
func (p PrizeTable) IsSafeHaven(position int) bool {
	for _, pos := range p.SafeHavens {
		if pos == position {
			return true
		}
	}
	return false
}

// CumulativeFor is the score after n correct answers in a row.
func (p PrizeTable) CumulativeFor(n int) int {
	total := 0
	for i := 0; i < n && i < len(p.Amounts); i++ {
		total += p.Amounts[i]
	}
	return total
}
