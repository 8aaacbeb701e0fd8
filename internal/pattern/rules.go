package pattern

import "fmt"

// Rule decides whether a cell belongs to a pattern.
type Rule struct {
	Key   string
	Match func(index, row, col int) bool
}

var centerCluster = map[int]bool{6: true, 7: true, 8: true, 11: true, 12: true, 13: true, 16: true, 17: true, 18: true}

var rules = map[string]Rule{
	"even": {Key: "even", Match: func(i, _, _ int) bool { return i%2 == 0 }},
	"diagonals": {Key: "diagonals", Match: func(_, row, col int) bool {
		return row == col || row+col == Side-1
	}},
	"prime":  {Key: "prime", Match: func(i, _, _ int) bool { return isPrime(i) }},
	"center": {Key: "center", Match: func(i, _, _ int) bool { return centerCluster[i] }},
	"mod3":   {Key: "mod3", Match: func(_, row, col int) bool { return (row+col)%3 == 0 }},
}

// RuleFor resolves a rule by key.
func RuleFor(key string) (Rule, error) {
	r, ok := rules[key]
	if !ok {
		return Rule{}, fmt.Errorf("pattern: unknown rule %q", key)
	}
	return r, nil
}

// RuleKeys returns the known rule keys.
func RuleKeys() []string {
	return []string{"even", "diagonals", "prime", "center", "mod3"}
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}
