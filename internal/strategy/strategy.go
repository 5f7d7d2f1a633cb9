package strategy

import (
	"fmt"
	"sort"
)

// Pairing is one home/away meeting between two teams in a given round.
type Pairing struct {
	Home  string
	Away  string
	Round int
}

// Strategy generates the pairings for one group, one slice per round.
type Strategy interface {
	Pairings(teams []string) [][]Pairing
	// Rounds is how many times each pair meets.
	Rounds() int
}

// Get returns a Strategy by name. An empty name selects the double round robin.
func Get(name string) (Strategy, error) {
	switch name {
	case "", "double_round_robin":
		return &DoubleRoundRobin{}, nil
	case "single_round_robin":
		return &SingleRoundRobin{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// DoubleRoundRobin pairs every team with every other team twice. In round 1
// the lexicographically smaller name is at home; round 2 swaps home and away.
type DoubleRoundRobin struct{}

func (s *DoubleRoundRobin) Rounds() int { return 2 }

func (s *DoubleRoundRobin) Pairings(teams []string) [][]Pairing {
	first := firstLeg(teams)
	if first == nil {
		return nil
	}

	second := make([]Pairing, len(first))
	for i, p := range first {
		second[i] = Pairing{Home: p.Away, Away: p.Home, Round: 2}
	}
	return [][]Pairing{first, second}
}

// SingleRoundRobin pairs every team with every other team once.
type SingleRoundRobin struct{}

func (s *SingleRoundRobin) Rounds() int { return 1 }

func (s *SingleRoundRobin) Pairings(teams []string) [][]Pairing {
	first := firstLeg(teams)
	if first == nil {
		return nil
	}
	return [][]Pairing{first}
}

// firstLeg returns all i<j pairs over the sorted roster, teams[i] at home.
func firstLeg(teams []string) []Pairing {
	if len(teams) < 2 {
		return nil
	}

	sorted := make([]string, len(teams))
	copy(sorted, teams)
	sort.Strings(sorted)

	pairings := make([]Pairing, 0, len(sorted)*(len(sorted)-1)/2)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			pairings = append(pairings, Pairing{
				Home:  sorted[i],
				Away:  sorted[j],
				Round: 1,
			})
		}
	}
	return pairings
}
