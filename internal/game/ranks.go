package game

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Rank is one rung of the progress ladder, placed at a fraction of a
// puzzle's max score.
type Rank struct {
	Name     string  `yaml:"name" json:"name"`
	Fraction float64 `yaml:"fraction" json:"fraction"`
}

// Ranks is a ladder ordered by ascending Fraction, starting at 0.
type Ranks []Rank

// Level is a player's position on the ladder.
type Level struct {
	Name          string `json:"name"`
	Threshold     int    `json:"threshold"`
	Next          string `json:"next"`
	NextThreshold int    `json:"nextThreshold"`
	ToNext        int    `json:"toNext"`
}

// DefaultRanks mirrors assets/ranks.yaml.
func DefaultRanks() Ranks {
	return Ranks{
		{"Beginner", 0},
		{"Good Start", 0.22},
		{"Moving Up", 0.44},
		{"Good", 0.56},
		{"Solid", 0.67},
		{"Nice", 0.78},
		{"Great", 0.89},
		{"Amazing", 0.94},
		{"Genius", 1},
	}
}

// ParseRanks decodes a ladder from YAML of the form `ranks: [{name, fraction}]`.
func ParseRanks(data []byte) (Ranks, error) {
	var doc struct {
		Ranks Ranks `yaml:"ranks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("game: parse ranks: %w", err)
	}
	if err := doc.Ranks.Validate(); err != nil {
		return nil, err
	}
	return doc.Ranks, nil
}

// LoadRanksFile reads and parses a YAML ladder.
func LoadRanksFile(path string) (Ranks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("game: read ranks %s: %w", path, err)
	}
	return ParseRanks(data)
}

// Validate checks ordering and range.
func (rs Ranks) Validate() error {
	if len(rs) == 0 {
		return fmt.Errorf("%w: empty rank ladder", ErrInvalidConfig)
	}
	if rs[0].Fraction != 0 {
		return fmt.Errorf("%w: first rank %q must start at 0", ErrInvalidConfig, rs[0].Name)
	}
	for i, r := range rs {
		if r.Name == "" {
			return fmt.Errorf("%w: rank %d has no name", ErrInvalidConfig, i)
		}
		if r.Fraction < 0 || r.Fraction > 1 {
			return fmt.Errorf("%w: rank %q fraction %v outside [0,1]", ErrInvalidConfig, r.Name, r.Fraction)
		}
		if i > 0 && r.Fraction <= rs[i-1].Fraction {
			return fmt.Errorf("%w: rank %q does not ascend", ErrInvalidConfig, r.Name)
		}
	}
	return nil
}

// Thresholds converts the ladder into point thresholds for maxScore.
func (rs Ranks) Thresholds(maxScore int) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = int(math.Round(r.Fraction * float64(maxScore)))
	}
	return out
}

// For places score on the ladder. At the top rung Next repeats the current
// rank and ToNext is 0.
func (rs Ranks) For(score, maxScore int) Level {
	th := rs.Thresholds(maxScore)
	cur := 0
	for i := range rs {
		if score >= th[i] {
			cur = i
		}
	}
	next := min(cur+1, len(rs)-1)
	return Level{
		Name:          rs[cur].Name,
		Threshold:     th[cur],
		Next:          rs[next].Name,
		NextThreshold: th[next],
		ToNext:        max(0, th[next]-score),
	}
}
