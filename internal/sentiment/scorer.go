// Package sentiment scores post text on a signed scale. The shipped scorer
// is a small lexicon model; anything implementing domain.Scorer can replace
// it behind the same contract.
package sentiment

import (
	"math"
	"strings"
)

// alpha dampens the raw valence sum into the [-1, 1] range.
const alpha = 15.0

// Valence lexicon. Values follow the usual convention: positive words
// score above zero, negative below, stronger words further from zero.
var lexicon = map[string]float64{
	"good": 1.9, "great": 3.1, "excellent": 2.7, "amazing": 2.8,
	"awesome": 3.1, "love": 3.2, "loved": 2.9, "best": 3.2,
	"happy": 2.7, "win": 2.8, "winning": 2.4, "success": 2.7,
	"successful": 2.6, "strong": 2.3, "growth": 1.8, "profit": 2.1,
	"beat": 1.6, "record": 1.5, "innovative": 2.2, "launch": 1.1,
	"improved": 2.1, "improve": 1.9, "gain": 1.8, "gains": 1.8,
	"bullish": 2.4, "up": 1.2, "surge": 1.9, "rally": 1.7,
	"bad": -2.5, "terrible": -3.1, "awful": -3.0, "horrible": -2.9,
	"hate": -2.7, "worst": -3.1, "fail": -2.5, "failed": -2.4,
	"failure": -2.6, "loss": -2.1, "losses": -2.1, "lose": -2.0,
	"weak": -1.9, "drop": -1.6, "dropped": -1.7, "decline": -1.8,
	"bearish": -2.3, "down": -1.2, "crash": -2.8, "plunge": -2.3,
	"lawsuit": -1.9, "fraud": -3.0, "scandal": -2.6, "recall": -1.7,
	"layoffs": -2.2, "bankruptcy": -3.2, "miss": -1.5, "missed": -1.6,
}

// Intensity modifiers applied to the following word.
var boosters = map[string]float64{
	"very": 0.293, "really": 0.293, "extremely": 0.293, "incredibly": 0.293,
	"slightly": -0.293, "somewhat": -0.293, "barely": -0.293,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "neither": {}, "nor": {},
	"isnt": {}, "isn't": {}, "wasnt": {}, "wasn't": {},
	"dont": {}, "don't": {}, "didnt": {}, "didn't": {},
	"cant": {}, "can't": {}, "wont": {}, "won't": {},
}

// Scorer is a lexicon-based sentiment scorer. Zero value is ready to use;
// it is stateless and safe for concurrent use.
type Scorer struct{}

// New returns a lexicon scorer.
func New() *Scorer { return &Scorer{} }

// Score returns a signed compound score in [-1, 1]. Empty or fully neutral
// text scores zero.
func (s *Scorer) Score(text string) float64 {
	if text == "" {
		return 0
	}

	words := strings.Fields(strings.ToLower(text))
	sum := 0.0
	for i, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()#@")
		valence, ok := lexicon[w]
		if !ok {
			continue
		}
		if i > 0 {
			prev := strings.Trim(words[i-1], ".,!?;:\"'()")
			if boost, ok := boosters[prev]; ok {
				if valence > 0 {
					valence += boost
				} else {
					valence -= boost
				}
			}
			if negated(words, i) {
				valence = -0.74 * valence
			}
		}
		sum += valence
	}

	if sum == 0 {
		return 0
	}
	compound := sum / math.Sqrt(sum*sum+alpha)
	return math.Max(-1, math.Min(1, compound))
}

// negated reports whether one of the three preceding words is a negation.
func negated(words []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-3; j-- {
		w := strings.Trim(words[j], ".,!?;:\"'()")
		if _, ok := negations[w]; ok {
			return true
		}
	}
	return false
}
