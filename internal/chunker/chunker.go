// Package chunker partitions an ordered segment list across wire
// requests under the remote platform's binary-part ceiling.
package chunker

import "github.com/dgallion1/notepress/internal/richtext"

// DefaultCeiling is the platform-mandated maximum number of binary
// parts one create or append request may carry.
const DefaultCeiling = 5

// Plan assigns segments to requests: First rides along with the page
// creation request, each entry of Rest becomes one follow-up append
// request, in order.
type Plan struct {
	First []richtext.Segment
	Rest  [][]richtext.Segment
}

// NumChunks is the total number of requests that carry binary parts.
func (p Plan) NumChunks() int {
	if len(p.First) == 0 {
		return 0
	}
	return 1 + len(p.Rest)
}

// Split partitions segments greedily left to right, preserving order.
// Earlier document content reaches the remote page first and in its
// expected position once later chunks append; document order is the
// sole ordering authority.
func Split(segments []richtext.Segment, ceiling int) Plan {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if len(segments) == 0 {
		return Plan{}
	}
	if len(segments) <= ceiling {
		return Plan{First: segments}
	}

	plan := Plan{First: segments[:ceiling]}
	rest := segments[ceiling:]
	for off := 0; off < len(rest); off += ceiling {
		end := off + ceiling
		if end > len(rest) {
			end = len(rest)
		}
		plan.Rest = append(plan.Rest, rest[off:end])
	}
	return plan
}
