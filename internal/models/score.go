package models

// Score derives a problem's ranking score from its engagement counts.
//
// Discussion volume is the primary signal: a problem with no comments scores
// zero no matter how it was voted, while the net-like factor is floored at 1
// so a discussed problem with negative sentiment still ranks by its comment
// count. The function is total and deterministic; it must be recomputed and
// persisted in the same transaction as any vote or comment mutation, never
// cached independently of its inputs.
func Score(likeCount, dislikeCount, commentCount int) int {
	likeFactor := likeCount - dislikeCount
	if likeFactor < 1 {
		likeFactor = 1
	}
	return likeFactor * commentCount
}
