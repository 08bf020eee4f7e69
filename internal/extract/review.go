package extract

// Review holds one extraction result while the user picks what to import.
// It is not safe for concurrent use; callers serialise access per chat.
type Review struct {
	Candidates []Candidate
}

// NewReview wraps an extraction result
func NewReview(candidates []Candidate) *Review {
	return &Review{Candidates: candidates}
}

// Toggle flips the selection of candidate i. Out-of-range indexes are ignored.
func (r *Review) Toggle(i int) bool {
	if i < 0 || i >= len(r.Candidates) {
		return false
	}
	r.Candidates[i].Selected = !r.Candidates[i].Selected
	return true
}

// SelectAll marks every candidate for import
func (r *Review) SelectAll() {
	for i := range r.Candidates {
		r.Candidates[i].Selected = true
	}
}

// DeselectAll clears every selection
func (r *Review) DeselectAll() {
	for i := range r.Candidates {
		r.Candidates[i].Selected = false
	}
}

// Visible returns the indexes of candidates shown to the user. Low
// confidence candidates are hidden unless showLowConfidence is set.
func (r *Review) Visible(showLowConfidence bool) []int {
	idx := make([]int, 0, len(r.Candidates))
	for i, c := range r.Candidates {
		// >= so candidates scoring exactly the threshold stay visible
		if showLowConfidence || c.Confidence >= SelectThreshold {
			idx = append(idx, i)
		}
	}
	return idx
}

// Selected returns the candidates currently marked for import, in rank order
func (r *Review) Selected() []Candidate {
	var out []Candidate
	for _, c := range r.Candidates {
		if c.Selected {
			out = append(out, c)
		}
	}
	return out
}
