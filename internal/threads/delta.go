package threads

import "github.com/strandhq/strand/backend/internal/models"

// delta is the set of changes an update will apply: scalar column writes
// plus tag/mention attachments and detachments. It is built in one pass and
// never mutated afterwards.
type delta struct {
	updates map[string]interface{}

	addTags    []string
	removeTags []string

	addMentions    []string
	removeMentions []string
}

func (d delta) empty() bool {
	return len(d.updates) == 0 &&
		len(d.addTags) == 0 && len(d.removeTags) == 0 &&
		len(d.addMentions) == 0 && len(d.removeMentions) == 0
}

// buildDelta diffs the requested update against the thread's current state.
// Scalars are included only when present and different. For tags and
// mentions the requested slice is the desired final set: entries not in the
// current set get attached, current entries missing from the request get
// detached, and the intersection is untouched.
func buildDelta(current *models.Thread, currentTags, currentMentions []string, in UpdateInput) delta {
	updates := map[string]interface{}{}

	if in.Text != nil && *in.Text != current.Text {
		updates["text"] = *in.Text
	}
	if in.BodyJSON != nil && *in.BodyJSON != current.BodyJSON {
		updates["body_json"] = *in.BodyJSON
	}
	if in.WhoCanLeaveComments != nil && *in.WhoCanLeaveComments != current.WhoCanLeaveComments {
		updates["who_can_leave_comments"] = *in.WhoCanLeaveComments
	}
	if in.HiddenCounts != nil && *in.HiddenCounts != current.HiddenCounts {
		updates["hidden_counts"] = *in.HiddenCounts
	}

	d := delta{updates: updates}

	if in.HashTags != nil {
		requested := dedup(in.HashTags)
		d.addTags = difference(requested, currentTags)
		d.removeTags = difference(currentTags, requested)
	}
	if in.Mentions != nil {
		requested := dedup(in.Mentions)
		d.addMentions = difference(requested, currentMentions)
		d.removeMentions = difference(currentMentions, requested)
	}
	return d
}

// difference returns the elements of a that are not in b.
func difference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	var out []string
	for _, v := range a {
		if !inB[v] {
			out = append(out, v)
		}
	}
	return out
}
