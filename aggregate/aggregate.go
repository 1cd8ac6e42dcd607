// Package aggregate folds a completed session into the normalized answer set
// handed to the submission collaborator or to downstream presentation
// generation. The projection is pure: it never mutates the session.
package aggregate

import (
	"fmt"

	"github.com/presentable/feedback/core"
)

// Answers returns exactly one gathered answer per question of the session's
// form, in definition order, regardless of how many follow-up turns each
// question took. Fails with core.ErrInvalidState unless the session is
// completed or submitted.
func Answers(sess *core.AgentSession) ([]core.GatheredAnswer, error) {
	if sess.Status != core.StatusCompleted && sess.Status != core.StatusSubmitted {
		return nil, fmt.Errorf("%w: cannot aggregate session in status %q", core.ErrInvalidState, sess.Status)
	}
	out := make([]core.GatheredAnswer, 0, len(sess.Form.Questions))
	for _, q := range sess.Form.Questions {
		ans, ok := sess.Answers[q.ID]
		if !ok {
			return nil, fmt.Errorf("%w: completed session misses answer for question %q", core.ErrInvalidState, q.ID)
		}
		out = append(out, ans.Clone())
	}
	return out, nil
}
