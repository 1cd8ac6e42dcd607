package capability

import (
	"fmt"
	"strings"
)

// Instructions renders the provider-agnostic system prompt for a follow-up
// request: the primary question, its reference context sections and the
// remaining budget. Providers prepend this to the exchange trail.
func Instructions(req Request) string {
	var b strings.Builder
	b.WriteString("You are helping collect course feedback. ")
	b.WriteString("Ask exactly one short clarifying question about the answer the user just gave. ")
	b.WriteString("Do not repeat the original question and do not add commentary.\n\n")
	fmt.Fprintf(&b, "Original question: %s\n", req.Question)
	for _, c := range req.Contexts {
		fmt.Fprintf(&b, "\nReference (%s):\n%s\n", c.Title, c.Body)
	}
	fmt.Fprintf(&b, "\nRemaining follow-ups after this one: %d\n", req.Remaining)
	return b.String()
}
