package votestories

import (
	"fmt"
	"strings"
)

const votePromptTemplate = `You are a helpful assistant that will vote on an agile user story.
You will be given a story and a set of arguments.
You will need to vote on the story based on the arguments.

The story is: %s
The arguments are:
%s

Vote is between 0 (WEAK) and 5 (GOOD).`

func formatVotePrompt(story string, arguments []string) string {
	var b strings.Builder
	for _, arg := range arguments {
		fmt.Fprintf(&b, "- %s\n", arg)
	}
	return fmt.Sprintf(votePromptTemplate, story, strings.TrimRight(b.String(), "\n"))
}
