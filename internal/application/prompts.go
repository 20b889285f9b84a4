package application

import (
	"fmt"
	"strings"

	"github.com/abdidvp/sonarfix/internal/domain"
)

const proposalSystemPrompt = `You are a code quality expert who fixes static-analysis findings.
Propose clear, safe fixes that keep behavior unchanged and take the whole file into account.
Answer with a single JSON object and nothing else.`

const applySystemPrompt = `You are a precise code editor. Apply the requested fixes exactly.
Return only the complete updated file content, with no commentary and no code fences.
The result must remain syntactically valid.`

const unreadableFile = "[file not found or unreadable]"

// buildProposalPrompt asks for exactly one fix entry per issue, keyed by issue key.
func buildProposalPrompt(path string, content *string, issues []*domain.Issue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following code-quality issues in `%s` and propose a fix for each.\n\n", path)

	b.WriteString("FILE CONTENT:\n```\n")
	if content != nil {
		b.WriteString(*content)
		if !strings.HasSuffix(*content, "\n") {
			b.WriteString("\n")
		}
	} else {
		b.WriteString(unreadableFile + "\n")
	}
	b.WriteString("```\n\n")

	b.WriteString("ISSUES:\n")
	for i, issue := range issues {
		fmt.Fprintf(&b, "Issue %d:\n", i+1)
		fmt.Fprintf(&b, "  Key: %s\n", issue.Key)
		fmt.Fprintf(&b, "  Rule: %s\n", issue.Rule)
		fmt.Fprintf(&b, "  Line: %s\n", lineLabel(issue.Line))
		fmt.Fprintf(&b, "  Severity: %s\n", issue.Severity)
		fmt.Fprintf(&b, "  Type: %s\n", issue.Type)
		fmt.Fprintf(&b, "  Message: %s\n\n", issue.Message)
	}

	b.WriteString(`Respond with JSON of this exact shape:
{"fixes": [{"issue_key": "<key>", "suggested_fix": "<what to change>", "confidence": "high|medium|low", "reasoning": "<why>"}]}

Include exactly one entry for every issue key listed above and no other keys.
Prefer fixes that can be applied together without conflicts.
`)
	if content == nil {
		b.WriteString("The file content is unavailable, so confidence must be low.\n")
	}
	return b.String()
}

// buildApplyPrompt asks for the complete rewritten file.
func buildApplyPrompt(path, content string, fixes []domain.FixProposal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Apply the following fixes to `%s` and return the complete updated file.\n\n", path)

	b.WriteString("CURRENT FILE CONTENT:\n```\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")

	b.WriteString("FIXES TO APPLY:\n")
	for i, fix := range fixes {
		fmt.Fprintf(&b, "Fix %d (line %s):\n", i+1, lineLabel(fix.Line))
		fmt.Fprintf(&b, "  Rule: %s\n", fix.Rule)
		fmt.Fprintf(&b, "  Issue: %s\n", fix.Message)
		fmt.Fprintf(&b, "  Suggested: %s\n", fix.SuggestedFix)
		fmt.Fprintf(&b, "  Confidence: %s\n\n", fix.Confidence)
	}

	b.WriteString("Apply every fix that is safe and does not conflict with another. Return ONLY the file content.\n")
	return b.String()
}

func lineLabel(line *int) string {
	if line == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *line)
}
