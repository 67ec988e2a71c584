package anthropic

import "strings"

// extractionInstruction pins the exact output shape. The model returns
// JSON only; anything else fails candidate parsing upstream.
const extractionInstruction = `You convert a markdown planning document into a structured record. Return JSON only.

Return a JSON object with this structure:
{
  "name": "short document name",
  "description": "one-paragraph summary",
  "goal": "the stated goal",
  "rationale": ["why this matters", "..."],
  "body": "the main content, markdown preserved",
  "success_criteria": ["measurable outcome", "..."],
  "citations": [{"source": "url or file path", "note": "why it is referenced"}],
  "project_tree": "current directory tree if the document shows one, else empty",
  "file_tree": "desired directory tree if the document shows one, else empty",
  "caveats": "known gotchas and constraints, else empty",
  "items": [
    {
      "order": 1,
      "description": "one actionable task",
      "target_path": "file the task touches, else empty",
      "pattern_ref": "existing code to mirror, else empty",
      "pseudocode": "sketch if the document gives one, else empty",
      "status": "pending"
    }
  ]
}

Rules:
- "order" starts at 1, is unique per item, and follows the document's task order
- "status" is one of: pending, in-progress, completed (use pending unless the document says otherwise)
- Every item needs a non-empty description
- Do not invent citations; only list references the document actually contains
- Return ONLY the JSON, no other text.`

func buildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString(extractionInstruction)
	sb.WriteString("\n\nDocument:\n")
	sb.WriteString(text)
	return sb.String()
}
