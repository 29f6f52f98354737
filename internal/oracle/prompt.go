package oracle

import "strings"

// SystemMessage frames the model's role for every ranking request.
const SystemMessage = "You recommend consultants best suited for a project based on their provided profiles and a given set of skill search terms."

const rankingTemplate = `You are an expert at matching consultant profiles to requested skills and areas of expertise. Review the consultant profiles below and pick the 5 consultants who best fit the requested skills.

Instructions:
    1. Analyze profiles:
      - Judge every profile for relevance to the requested skills or expertise.
      - Weigh skills, experience, industry background and location.

    2. Ranking criteria:
      - Exact skill matches come first.
      - Prefer current expertise, except for Jr. or Associate Consultants.
      - For Jr. or Associate Consultants (under 3 years of experience), weigh upskilling potential more heavily.
      - Treat industry expertise the same way for every profile.
      - Count location only when the request depends on it.
      - When nobody strongly matches a critical skill, weigh strong secondary qualifications more heavily.

    3. Assumptions:
      - Make reasonable assumptions when details such as industry or experience level are missing.
      - Mention each assumption briefly in the explanation.

    4. Output format:
      - Rank the consultants from 1 to 5, most suitable first.
      - Explain each pick with short bullet points.

    5. Consistency:
      - Apply the same systematic approach on every search.
      - Do not introduce random elements into the evaluation.

Skills or expertise to match against:
"""
{{query}}
"""

Consultant Profiles:
"""
{{corpus}}
"""
`

// BuildPrompt embeds the query and the corpus verbatim. An empty query is
// kept as is and asks for the best overall fit.
func BuildPrompt(query, corpus string) string {
	r := strings.NewReplacer("{{query}}", query, "{{corpus}}", corpus)
	return r.Replace(rankingTemplate)
}
