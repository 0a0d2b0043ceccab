package resume

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\-\s()]{7,}\d`)

	skillsHeaderRe = regexp.MustCompile(`(?i)Skills[:\n\r]+([\s\S]{0,200})`)
	skillsSplitRe  = regexp.MustCompile(`[,;\n\r\\/|]`)

	educationHeaderRe = regexp.MustCompile(`(?i)Education[:\n\r]+([\s\S]{0,400})`)
	educationCutRe    = regexp.MustCompile(`\n{2,}|(?i:Experience|Skills|LinkedIn|GitHub)[:\n\r]`)
	degreeRe          = regexp.MustCompile(`(?i)(B\.?Sc|M\.?Sc|Bachelor|Master|Ph\.?D|University|College)[^\n]{0,200}`)

	paragraphRe = regexp.MustCompile(`\n{2,}`)

	linkRes = map[string]*regexp.Regexp{
		LinkedInDomain: compileLink(LinkedInDomain),
		GitHubDomain:   compileLink(GitHubDomain),
	}
)

// Domains looked up by Extract.
const (
	LinkedInDomain = "linkedin.com"
	GitHubDomain   = "github.com"
)

func compileLink(domain string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)https?://[\w./-]*` + regexp.QuoteMeta(domain) + `[\w./-]*`)
}

// skillVocabulary is scanned, in this order, when a resume has no Skills section.
var skillVocabulary = []string{
	"python", "javascript", "sql", "aws", "docker", "kubernetes",
	"react", "node", "pandas", "tensorflow", "excel",
}

var skillVocabularyRes = compileVocabulary(skillVocabulary)

func compileVocabulary(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// SkillVocabulary returns a copy of the fallback skill vocabulary.
func SkillVocabulary() []string {
	return append([]string(nil), skillVocabulary...)
}

// ExtractEmail returns the first email-like token in text, or "".
func ExtractEmail(text string) string {
	return emailRe.FindString(text)
}

// ExtractPhone returns the first phone-like digit run in text, or "".
// The match may span line breaks when digits follow on the next line.
func ExtractPhone(text string) string {
	return strings.TrimSpace(phoneRe.FindString(text))
}

// ExtractLink returns the first http(s) URL containing domain, or "".
// domain is matched literally anywhere in the URL, ignoring case.
func ExtractLink(text, domain string) string {
	re, ok := linkRes[domain]
	if !ok {
		re = compileLink(domain)
	}
	return re.FindString(text)
}

// ExtractSkills reads the list that follows the first "Skills" header. Without a
// header it falls back to scanning for the fixed vocabulary, which is returned in
// vocabulary order.
func ExtractSkills(text string) []string {
	if m := skillsHeaderRe.FindStringSubmatch(text); m != nil {
		skills := []string{}
		for _, s := range skillsSplitRe.Split(m[1], -1) {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			skills = append(skills, s)
			if len(skills) == MaxSkills {
				break
			}
		}
		return skills
	}

	found := []string{}
	for i, re := range skillVocabularyRes {
		if re.MatchString(text) {
			found = append(found, skillVocabulary[i])
		}
	}
	return found
}

// ExtractEducation returns the block under the first "Education" header, or the
// first degree or institution mention when there is no header.
func ExtractEducation(text string) string {
	if m := educationHeaderRe.FindStringSubmatch(text); m != nil {
		content := m[1]
		if loc := educationCutRe.FindStringIndex(content); loc != nil {
			content = content[:loc[0]]
		}
		var lines []string
		for _, line := range splitLines(content) {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		return truncate(strings.Join(lines, " "), MaxSummaryLen)
	}

	return strings.TrimSpace(degreeRe.FindString(text))
}

// SummarizeExperience skips the first paragraph (usually the contact block) and
// joins the next two.
func SummarizeExperience(text string) string {
	var parts []string
	for _, p := range paragraphRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	switch {
	case len(parts) >= 2:
		end := min(len(parts), 3)
		return truncate(strings.Join(parts[1:end], " "), MaxSummaryLen)
	case len(parts) == 1:
		return truncate(parts[0], MaxSummaryLen)
	default:
		return ""
	}
}
