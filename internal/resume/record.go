package resume

// ResumeRecord is the fixed-shape result extracted from one document.
// It is value data: built once by Extract and never mutated afterwards.
type ResumeRecord struct {
	// Name is never populated; name extraction is not implemented.
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	Skills            []string `json:"skills"`
	ExperienceSummary string   `json:"experience_summary"`
	Education         string   `json:"education"`
	LinkedIn          string   `json:"linkedin"`
	GitHub            string   `json:"github"`
}

const (
	// MaxSummaryLen bounds Education and ExperienceSummary, in characters.
	MaxSummaryLen = 800
	// MaxSkills bounds the Skills list.
	MaxSkills = 20
)

// Extract runs every field extractor over text. It never fails.
func Extract(text string) ResumeRecord {
	return ResumeRecord{
		Name:              "",
		Email:             ExtractEmail(text),
		Phone:             ExtractPhone(text),
		Skills:            ExtractSkills(text),
		ExperienceSummary: SummarizeExperience(text),
		Education:         ExtractEducation(text),
		LinkedIn:          ExtractLink(text, LinkedInDomain),
		GitHub:            ExtractLink(text, GitHubDomain),
	}
}
