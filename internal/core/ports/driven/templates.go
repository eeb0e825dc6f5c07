package driven

// Template names resolvable by a TemplateStore.
const (
	// TemplateFindingComment formats one published finding as a review
	// comment body.
	TemplateFindingComment = "finding_comment"
)

// TemplateStore loads user-customisable output templates.
type TemplateStore interface {
	// Load returns the template body for the given name.
	Load(name string) (string, error)
}
