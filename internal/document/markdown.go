package document

import (
	"fmt"
	"strings"
)

// Markdown renders the document as pandoc-flavored markdown, mirroring the
// layout of the final file: centered-ish header block, then Professional
// Summary, Work Experience, Personal Projects, Education, and a combined
// Skills & Languages line.
func (d *ResumeDocument) Markdown() string {
	var b strings.Builder

	if d.PersonalInfo.Name != "" {
		fmt.Fprintf(&b, "# %s\n\n", d.PersonalInfo.Name)
	}

	contact := joinPresent(" | ", d.PersonalInfo.Phone, d.PersonalInfo.Email, d.PersonalInfo.Address)
	if contact != "" {
		fmt.Fprintf(&b, "%s\n\n", contact)
	}

	var links []string
	if d.PersonalInfo.LinkedIn != "" {
		links = append(links, "LinkedIn: "+d.PersonalInfo.LinkedIn)
	}
	if d.PersonalInfo.GitHub != "" {
		links = append(links, "GitHub: "+d.PersonalInfo.GitHub)
	}
	if len(links) > 0 {
		fmt.Fprintf(&b, "%s\n\n", strings.Join(links, " | "))
	}

	if d.ProfessionalSummary != "" {
		b.WriteString("## Professional Summary\n\n")
		fmt.Fprintf(&b, "%s\n\n", d.ProfessionalSummary)
	}

	if len(d.WorkExperience) > 0 {
		b.WriteString("## Work Experience\n\n")
		for _, e := range d.WorkExperience {
			writeEntry(&b, e.Title, e.Place, e.Date, e.Description)
		}
	}
	if len(d.PersonalProjects) > 0 {
		b.WriteString("## Personal Projects\n\n")
		for _, e := range d.PersonalProjects {
			writeEntry(&b, e.Title, e.Place, e.Date, e.Description)
		}
	}
	if len(d.Education) > 0 {
		b.WriteString("## Education\n\n")
		for _, e := range d.Education {
			writeEntry(&b, e.Title, e.Place, e.Date, e.Description)
		}
	}

	combined := joinPresent(" | ", append(append([]string{}, d.Skills...), d.Languages...)...)
	if combined != "" {
		b.WriteString("## Skills & Languages\n\n")
		fmt.Fprintf(&b, "%s\n", combined)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeEntry(b *strings.Builder, title, place, date string, description []string) {
	heading := title
	if place != "" {
		heading += " - " + place
	}
	if heading != "" {
		fmt.Fprintf(b, "**%s**", heading)
	}
	if date != "" {
		fmt.Fprintf(b, " | *%s*", date)
	}
	b.WriteString("\n\n")
	for _, line := range description {
		fmt.Fprintf(b, "- %s\n", line)
	}
	if len(description) > 0 {
		b.WriteString("\n")
	}
}

func joinPresent(sep string, items ...string) string {
	present := make([]string, 0, len(items))
	for _, item := range items {
		if item != "" {
			present = append(present, item)
		}
	}
	return strings.Join(present, sep)
}
