package document

import "strings"

// WorkExperienceEntry is one position on the resume. Only Title is
// semantically required; an entry with no populated field at all is
// rejected by its factory.
type WorkExperienceEntry struct {
	Title       string
	Place       string
	Date        string
	Description []string
}

// ProjectEntry is one personal project. Place is rarely present.
type ProjectEntry struct {
	Title       string
	Place       string
	Date        string
	Description []string
}

// EducationEntry is one degree or program.
type EducationEntry struct {
	Title       string
	Place       string
	Date        string
	Description []string
}

// NewWorkExperienceEntry builds an entry from loosely-shaped fields,
// trimming whitespace and dropping empty description lines. The second
// return is false when every field is empty, in which case the entry must
// not appear in the document.
func NewWorkExperienceEntry(title, place, date string, description []string) (WorkExperienceEntry, bool) {
	title, place, date, description = cleanEntryFields(title, place, date, description)
	if title == "" && place == "" && date == "" && len(description) == 0 {
		return WorkExperienceEntry{}, false
	}
	return WorkExperienceEntry{Title: title, Place: place, Date: date, Description: description}, true
}

// NewProjectEntry builds a project entry, rejecting fully-empty input.
func NewProjectEntry(title, place, date string, description []string) (ProjectEntry, bool) {
	title, place, date, description = cleanEntryFields(title, place, date, description)
	if title == "" && place == "" && date == "" && len(description) == 0 {
		return ProjectEntry{}, false
	}
	return ProjectEntry{Title: title, Place: place, Date: date, Description: description}, true
}

// NewEducationEntry builds an education entry, rejecting fully-empty input.
func NewEducationEntry(title, place, date string, description []string) (EducationEntry, bool) {
	title, place, date, description = cleanEntryFields(title, place, date, description)
	if title == "" && place == "" && date == "" && len(description) == 0 {
		return EducationEntry{}, false
	}
	return EducationEntry{Title: title, Place: place, Date: date, Description: description}, true
}

func cleanEntryFields(title, place, date string, description []string) (string, string, string, []string) {
	cleaned := make([]string, 0, len(description))
	for _, line := range description {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	if len(cleaned) == 0 {
		cleaned = nil
	}
	return strings.TrimSpace(title), strings.TrimSpace(place), strings.TrimSpace(date), cleaned
}

// PersonalInfo holds the contact fields extracted from the source resume.
type PersonalInfo struct {
	Name     string
	Phone    string
	LinkedIn string
	GitHub   string
	Email    string
	Address  string
}

// ResumeDocument is the final structured representation of a tailored
// resume. It is built once per run and only changed through the explicit
// Replace methods.
type ResumeDocument struct {
	ProfessionalSummary string
	WorkExperience      []WorkExperienceEntry
	PersonalProjects    []ProjectEntry
	Education           []EducationEntry
	Skills              []string
	Languages           []string
	PersonalInfo        PersonalInfo
}

// ReplaceProfessionalSummary swaps the summary text.
func (d *ResumeDocument) ReplaceProfessionalSummary(text string) {
	d.ProfessionalSummary = strings.TrimSpace(text)
}

// ReplaceSkill swaps one skill in place. Out-of-range indexes are ignored.
func (d *ResumeDocument) ReplaceSkill(i int, skill string) {
	if i < 0 || i >= len(d.Skills) {
		return
	}
	d.Skills[i] = strings.TrimSpace(skill)
}

// ReplaceLanguage swaps one language in place.
func (d *ResumeDocument) ReplaceLanguage(i int, language string) {
	if i < 0 || i >= len(d.Languages) {
		return
	}
	d.Languages[i] = strings.TrimSpace(language)
}

// ReplaceWorkExperience swaps one work-experience entry. Entries that fail
// the factory's emptiness check are not applied.
func (d *ResumeDocument) ReplaceWorkExperience(i int, entry WorkExperienceEntry) bool {
	if i < 0 || i >= len(d.WorkExperience) {
		return false
	}
	cleaned, ok := NewWorkExperienceEntry(entry.Title, entry.Place, entry.Date, entry.Description)
	if !ok {
		return false
	}
	d.WorkExperience[i] = cleaned
	return true
}
