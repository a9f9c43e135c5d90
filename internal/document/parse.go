package document

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jonathan/resume-pipeline/internal/extract"
)

// Assemble builds a ResumeDocument from the two generated JSON texts: the
// tailored resume blob and the personal-details blob. Both may carry prose
// around the JSON object; only the embedded object is read. Top-level keys
// are matched after lowercase, space-to-underscore normalization, and
// fully-empty entries are dropped.
func Assemble(resumeText, detailsText string) (*ResumeDocument, error) {
	resumeFields, err := normalizedFields("generated_resume_text", resumeText)
	if err != nil {
		return nil, &AssemblyError{Message: "parsing generated resume", Cause: err}
	}
	detailFields, err := normalizedFields("personal_details", detailsText)
	if err != nil {
		return nil, &AssemblyError{Message: "parsing personal details", Cause: err}
	}

	doc := &ResumeDocument{
		ProfessionalSummary: resumeFields["professional_summary"].String(),
		Skills:              stringList(resumeFields["skills"]),
		Languages:           stringList(resumeFields["languages"]),
		PersonalInfo: PersonalInfo{
			Name:     detailFields["name"].String(),
			Phone:    firstPresent(detailFields, "phone_number", "phone"),
			LinkedIn: detailFields["linkedin"].String(),
			GitHub:   detailFields["github"].String(),
			Email:    detailFields["email"].String(),
			Address:  detailFields["address"].String(),
		},
	}

	for _, raw := range resumeFields["work_experience"].Array() {
		if entry, ok := NewWorkExperienceEntry(entryFields(raw)); ok {
			doc.WorkExperience = append(doc.WorkExperience, entry)
		}
	}
	for _, raw := range resumeFields["personal_projects"].Array() {
		if entry, ok := NewProjectEntry(entryFields(raw)); ok {
			doc.PersonalProjects = append(doc.PersonalProjects, entry)
		}
	}
	for _, raw := range resumeFields["education"].Array() {
		if entry, ok := NewEducationEntry(entryFields(raw)); ok {
			doc.Education = append(doc.Education, entry)
		}
	}

	return doc, nil
}

// normalizedFields extracts the embedded JSON object and returns its
// top-level values keyed by normalized name.
func normalizedFields(artifact, raw string) (map[string]gjson.Result, error) {
	span, err := extract.Span(artifact, raw)
	if err != nil {
		return nil, err
	}
	parsed := gjson.Parse(span)
	if !parsed.IsObject() {
		return nil, &extract.ParseError{Artifact: artifact}
	}

	fields := make(map[string]gjson.Result)
	parsed.ForEach(func(key, value gjson.Result) bool {
		fields[extract.NormalizeKey(key.String())] = value
		return true
	})
	return fields, nil
}

func firstPresent(fields map[string]gjson.Result, keys ...string) string {
	for _, key := range keys {
		if value, ok := fields[key]; ok && value.String() != "" {
			return value.String()
		}
	}
	return ""
}

// entryFields reads one loosely-shaped entry object. A description given as
// a single string is treated as newline-separated lines.
func entryFields(raw gjson.Result) (title, place, date string, description []string) {
	title = raw.Get("title").String()
	place = raw.Get("place").String()
	date = raw.Get("date").String()

	desc := raw.Get("description")
	switch {
	case desc.IsArray():
		for _, line := range desc.Array() {
			description = append(description, line.String())
		}
	case desc.Type == gjson.String:
		description = strings.Split(desc.String(), "\n")
	}
	return title, place, date, description
}

func stringList(value gjson.Result) []string {
	if !value.IsArray() {
		return nil
	}
	var out []string
	for _, item := range value.Array() {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
