package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Person returns a minimal schema.org Person payload.
func Person(name, jobTitle, url, image string, affiliation string, sameAs []string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Person",
		"name":     name,
	}
	if jobTitle != "" {
		m["jobTitle"] = jobTitle
	}
	if url != "" {
		m["url"] = url
	}
	if image != "" {
		m["image"] = image
	}
	if affiliation != "" {
		m["alumniOf"] = map[string]any{"@type": "CollegeOrUniversity", "name": affiliation}
	}
	if len(sameAs) > 0 {
		m["sameAs"] = sameAs
	}
	return m
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	return m
}
