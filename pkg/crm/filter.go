package crm

import "strings"

// FilterState is the company list filter persisted with the UI preferences
type FilterState struct {
	Search       string          `json:"search"`
	Statuses     []CompanyStatus `json:"statuses"`
	Energies     []string        `json:"energies"`
	CompanyTypes []string        `json:"companyTypes"`
	Tags         []string        `json:"tags"`
}

// IsZero reports whether the filter matches everything
func (f FilterState) IsZero() bool {
	return f.Search == "" && len(f.Statuses) == 0 && len(f.Energies) == 0 &&
		len(f.CompanyTypes) == 0 && len(f.Tags) == 0
}

// MatchCompany applies the filter to c. contacts are searched too, so a company
// matches when one of its contacts matches the search text.
func (f FilterState) MatchCompany(c Company, contacts []Contact) bool {
	if f.Search != "" && !matchesSearch(strings.ToLower(f.Search), c, contacts) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, c.Status) {
		return false
	}
	if len(f.Energies) > 0 && (c.EnergyGrade == "" || !contains(f.Energies, c.EnergyGrade)) {
		return false
	}
	if len(f.CompanyTypes) > 0 && (c.CompanyType == "" || !contains(f.CompanyTypes, c.CompanyType)) {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, tag := range c.Tags {
			if contains(f.Tags, tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchesSearch(needle string, c Company, contacts []Contact) bool {
	if strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.RepName), needle) ||
		strings.Contains(strings.ToLower(c.Notes), needle) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	for _, ct := range contacts {
		if ct.CompanyID != c.ID {
			continue
		}
		if strings.Contains(strings.ToLower(ct.Name), needle) ||
			strings.Contains(strings.ToLower(ct.Email), needle) ||
			strings.Contains(strings.ToLower(ct.Phone), needle) {
			return true
		}
	}
	return false
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
