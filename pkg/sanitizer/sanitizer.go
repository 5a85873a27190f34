package sanitizer

import (
	"strings"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

// Masks substituted for sensitive values
const (
	PhoneMask  = "***-****"
	EmailMask  = "***@***"
	AmountMask = "***"
)

// Class is the sensitivity classification of a field name
type Class int

const (
	ClassNone Class = iota
	ClassPhone
	ClassEmail
	ClassAmount
)

// Rule maps field name keywords to a class
type Rule struct {
	Class    Class
	Keywords []string
	Mask     string
}

// DefaultRules classify phone, email and amount fields in English and Korean
var DefaultRules = []Rule{
	{Class: ClassPhone, Keywords: []string{"phone", "전화"}, Mask: PhoneMask},
	{Class: ClassEmail, Keywords: []string{"email", "이메일"}, Mask: EmailMask},
	{Class: ClassAmount, Keywords: []string{"amount", "금액"}, Mask: AmountMask},
}

// Sanitizer masks sensitive values at read time. Stored values are never changed.
type Sanitizer struct {
	rules []Rule
}

// New creates a sanitizer with rules, or DefaultRules when none are given
func New(rules ...Rule) *Sanitizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	lowered := make([]Rule, len(rules))
	for i, rule := range rules {
		lowered[i] = Rule{Class: rule.Class, Mask: rule.Mask}
		for _, kw := range rule.Keywords {
			lowered[i].Keywords = append(lowered[i].Keywords, strings.ToLower(kw))
		}
	}
	return &Sanitizer{rules: lowered}
}

var defaultSanitizer = New()

// Classify returns the class of fieldName by case-insensitive substring match
func (s *Sanitizer) Classify(fieldName string) Class {
	rule, ok := s.match(fieldName)
	if !ok {
		return ClassNone
	}
	return rule.Class
}

// IsSensitive checks if a field is classified as sensitive
func (s *Sanitizer) IsSensitive(fieldName string) bool {
	_, ok := s.match(fieldName)
	return ok
}

func (s *Sanitizer) match(fieldName string) (Rule, bool) {
	lower := strings.ToLower(fieldName)
	for _, rule := range s.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule, true
			}
		}
	}
	return Rule{}, false
}

// MaskValue masks value when fieldName is sensitive. Empty values pass through.
func (s *Sanitizer) MaskValue(fieldName, value string) string {
	if value == "" {
		return value
	}
	rule, ok := s.match(fieldName)
	if !ok {
		return value
	}
	return rule.Mask
}

// MaskEntries returns masked copies of entries unless canViewSensitive is set
func (s *Sanitizer) MaskEntries(entries []datachangelog.ChangeLogEntry, canViewSensitive bool) []datachangelog.ChangeLogEntry {
	out := make([]datachangelog.ChangeLogEntry, len(entries))
	copy(out, entries)
	if canViewSensitive {
		return out
	}
	for i := range out {
		out[i].OldValue = s.MaskValue(out[i].FieldName, out[i].OldValue)
		out[i].NewValue = s.MaskValue(out[i].FieldName, out[i].NewValue)
	}
	return out
}

// MaskApprovals returns masked copies of requests unless canViewSensitive is set
func (s *Sanitizer) MaskApprovals(requests []approval.Request, canViewSensitive bool) []approval.Request {
	out := make([]approval.Request, len(requests))
	copy(out, requests)
	if canViewSensitive {
		return out
	}
	for i := range out {
		out[i].OldValue = s.MaskValue(out[i].FieldName, out[i].OldValue)
		out[i].NewValue = s.MaskValue(out[i].FieldName, out[i].NewValue)
	}
	return out
}

// MaskFields masks an entity display projection keyed by field name
func (s *Sanitizer) MaskFields(fields map[string]string, canViewSensitive bool) map[string]string {
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		if canViewSensitive {
			out[key] = value
			continue
		}
		out[key] = s.MaskValue(key, value)
	}
	return out
}

// MaskValue masks with DefaultRules
func MaskValue(fieldName, value string) string {
	return defaultSanitizer.MaskValue(fieldName, value)
}

// MaskEntries masks with DefaultRules
func MaskEntries(entries []datachangelog.ChangeLogEntry, canViewSensitive bool) []datachangelog.ChangeLogEntry {
	return defaultSanitizer.MaskEntries(entries, canViewSensitive)
}

// MaskApprovals masks with DefaultRules
func MaskApprovals(requests []approval.Request, canViewSensitive bool) []approval.Request {
	return defaultSanitizer.MaskApprovals(requests, canViewSensitive)
}

// MaskFields masks with DefaultRules
func MaskFields(fields map[string]string, canViewSensitive bool) map[string]string {
	return defaultSanitizer.MaskFields(fields, canViewSensitive)
}
