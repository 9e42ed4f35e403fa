package services

import (
	"fmt"
	"strings"

	"milelog/pkg/utils"
)

const (
	CategoryBusiness = "Business"
	CategoryPersonal = "Personal"
	CategoryMedical  = "Medical"
	CategoryCharity  = "Charity"
	CategoryMoving   = "Moving"
)

var BuiltInCategories = []string{CategoryBusiness, CategoryPersonal, CategoryMedical, CategoryCharity, CategoryMoving}

func builtInCategory(name string) (string, bool) {
	for _, c := range BuiltInCategories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// ResolveCategory canonicalizes name against the built-in set and the
// account's custom categories. Empty means Business.
func ResolveCategory(name string, custom []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CategoryBusiness, nil
	}
	if c, ok := builtInCategory(name); ok {
		return c, nil
	}
	for _, c := range custom {
		if strings.EqualFold(c, name) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", utils.ErrMalformedSubmission, name)
}
