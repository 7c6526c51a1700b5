package domain

import (
	"errors"
	"sort"
	"strings"

	"github.com/atlasplast/brandadmin/pkg/validator"
)

// FieldErrors maps a field path such as "origin.en" to a message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

var brandMessages = map[string]string{
	"name":           "Brand name is required",
	"slug:required":  "Slug is required",
	"slug:slug":      "Slug can only contain lowercase letters, numbers, and hyphens",
	"website":        "Website must be a valid URL",
	"established":    "Established year must be 4 digits",
	"origin.en":      "English origin is required",
	"origin.ar":      "Arabic origin is required",
	"description.en": "English description is required",
	"description.ar": "Arabic description is required",
}

// Validate checks in and returns nil when it is acceptable for create or
// full update.
func (in BrandInput) Validate() FieldErrors {
	return fieldErrors(validator.Validate(in))
}

// Validate checks only the fields present in p.
func (p BrandPatch) Validate() FieldErrors {
	return fieldErrors(validator.Validate(p))
}

func fieldErrors(err error) FieldErrors {
	if err == nil {
		return nil
	}
	var ve *validator.ValidationError
	if !errors.As(err, &ve) {
		return FieldErrors{"": err.Error()}
	}
	return FieldErrors(ve.Messages(brandMessages))
}

// Trimmed returns in with surrounding whitespace removed from every text
// field and blank list items dropped.
func (in BrandInput) Trimmed() BrandInput {
	out := BrandInput{
		Slug:        strings.TrimSpace(in.Slug),
		Name:        strings.TrimSpace(in.Name),
		Website:     strings.TrimSpace(in.Website),
		Established: strings.TrimSpace(in.Established),
		Origin: Localized{
			En: strings.TrimSpace(in.Origin.En),
			Ar: strings.TrimSpace(in.Origin.Ar),
		},
		Description: Localized{
			En: strings.TrimSpace(in.Description.En),
			Ar: strings.TrimSpace(in.Description.Ar),
		},
	}
	for _, lang := range Langs {
		for _, v := range in.Products.Get(lang) {
			out.Products = out.Products.Add(lang, v)
		}
		for _, v := range in.BrandAdvantages.Get(lang) {
			out.BrandAdvantages = out.BrandAdvantages.Add(lang, v)
		}
	}
	out.Products = out.Products.Clone()
	out.BrandAdvantages = out.BrandAdvantages.Clone()
	return out
}
