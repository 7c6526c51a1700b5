package domain

import (
	"encoding/json"
	"time"
)

// Brand is a brand record as stored by the upstream backend.
type Brand struct {
	ID              string        `json:"_id"`
	Slug            string        `json:"slug"`
	Name            string        `json:"name"`
	Website         string        `json:"website,omitempty"`
	Established     string        `json:"established,omitempty"`
	Origin          Localized     `json:"origin"`
	Description     Localized     `json:"description"`
	Products        LocalizedList `json:"products"`
	BrandAdvantages LocalizedList `json:"brandAdvantages"`
	Logo            string        `json:"logo,omitempty"`
	MainImage       string        `json:"mainImage,omitempty"`
	GalleryImages   []string      `json:"galleryImages"`
	IsActive        bool          `json:"isActive"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// UnmarshalJSON accepts "id" when a backend omits "_id".
func (b *Brand) UnmarshalJSON(data []byte) error {
	type plain Brand
	aux := struct {
		*plain
		AltID string `json:"id"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = aux.AltID
	}
	return nil
}

// MarshalJSON keeps galleryImages as [] rather than null.
func (b Brand) MarshalJSON() ([]byte, error) {
	type plain Brand
	p := plain(b)
	if p.GalleryImages == nil {
		p.GalleryImages = []string{}
	}
	return json.Marshal(p)
}

// Input returns the user-editable part of b.
func (b Brand) Input() BrandInput {
	return BrandInput{
		Slug:            b.Slug,
		Name:            b.Name,
		Website:         b.Website,
		Established:     b.Established,
		Origin:          b.Origin,
		Description:     b.Description,
		Products:        b.Products.Clone(),
		BrandAdvantages: b.BrandAdvantages.Clone(),
	}
}

// BrandInput is the body of create and full-update calls.
type BrandInput struct {
	Slug            string        `json:"slug" validate:"required,slug"`
	Name            string        `json:"name" validate:"notblank"`
	Website         string        `json:"website,omitempty" validate:"omitempty,url"`
	Established     string        `json:"established,omitempty" validate:"omitempty,year"`
	Origin          Localized     `json:"origin"`
	Description     Localized     `json:"description"`
	Products        LocalizedList `json:"products"`
	BrandAdvantages LocalizedList `json:"brandAdvantages"`
}

// Apply overwrites b's editable fields with in. Images, id, status and
// timestamps are left alone.
func (in BrandInput) Apply(b *Brand) {
	b.Slug = in.Slug
	b.Name = in.Name
	b.Website = in.Website
	b.Established = in.Established
	b.Origin = in.Origin
	b.Description = in.Description
	b.Products = in.Products.Clone()
	b.BrandAdvantages = in.BrandAdvantages.Clone()
}

// BrandPatch is a partial update. Nil fields are left unchanged.
type BrandPatch struct {
	Slug            *string        `json:"slug,omitempty" validate:"omitnil,slug"`
	Name            *string        `json:"name,omitempty" validate:"omitnil,notblank"`
	Website         *string        `json:"website,omitempty" validate:"omitnil,omitempty,url"`
	Established     *string        `json:"established,omitempty" validate:"omitnil,omitempty,year"`
	Origin          *Localized     `json:"origin,omitempty"`
	Description     *Localized     `json:"description,omitempty"`
	Products        *LocalizedList `json:"products,omitempty"`
	BrandAdvantages *LocalizedList `json:"brandAdvantages,omitempty"`
	IsActive        *bool          `json:"isActive,omitempty"`
}

// PatchOf returns a patch that sets every editable field to in's value.
func PatchOf(in BrandInput) BrandPatch {
	return BrandPatch{
		Slug:            &in.Slug,
		Name:            &in.Name,
		Website:         &in.Website,
		Established:     &in.Established,
		Origin:          &in.Origin,
		Description:     &in.Description,
		Products:        &in.Products,
		BrandAdvantages: &in.BrandAdvantages,
	}
}

// Apply copies every non-nil field of p onto b.
func (p BrandPatch) Apply(b *Brand) {
	if p.Slug != nil {
		b.Slug = *p.Slug
	}
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Website != nil {
		b.Website = *p.Website
	}
	if p.Established != nil {
		b.Established = *p.Established
	}
	if p.Origin != nil {
		b.Origin = *p.Origin
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Products != nil {
		b.Products = p.Products.Clone()
	}
	if p.BrandAdvantages != nil {
		b.BrandAdvantages = p.BrandAdvantages.Clone()
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
}
