package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/atlasplast/brandadmin/internal/client"
	"github.com/atlasplast/brandadmin/internal/domain"
)

// listNames are the editable bilingual lists, in display order.
var listNames = []string{"products", "brandAdvantages"}

var listLabels = map[string]string{
	"products":        "Products",
	"brandAdvantages": "Brand Advantages",
}

var langLabels = map[domain.Lang]string{
	domain.English: "English",
	domain.Arabic:  "Arabic",
}

// formView is the state of the create/edit form. It round-trips through
// hidden inputs, so every re-render reflects exactly what was submitted.
type formView struct {
	IsEdit         bool
	ID             string
	Input          domain.BrandInput
	New            map[string]string
	Errors         domain.FieldErrors
	SlugSuggestion string
	Logo           string
	MainImage      string
	GalleryImages  []string
	Staged         stagedImages
}

// listField is one (list, language) pair as rendered in the form.
type listField struct {
	Name      string
	Label     string
	Lang      domain.Lang
	LangLabel string
	Items     []string
	NewValue  string
}

// Key is the form field name of the list's hidden inputs.
func (f listField) Key() string { return f.Name + "." + string(f.Lang) }

// Lists returns every list field in display order.
func (v *formView) Lists() []listField {
	out := make([]listField, 0, len(listNames)*len(domain.Langs))
	for _, name := range listNames {
		list := v.list(name)
		for _, lang := range domain.Langs {
			f := listField{
				Name:      name,
				Label:     listLabels[name],
				Lang:      lang,
				LangLabel: langLabels[lang],
				Items:     list.Get(lang),
			}
			f.NewValue = v.New[f.Key()]
			out = append(out, f)
		}
	}
	return out
}

// Action is the form target.
func (v *formView) Action() string {
	if v.IsEdit {
		return "/edit-brand/" + v.ID
	}
	return "/create-brand"
}

func (v *formView) list(name string) domain.LocalizedList {
	if name == "brandAdvantages" {
		return v.Input.BrandAdvantages
	}
	return v.Input.Products
}

func (v *formView) setList(name string, l domain.LocalizedList) {
	if name == "brandAdvantages" {
		v.Input.BrandAdvantages = l
		return
	}
	v.Input.Products = l
}

// formFromBrand pre-fills the edit form.
func formFromBrand(b *domain.Brand) *formView {
	return &formView{
		IsEdit:        true,
		ID:            b.ID,
		Input:         b.Input(),
		New:           map[string]string{},
		Logo:          b.Logo,
		MainImage:     b.MainImage,
		GalleryImages: b.GalleryImages,
	}
}

// parseForm reads the submitted form state. r's form must already be parsed.
func parseForm(r *http.Request, v *formView) {
	v.Input = domain.BrandInput{
		Name:        r.FormValue("name"),
		Slug:        r.FormValue("slug"),
		Website:     r.FormValue("website"),
		Established: r.FormValue("established"),
		Origin: domain.Localized{
			En: r.FormValue("origin.en"),
			Ar: r.FormValue("origin.ar"),
		},
		Description: domain.Localized{
			En: r.FormValue("description.en"),
			Ar: r.FormValue("description.ar"),
		},
	}
	v.New = make(map[string]string)
	for _, name := range listNames {
		var list domain.LocalizedList
		for _, lang := range domain.Langs {
			key := name + "." + string(lang)
			for _, item := range r.Form[key] {
				list = list.Add(lang, item)
			}
			v.New[key] = r.FormValue("new." + key)
		}
		v.setList(name, list.Clone())
	}
	if v.IsEdit {
		v.Logo = r.FormValue("current.logo")
		v.MainImage = r.FormValue("current.mainImage")
		v.GalleryImages = r.Form["current.galleryImages"]
	}
}

// formOp is a parsed op value.
type formOp struct {
	kind  string // "save", "add" or "remove"
	list  string
	lang  domain.Lang
	index int
}

// parseOp parses "save", "add:<list>:<lang>" or
// "remove:<list>:<lang>:<index>". An empty op means save.
func parseOp(raw string) (formOp, error) {
	if raw == "" || raw == "save" {
		return formOp{kind: "save"}, nil
	}
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return formOp{}, fmt.Errorf("malformed op %q", raw)
	}
	op := formOp{kind: parts[0], list: parts[1]}
	if _, ok := listLabels[op.list]; !ok {
		return formOp{}, fmt.Errorf("unknown list %q", op.list)
	}
	lang, err := domain.ParseLang(parts[2])
	if err != nil {
		return formOp{}, err
	}
	op.lang = lang

	switch {
	case op.kind == "add" && len(parts) == 3:
		return op, nil
	case op.kind == "remove" && len(parts) == 4:
		idx, err := strconv.Atoi(parts[3])
		if err != nil {
			return formOp{}, fmt.Errorf("bad index in op %q", raw)
		}
		op.index = idx
		return op, nil
	default:
		return formOp{}, fmt.Errorf("malformed op %q", raw)
	}
}

// apply performs an add or remove op on v.
func (op formOp) apply(v *formView) {
	key := op.list + "." + string(op.lang)
	switch op.kind {
	case "add":
		v.setList(op.list, v.list(op.list).Add(op.lang, v.New[key]))
		v.New[key] = ""
	case "remove":
		v.setList(op.list, v.list(op.list).Remove(op.lang, op.index))
	}
}

// readForm parses a urlencoded or multipart submission.
func readForm(r *http.Request, maxBytes int64) error {
	err := r.ParseMultipartForm(maxBytes)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// apiErrorMessage prefers the message carried by an API error envelope.
func apiErrorMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
