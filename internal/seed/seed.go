// Package seed populates a brand backend with sample brands through the
// client API.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/atlasplast/brandadmin/internal/client"
	"github.com/atlasplast/brandadmin/internal/domain"
	"github.com/atlasplast/brandadmin/pkg/slug"
)

// API is the part of the client the seeder needs.
type API interface {
	GetBrand(ctx context.Context, identifier string) (*domain.Brand, error)
	CreateBrand(ctx context.Context, in domain.BrandInput) (*domain.Brand, error)
}

type origin struct {
	en, ar string
}

var (
	prefixes = []string{"Atlas", "Nova", "Delta", "Vega", "Orion", "Terra", "Aqua", "Polar", "Summit", "Crest"}
	suffixes = []string{"Plast", "Pipes", "Fittings", "Systems", "Industries", "Tech", "Flow", "Line"}

	origins = []origin{
		{"Turkey", "تركيا"},
		{"Germany", "ألمانيا"},
		{"Italy", "إيطاليا"},
		{"Saudi Arabia", "المملكة العربية السعودية"},
		{"United Arab Emirates", "الإمارات العربية المتحدة"},
		{"Egypt", "مصر"},
	}

	products = []origin{
		{"PVC pipes", "أنابيب بي في سي"},
		{"PPR pipes", "أنابيب بي بي آر"},
		{"HDPE fittings", "وصلات إتش دي بي إي"},
		{"Valves", "صمامات"},
		{"Water tanks", "خزانات مياه"},
		{"Drainage systems", "أنظمة صرف"},
	}

	advantages = []origin{
		{"Corrosion resistant", "مقاوم للتآكل"},
		{"50 year lifetime", "عمر افتراضي 50 سنة"},
		{"Certified for drinking water", "معتمد لمياه الشرب"},
		{"Local technical support", "دعم فني محلي"},
	}
)

// Generate returns n deterministic sample brands for the given seed. Slugs
// carry the brand's index so they stay unique across runs.
func Generate(n int, randomSeed int64) []domain.BrandInput {
	rng := rand.New(rand.NewSource(randomSeed))
	out := make([]domain.BrandInput, 0, n)
	for i := 0; i < n; i++ {
		name := prefixes[rng.Intn(len(prefixes))] + " " + suffixes[rng.Intn(len(suffixes))]
		o := origins[rng.Intn(len(origins))]

		in := domain.BrandInput{
			Name:        name,
			Slug:        slug.Generate(name) + "-" + strconv.Itoa(i+1),
			Established: strconv.Itoa(1950 + rng.Intn(70)),
			Origin:      domain.Localized{En: o.en, Ar: o.ar},
			Description: domain.Localized{
				En: fmt.Sprintf("%s manufactures piping solutions in %s.", name, o.en),
				Ar: fmt.Sprintf("تصنع %s حلول الأنابيب في %s.", name, o.ar),
			},
		}
		if i%3 != 0 {
			in.Website = "https://" + in.Slug + ".example.com"
		}
		for _, p := range pick(rng, products, 1+rng.Intn(3)) {
			in.Products = in.Products.Add(domain.English, p.en).Add(domain.Arabic, p.ar)
		}
		for _, a := range pick(rng, advantages, rng.Intn(3)) {
			in.BrandAdvantages = in.BrandAdvantages.Add(domain.English, a.en).Add(domain.Arabic, a.ar)
		}
		in.Products = in.Products.Clone()
		in.BrandAdvantages = in.BrandAdvantages.Clone()
		out = append(out, in)
	}
	return out
}

func pick(rng *rand.Rand, from []origin, n int) []origin {
	idx := rng.Perm(len(from))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]origin, 0, n)
	for _, i := range idx[:n] {
		out = append(out, from[i])
	}
	return out
}

// Result counts what Run did.
type Result struct {
	Created int
	Skipped int
	Failed  int
}

// Run creates every brand in inputs that does not exist yet. A brand whose
// slug already resolves is skipped, so re-running with the same seed is
// safe. Run stops early only when ctx is canceled.
func Run(ctx context.Context, api API, inputs []domain.BrandInput, logger *slog.Logger) (Result, error) {
	var res Result
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if fe := in.Validate(); fe != nil {
			logger.Warn("skipping invalid brand", slog.String("slug", in.Slug), slog.String("error", fe.Error()))
			res.Failed++
			continue
		}

		_, err := api.GetBrand(ctx, in.Slug)
		if err == nil {
			res.Skipped++
			continue
		}
		var apiErr *client.APIError
		if !errors.As(err, &apiErr) {
			return res, fmt.Errorf("look up %s: %w", in.Slug, err)
		}
		// Through the proxy a missing brand surfaces as 500, directly as 404.
		if apiErr.StatusCode != http.StatusNotFound && apiErr.StatusCode != http.StatusInternalServerError {
			return res, fmt.Errorf("look up %s: %w", in.Slug, err)
		}

		b, err := api.CreateBrand(ctx, in)
		if err != nil {
			logger.Warn("create brand failed", slog.String("slug", in.Slug), slog.String("error", err.Error()))
			res.Failed++
			continue
		}
		res.Created++
		if (i+1)%10 == 0 {
			logger.Info("seed progress", slog.Int("done", i+1), slog.Int("total", len(inputs)))
		}
		logger.Debug("brand created", slog.String("id", b.ID), slog.String("slug", b.Slug))
	}
	return res, nil
}
