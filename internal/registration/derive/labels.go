package derive

import (
	"context"
	"time"

	"registrar/internal/geo"
	"registrar/internal/registration/form"
)

// NotAvailable is displayed for any reference that cannot be resolved. It is
// a normal display value, not an error.
const NotAvailable = "N/A"

// Lookup table names used when labelling a person.
const (
	LookupGenders       = "genders"
	LookupCivilStatuses = "civil-statuses"
	LookupNationalities = "nationalities"
	LookupReligions     = "religions"
	LookupPrefixes      = "prefixes"
	LookupSkills        = "skills"
	LookupTalents       = "talents"
	LookupInterests     = "interests"
)

// LabelSource resolves one id in one lookup table.
type LabelSource interface {
	Label(ctx context.Context, name string, id int64) (string, bool)
}

type Labeler struct {
	src LabelSource
}

func NewLabeler(src LabelSource) *Labeler {
	return &Labeler{src: src}
}

// Label returns the display label, or NotAvailable.
func (l *Labeler) Label(ctx context.Context, name string, id int64) string {
	if id == 0 || l == nil || l.src == nil {
		return NotAvailable
	}
	label, ok := l.src.Label(ctx, name, id)
	if !ok || label == "" {
		return NotAvailable
	}
	return label
}

// Labels resolves each id in order.
func (l *Labeler) Labels(ctx context.Context, name string, ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.Label(ctx, name, id))
	}
	return out
}

// AddressSummary is an address with its geographic chain labelled.
type AddressSummary struct {
	Type         string `json:"type"`
	Region       string `json:"region"`
	Province     string `json:"province"`
	Municipality string `json:"municipality"`
	Barangay     string `json:"barangay"`
	Street       string `json:"street,omitempty"`
}

// Summary is the read-only view of a registration shown for review.
type Summary struct {
	FullName    string           `json:"full_name"`
	ShortName   string           `json:"short_name"`
	Age         *int             `json:"age"`
	Gender      string           `json:"gender"`
	CivilStatus string           `json:"civil_status"`
	Nationality string           `json:"nationality"`
	Religion    string           `json:"religion"`
	Prefix      string           `json:"prefix"`
	Skills      []string         `json:"skills"`
	Talents     []string         `json:"talents"`
	Interests   []string         `json:"interests"`
	Addresses   []AddressSummary `json:"addresses"`
	Captures    int              `json:"captures"`
}

// Summarize derives the review view of st as of asOf.
func (l *Labeler) Summarize(ctx context.Context, st form.State, asOf time.Time) Summary {
	p := Normalize(st.Person())
	sum := Summary{
		FullName:    fullName(p.FirstName, p.MiddleName, p.LastName, p.Suffix),
		ShortName:   p.ShortName,
		Gender:      l.Label(ctx, LookupGenders, p.GenderID),
		CivilStatus: l.Label(ctx, LookupCivilStatuses, p.CivilStatusID),
		Nationality: l.Label(ctx, LookupNationalities, p.NationalityID),
		Religion:    l.Label(ctx, LookupReligions, p.ReligionID),
		Prefix:      l.Label(ctx, LookupPrefixes, p.PrefixID),
		Skills:      l.Labels(ctx, LookupSkills, p.SkillIDs),
		Talents:     l.Labels(ctx, LookupTalents, p.TalentIDs),
		Interests:   l.Labels(ctx, LookupInterests, p.InterestIDs),
		Captures:    len(st.Captures()),
	}
	if age, ok := Age(p.DateOfBirth, asOf); ok {
		sum.Age = &age
	}
	for _, a := range p.Addresses {
		sum.Addresses = append(sum.Addresses, AddressSummary{
			Type:         a.Type,
			Region:       l.Label(ctx, geo.LookupNames[geo.Region], a.RegionID),
			Province:     l.Label(ctx, geo.LookupNames[geo.Province], a.ProvinceID),
			Municipality: l.Label(ctx, geo.LookupNames[geo.Municipality], a.MunicipalityID),
			Barangay:     l.Label(ctx, geo.LookupNames[geo.Barangay], a.BarangayID),
			Street:       a.Street,
		})
	}
	return sum
}

func fullName(parts ...string) string {
	out := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += part
	}
	return out
}
