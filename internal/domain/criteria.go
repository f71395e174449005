package domain

import "slices"

// Criterion names a rating dimension. The name doubles as the weight key
// in a ScoringFormula.
type Criterion string

const (
	CriterionImpact       Criterion = "impact"
	CriterionCompensation Criterion = "compensation"
	CriterionRole         Criterion = "role"
	CriterionTech         Criterion = "tech"
	CriterionLocation     Criterion = "location"
	CriterionIndustry     Criterion = "industry"
	CriterionCulture      Criterion = "culture"
	CriterionGrowth       Criterion = "growth"
	CriterionProfileMatch Criterion = "profileMatch"
	CriterionCompanySize  Criterion = "companySize"
	CriterionStress       Criterion = "stress"
	CriterionJobSecurity  Criterion = "jobSecurity"
)

// WowBoostKey is the weight added once for jobs flagged wow.
const WowBoostKey = "wowBoost"

// Ratings holds one optional rating per criterion.
type Ratings struct {
	Impact       Rating `json:"ratingImpact"`
	Compensation Rating `json:"ratingCompensation"`
	Role         Rating `json:"ratingRole"`
	Tech         Rating `json:"ratingTech"`
	Location     Rating `json:"ratingLocation"`
	Industry     Rating `json:"ratingIndustry"`
	Culture      Rating `json:"ratingCulture"`
	Growth       Rating `json:"ratingGrowth"`
	ProfileMatch Rating `json:"ratingProfileMatch"`
	CompanySize  Rating `json:"ratingCompanySize"`
	Stress       Rating `json:"ratingStress"`
	JobSecurity  Rating `json:"ratingJobSecurity"`
}

// CriterionInfo ties a criterion to its label, its storage column and the
// Ratings field that holds it.
type CriterionInfo struct {
	Criterion Criterion
	Label     string
	Column    string
	field     func(*Ratings) *Rating
}

// Field returns a pointer to this criterion's rating inside r.
func (ci CriterionInfo) Field(r *Ratings) *Rating {
	return ci.field(r)
}

// criteria is the canonical order. Scoring, storage and display all walk it.
var criteria = []CriterionInfo{
	{CriterionImpact, "Impact", "rating_impact", func(r *Ratings) *Rating { return &r.Impact }},
	{CriterionCompensation, "Compensation", "rating_compensation", func(r *Ratings) *Rating { return &r.Compensation }},
	{CriterionRole, "Role", "rating_role", func(r *Ratings) *Rating { return &r.Role }},
	{CriterionTech, "Tech", "rating_tech", func(r *Ratings) *Rating { return &r.Tech }},
	{CriterionLocation, "Location", "rating_location", func(r *Ratings) *Rating { return &r.Location }},
	{CriterionIndustry, "Industry", "rating_industry", func(r *Ratings) *Rating { return &r.Industry }},
	{CriterionCulture, "Culture", "rating_culture", func(r *Ratings) *Rating { return &r.Culture }},
	{CriterionGrowth, "Growth", "rating_growth", func(r *Ratings) *Rating { return &r.Growth }},
	{CriterionProfileMatch, "Profile match", "rating_profile_match", func(r *Ratings) *Rating { return &r.ProfileMatch }},
	{CriterionCompanySize, "Company size", "rating_company_size", func(r *Ratings) *Rating { return &r.CompanySize }},
	{CriterionStress, "Stress", "rating_stress", func(r *Ratings) *Rating { return &r.Stress }},
	{CriterionJobSecurity, "Job security", "rating_job_security", func(r *Ratings) *Rating { return &r.JobSecurity }},
}

// Criteria returns the criterion table in canonical order.
func Criteria() []CriterionInfo {
	return slices.Clone(criteria)
}

// LookupCriterion finds a criterion by its weight key.
func LookupCriterion(name string) (CriterionInfo, bool) {
	for _, ci := range criteria {
		if string(ci.Criterion) == name {
			return ci, true
		}
	}
	return CriterionInfo{}, false
}

// IsWeightKey reports whether name may appear in a formula's weights.
func IsWeightKey(name string) bool {
	if name == WowBoostKey {
		return true
	}
	_, ok := LookupCriterion(name)
	return ok
}
