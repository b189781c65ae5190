package agent

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// Hash field names. The double underscore keeps internal fields apart from
// profile attributes.
const (
	fieldName           = "name"
	fieldBio            = "bio"
	fieldTagline        = "tagline"
	fieldSkills         = "skills"
	fieldRating         = "rating"
	fieldCompletionRate = "completion_rate"
	fieldResponseTime   = "response_time_avg"
	fieldTrustTier      = "trust_tier"
	fieldTrustScore     = "trust_score"
	fieldIsFounder      = "is_founder"
	fieldIsActive       = "is_active"
	fieldVector         = "__vector"
	fieldEmbeddedAt     = "__embedded_at"
)

// skillDTO is the JSON shape of one skill inside the skills hash field.
type skillDTO struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

// buildHashFields converts a domain Agent into a flat map for HSET.
// The embedding is written separately via SetEmbedding.
func buildHashFields(a *domain.Agent) (map[string]string, error) {
	skills := make([]skillDTO, len(a.Skills))
	for i, s := range a.Skills {
		skills[i] = skillDTO(s)
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return nil, err
	}

	m := map[string]string{
		fieldName:       a.Name,
		fieldBio:        a.Bio,
		fieldTagline:    a.Tagline,
		fieldSkills:     string(skillsJSON),
		fieldRating:     strconv.FormatFloat(a.Rating, 'f', -1, 64),
		fieldTrustTier:  string(a.TrustTier),
		fieldTrustScore: strconv.FormatFloat(a.TrustScore, 'f', -1, 64),
		fieldIsFounder:  strconv.FormatBool(a.IsFounder),
	}
	if a.CompletionRate != nil {
		m[fieldCompletionRate] = strconv.FormatFloat(*a.CompletionRate, 'f', -1, 64)
	}
	if a.ResponseTimeAvg != nil {
		m[fieldResponseTime] = strconv.FormatFloat(*a.ResponseTimeAvg, 'f', -1, 64)
	}
	if a.Active != nil {
		m[fieldIsActive] = strconv.FormatBool(*a.Active)
	}
	return m, nil
}

// parseHashFields converts a flat hash map back into a domain Agent.
// Unparseable optional numerics stay nil; a malformed vector reads as no
// embedding.
func parseHashFields(id string, m map[string]string) domain.Agent {
	a := domain.Agent{
		ID:         id,
		Name:       m[fieldName],
		Bio:        m[fieldBio],
		Tagline:    m[fieldTagline],
		TrustTier:  domain.TrustTier(m[fieldTrustTier]),
		TrustScore: parseFloatOr(m[fieldTrustScore], 0),
		Rating:     parseFloatOr(m[fieldRating], 0),
		IsFounder:  m[fieldIsFounder] == "true",
	}

	if raw, ok := m[fieldSkills]; ok && raw != "" {
		var skills []skillDTO
		if err := json.Unmarshal([]byte(raw), &skills); err == nil {
			a.Skills = make([]domain.Skill, len(skills))
			for i, s := range skills {
				a.Skills[i] = domain.Skill(s)
			}
		}
	}

	if raw, ok := m[fieldCompletionRate]; ok {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			a.CompletionRate = &f
		}
	}
	if raw, ok := m[fieldResponseTime]; ok {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			a.ResponseTimeAvg = &f
		}
	}
	if raw, ok := m[fieldIsActive]; ok {
		active := raw != "false" && raw != "0"
		a.Active = &active
	}

	if raw, ok := m[fieldVector]; ok {
		a.Embedding = bytesToVector(raw)
	}
	if raw, ok := m[fieldEmbeddedAt]; ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			a.EmbeddedAt = ms
		}
	}

	return a
}

func parseFloatOr(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
// Returns nil on any malformed input: a decode failure means no embedding.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
