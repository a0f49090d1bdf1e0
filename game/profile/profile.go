package profile

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kasuganosora/mathquest/resource"
)

// Avatar is the rendered-elsewhere descriptor of a learner's badge art.
type Avatar struct {
	Initials string    `json:"initials"`
	Palette  [2]string `json:"palette"`
}

var palettes = map[resource.Audience][2]string{
	resource.AudienceCollege:      {"#00D4FF", "#FFD166"},
	resource.AudienceProfessional: {"#FF6F61", "#2ED47A"},
}

// BuildAvatar derives initials from each word of name and picks the focus
// palette.
func BuildAvatar(name string, focus resource.Audience) Avatar {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	palette, ok := palettes[focus]
	if !ok {
		palette = palettes[resource.AudienceProfessional]
	}
	return Avatar{Initials: b.String(), Palette: palette}
}

// UserProfile is the persistent learner record. It is created once at
// onboarding and only ever overwritten afterwards.
type UserProfile struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Avatar          Avatar            `json:"avatar"`
	Focus           resource.Audience `json:"focus"`
	UnlockedModules []string          `json:"unlockedModules"`
	Badges          []string          `json:"badges"`
	Streak          int               `json:"streak"`
	LastPlayed      string            `json:"lastPlayed"`
	OnboardingScore int               `json:"onboardingScore"`
}

// New creates a fresh profile with streak 0 and a single starter module.
func New(name string, focus resource.Audience, onboardingScore int, starterModule string) *UserProfile {
	name = strings.TrimSpace(name)
	return &UserProfile{
		ID:              uuid.NewString(),
		Name:            name,
		Avatar:          BuildAvatar(name, focus),
		Focus:           focus,
		UnlockedModules: []string{starterModule},
		Badges:          []string{},
		Streak:          0,
		LastPlayed:      "",
		OnboardingScore: onboardingScore,
	}
}

// Clone returns a deep copy so reducers never alias caller slices.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.UnlockedModules = slices.Clone(p.UnlockedModules)
	c.Badges = slices.Clone(p.Badges)
	if c.UnlockedModules == nil {
		c.UnlockedModules = []string{}
	}
	if c.Badges == nil {
		c.Badges = []string{}
	}
	return &c
}

func (p *UserProfile) HasBadge(id string) bool {
	return slices.Contains(p.Badges, id)
}

func (p *UserProfile) IsUnlocked(moduleID string) bool {
	return slices.Contains(p.UnlockedModules, moduleID)
}
