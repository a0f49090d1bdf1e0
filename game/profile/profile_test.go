package profile

import (
	"testing"

	"github.com/kasuganosora/mathquest/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAvatar(t *testing.T) {
	a := BuildAvatar("ada  lovelace", resource.AudienceCollege)
	assert.Equal(t, "AL", a.Initials)
	assert.Equal(t, [2]string{"#00D4FF", "#FFD166"}, a.Palette)

	b := BuildAvatar("Grace", resource.AudienceProfessional)
	assert.Equal(t, "G", b.Initials)
	assert.Equal(t, [2]string{"#FF6F61", "#2ED47A"}, b.Palette)

	assert.Equal(t, "", BuildAvatar("   ", resource.AudienceCollege).Initials)
}

func TestNew_SeedsStarterModule(t *testing.T) {
	p := New("  Ada Lovelace ", resource.AudienceCollege, 80, "probability-forest")

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Ada Lovelace", p.Name)
	assert.Equal(t, []string{"probability-forest"}, p.UnlockedModules)
	assert.Empty(t, p.Badges)
	assert.Equal(t, 0, p.Streak)
	assert.Equal(t, "", p.LastPlayed)
	assert.Equal(t, 80, p.OnboardingScore)

	other := New("Ada Lovelace", resource.AudienceCollege, 80, "probability-forest")
	assert.NotEqual(t, p.ID, other.ID)
}

func TestClone_DoesNotAlias(t *testing.T) {
	p := New("Ada", resource.AudienceCollege, 0, "m1")
	c := p.Clone()
	c.UnlockedModules = append(c.UnlockedModules, "m2")
	c.Badges = append(c.Badges, "explorer")

	assert.Equal(t, []string{"m1"}, p.UnlockedModules)
	assert.Empty(t, p.Badges)
	assert.True(t, c.IsUnlocked("m2"))
	assert.True(t, c.HasBadge("explorer"))

	var nilProfile *UserProfile
	assert.Nil(t, nilProfile.Clone())
}

func TestScoreOnboarding(t *testing.T) {
	score, passed := ScoreOnboarding(map[string]string{"sequence": "81", "balance": "7", "probability": "Rolling a sum of 7 with two dice"})
	assert.Equal(t, 120, score)
	assert.True(t, passed)

	// 45 of 120 is below the 40% pass mark of 48.
	score, passed = ScoreOnboarding(map[string]string{"probability": "Rolling a sum of 7 with two dice"})
	assert.Equal(t, 45, score)
	assert.False(t, passed)

	score, passed = ScoreOnboarding(map[string]string{"sequence": "81", "bogus": "x"})
	require.Equal(t, 40, score)
	assert.False(t, passed)

	score, passed = ScoreOnboarding(map[string]string{"sequence": "81", "balance": "7"})
	assert.Equal(t, 75, score)
	assert.True(t, passed)
}
