package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelocate(t *testing.T) {
	lines := make([]string, 120)
	for i := range lines {
		lines[i] = "  // filler"
	}
	lines[69] = "void nsFoo::Bar(int aX) {"

	got, ok := Relocate(lines, 70, "nsFoo::Bar")
	assert.True(t, ok)
	assert.Equal(t, 70, got)

	got, ok = Relocate(lines, 60, "nsFoo::Bar")
	assert.True(t, ok)
	assert.Equal(t, 70, got)

	_, ok = Relocate(lines, 5, "nsFoo::Bar")
	assert.False(t, ok, "outside the search window")

	_, ok = Relocate(lines, 70, "Missing")
	assert.False(t, ok)
}

func TestRelocate_LastComponentMatches(t *testing.T) {
	lines := []string{"class nsFoo {", "  void Bar();", "};"}
	got, ok := Relocate(lines, 2, "mozilla::nsFoo::Bar")
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestIsPotentialDefinition(t *testing.T) {
	assert.True(t, IsPotentialDefinition("nsresult nsFoo::Init() {", "Init"))
	assert.True(t, IsPotentialDefinition("class nsFoo final : public nsISupports", "nsFoo"))
	assert.True(t, IsPotentialDefinition("already_AddRefed<nsFoo> nsFoo::Create", "Create"))
	assert.True(t, IsPotentialDefinition("  int mCount = 0;", "mcount"))
	assert.False(t, IsPotentialDefinition("  foo->Init()", "Init"))
	assert.False(t, IsPotentialDefinition("unrelated line;", "Init"))
}
