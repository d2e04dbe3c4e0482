package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScopePath(t *testing.T) {
	cases := map[string]ScopePath{
		"mozilla::dom::Element":           {"mozilla", "dom", "Element"},
		" ns :: Foo ":                     {"ns", "Foo"},
		"Foo<std::string>::bar":           {"Foo<std::string>", "bar"},
		"Map<K, std::pair<A::B, C>>::Get": {"Map<K, std::pair<A::B, C>>", "Get"},
		"ns::Foo::Run(const ns::T&)":      {"ns", "Foo", "Run(const ns::T&)"},
		"ns::Foo::operator->":             {"ns", "Foo", "operator->"},
		"::Global":                        {"Global"},
		"":                                nil,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseScopePath(in), in)
	}
}

func TestScopePath_HasPrefixWithTemplates(t *testing.T) {
	path := ParseScopePath("Foo<std::string>::bar")
	assert.True(t, path.HasPrefix(ParseScopePath("Foo<std::string>")))
	assert.False(t, path.HasPrefix(ParseScopePath("Foo<std")))
	assert.Equal(t, "Foo<std::string>::bar", path.String())
}
